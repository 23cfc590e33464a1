package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestBreakerOpensAndRecovers(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	b := NewBreaker(2, time.Second, 1)
	b.now = c.now

	b.RecordFailure()
	assert.Equal(t, Closed, b.State())
	b.RecordFailure()
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())

	c.t = c.t.Add(2 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())
	assert.False(t, b.Allow())

	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	b := NewBreaker(1, time.Second, 1)
	b.now = c.now

	b.RecordFailure()
	c.t = c.t.Add(2 * time.Second)
	require.True(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, Open, b.State())
}

func TestGroupIsolatesKeys(t *testing.T) {
	g := NewGroup(1, time.Minute, 1)
	boom := errors.New("boom")

	assert.ErrorIs(t, g.Do("a.example", func() error { return boom }), boom)
	assert.ErrorIs(t, g.Do("a.example", func() error { return nil }), ErrOpen)
	assert.NoError(t, g.Do("b.example", func() error { return nil }))
	assert.Equal(t, "open", g.Get("a.example").State().String())
}

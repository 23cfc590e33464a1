package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callumgare/media-finder-cli/internal/domain"
)

type recordingConn struct {
	subject string
	data    []byte
	err     error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	c.subject, c.data = subject, data
	return c.err
}

func TestPublishQueryCompleted(t *testing.T) {
	rc := &recordingConn{}
	c := &Client{pub: rc, subject: "media-finder.queries"}

	event := domain.QueryCompleted{
		EventID:        "e1",
		Source:         "reddit",
		RequestHandler: "subreddit",
		Page:           1,
		MediaCount:     25,
		Status:         domain.StatusOK,
		OccurredAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, c.PublishQueryCompleted(context.Background(), event))
	assert.Equal(t, "media-finder.queries.completed", rc.subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rc.data, &got))
	assert.Equal(t, "reddit", got["source"])
	assert.Equal(t, "subreddit", got["requestHandler"])
	assert.Equal(t, float64(25), got["mediaCount"])
	assert.NotContains(t, got, "error")
}

func TestPublishQueryCompletedError(t *testing.T) {
	c := &Client{pub: &recordingConn{err: errors.New("no responders")}, subject: "q"}
	err := c.PublishQueryCompleted(context.Background(), domain.QueryCompleted{})
	assert.ErrorContains(t, err, "nats publish")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.PublishQueryCompleted(ctx, domain.QueryCompleted{}), context.Canceled)
}

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient("nats://127.0.0.1:1", "q")
	assert.Error(t, err)
}

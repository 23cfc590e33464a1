package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned for calls rejected by an open breaker.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker trips after threshold consecutive failures and lets up to
// halfOpenMax probe calls through once timeout has passed.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	threshold   int
	timeout     time.Duration
	halfOpenMax int
	halfOpenCnt int
	lastFailure time.Time
	now         func() time.Time
}

// NewBreaker creates a new circuit breaker.
func NewBreaker(threshold int, timeout time.Duration, halfOpenMax int) *Breaker {
	return &Breaker{
		state:       Closed,
		threshold:   threshold,
		timeout:     timeout,
		halfOpenMax: halfOpenMax,
		now:         time.Now,
	}
}

// Allow checks if the request should be allowed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.lastFailure) <= b.timeout {
			return false
		}
		b.state = HalfOpen
		b.halfOpenCnt = 1
		return true
	case HalfOpen:
		if b.halfOpenCnt >= b.halfOpenMax {
			return false
		}
		b.halfOpenCnt++
		return true
	}
	return true
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
}

// RecordFailure records a failed request.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if b.state == HalfOpen || b.failures >= b.threshold {
		b.state = Open
	}
}

// State returns the current circuit breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Group hands out one breaker per key, created on first use.
type Group struct {
	mu          sync.Mutex
	breakers    map[string]*Breaker
	threshold   int
	timeout     time.Duration
	halfOpenMax int
	now         func() time.Time
}

// NewGroup creates a group whose breakers share the given settings.
func NewGroup(threshold int, timeout time.Duration, halfOpenMax int) *Group {
	return &Group{
		breakers:    make(map[string]*Breaker),
		threshold:   threshold,
		timeout:     timeout,
		halfOpenMax: halfOpenMax,
		now:         time.Now,
	}
}

// Get returns the breaker for key.
func (g *Group) Get(key string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.breakers[key]
	if !ok {
		b = NewBreaker(g.threshold, g.timeout, g.halfOpenMax)
		b.now = g.now
		g.breakers[key] = b
	}
	return b
}

// Do runs fn through the breaker for key. fn reports failure by returning
// a non-nil error.
func (g *Group) Do(key string, fn func() error) error {
	b := g.Get(key)
	if !b.Allow() {
		return ErrOpen
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

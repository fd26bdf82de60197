package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("down")

func TestBreakerOpensAndProbes(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	now := time.Date(2025, 7, 6, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	var transitions []string
	cb.SetStateChangeCallback(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	calls := 0
	failing := func() error { calls++; return errDown }

	assert.ErrorIs(t, cb.Do(failing), errDown)
	assert.ErrorIs(t, cb.Do(failing), errDown)
	assert.Equal(t, StateOpen, cb.GetState())

	assert.ErrorIs(t, cb.Do(failing), ErrOpen)
	assert.Equal(t, 2, calls, "open breaker must not call through")

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestFailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	now := time.Date(2025, 7, 6, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	_ = cb.Do(func() error { return errDown })
	now = now.Add(2 * time.Minute)
	_ = cb.Do(func() error { return errDown })
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Do(func() error { return nil }), ErrOpen)
}

func TestDisabledBreaker(t *testing.T) {
	cb := NewCircuitBreaker(0, time.Minute)
	for i := 0; i < 5; i++ {
		_ = cb.Do(func() error { return errDown })
	}
	assert.NoError(t, cb.Do(func() error { return nil }))
}

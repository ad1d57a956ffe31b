package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock lets tests advance time deterministically instead of
// sleeping, per the clock capability described in spec §9.
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestBreaker_HappyPath_StaysClosed(t *testing.T) {
	clock := newManualClock()
	b := New("power", DefaultConfig(), clock)

	for i := 0; i < 100; i++ {
		require.True(t, b.Allow())
		b.RecordSuccess()
	}

	assert.Equal(t, Closed, b.CurrentState())
	assert.Equal(t, 0, b.Snap().ConsecutiveFailures)
}

func TestBreaker_TripAndRecover(t *testing.T) {
	clock := newManualClock()
	cfg := Config{
		FailureThreshold:         5,
		RecoveryTimeout:          60 * time.Second,
		HalfOpenSuccessThreshold: 3,
		HalfOpenFailureThreshold: 1,
	}
	b := New("power", cfg, clock)

	for i := 0; i < 5; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, Open, b.CurrentState())
	assert.False(t, b.Allow())

	clock.Advance(60 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.CurrentState())

	b.RecordSuccess()
	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.CurrentState())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.CurrentState())
}

func TestBreaker_HalfOpenRegression(t *testing.T) {
	clock := newManualClock()
	cfg := Config{
		FailureThreshold:         2,
		RecoveryTimeout:          time.Second,
		HalfOpenSuccessThreshold: 3,
		HalfOpenFailureThreshold: 1,
	}
	b := New("climate", cfg, clock)

	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, Open, b.CurrentState())

	clock.Advance(time.Second)
	require.True(t, b.Allow())
	require.Equal(t, HalfOpen, b.CurrentState())

	b.RecordSuccess()
	b.RecordSuccess()
	assert.Equal(t, 2, b.Snap().ConsecutiveSuccesses)

	beforeFail := clock.Now()
	b.RecordFailure()

	assert.Equal(t, Open, b.CurrentState())
	snap := b.Snap()
	assert.Equal(t, 0, snap.ConsecutiveFailures)
	assert.Equal(t, 0, snap.ConsecutiveSuccesses)
	assert.True(t, snap.OpenedAt.Equal(beforeFail) || snap.OpenedAt.After(beforeFail))
}

func TestBreaker_EveryTransitionResetsCounters(t *testing.T) {
	clock := newManualClock()
	cfg := DefaultConfig()
	cfg.FailureThreshold = 3
	b := New("test", cfg, clock)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, 0, b.Snap().ConsecutiveFailures)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, Open, b.CurrentState())
	assert.Equal(t, 0, b.Snap().ConsecutiveFailures)
}

func TestBreaker_OpenDeniesUntilRecoveryTimeout(t *testing.T) {
	clock := newManualClock()
	cfg := DefaultConfig()
	cfg.FailureThreshold = 1
	cfg.RecoveryTimeout = 30 * time.Second
	b := New("test", cfg, clock)

	b.RecordFailure()
	require.Equal(t, Open, b.CurrentState())
	assert.False(t, b.Allow())

	clock.Advance(29 * time.Second)
	assert.False(t, b.Allow())
	assert.Equal(t, Open, b.CurrentState())

	clock.Advance(1 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.CurrentState())
}

func TestBreaker_StateIsAlwaysOneOfThree(t *testing.T) {
	clock := newManualClock()
	b := New("fuzz", DefaultConfig(), clock)

	ops := []func(){b.RecordSuccess, b.RecordFailure}
	for i := 0; i < 500; i++ {
		ops[i%2]()
		clock.Advance(time.Second)
		s := b.CurrentState()
		assert.True(t, s == Closed || s == Open || s == HalfOpen)
	}
}

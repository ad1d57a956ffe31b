// Package breaker implements the three-state circuit breaker that shields
// each collector from cascading failures against the AiSEG2 device. One
// Breaker instance protects exactly one collector and belongs to exactly
// one cadence loop; it is not shared across loops.
package breaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// State is one of the three reachable circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// String implements fmt.Stringer for logging.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Clock is injected so tests can advance time deterministically instead of
// sleeping. SystemClock is the time.Now-backed implementation.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Config configures breaker thresholds. Zero values are replaced with the
// spec's defaults by New.
type Config struct {
	FailureThreshold         int
	RecoveryTimeout          time.Duration
	HalfOpenSuccessThreshold int
	HalfOpenFailureThreshold int
}

// DefaultConfig returns the spec's defaults: 5 failures to open, 60s
// recovery, 3 successes to close, 1 failure to reopen.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:         5,
		RecoveryTimeout:          60 * time.Second,
		HalfOpenSuccessThreshold: 3,
		HalfOpenFailureThreshold: 1,
	}
}

// Snapshot is a point-in-time, race-free view of a breaker's internal
// state for observability (metrics, status reporting).
type Snapshot struct {
	State                State
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	OpenedAt             time.Time
}

// Breaker is the per-collector circuit breaker state machine described in
// spec §4.7. The supervisor holds exclusive mutation rights; collectors
// never see breaker state.
type Breaker struct {
	mu sync.Mutex

	name   string
	config Config
	clock  Clock

	state                State
	consecutiveFailures  int
	consecutiveSuccesses int
	openedAt             time.Time
}

// New creates a breaker for the named collector. A nil clock defaults to
// SystemClock.
func New(name string, config Config, clock Clock) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = DefaultConfig().RecoveryTimeout
	}
	if config.HalfOpenSuccessThreshold <= 0 {
		config.HalfOpenSuccessThreshold = DefaultConfig().HalfOpenSuccessThreshold
	}
	if config.HalfOpenFailureThreshold <= 0 {
		config.HalfOpenFailureThreshold = DefaultConfig().HalfOpenFailureThreshold
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Breaker{
		name:   name,
		config: config,
		clock:  clock,
		state:  Closed,
	}
}

// Allow reports whether a call should be admitted. It may transition the
// breaker from Open to HalfOpen when the recovery timeout has elapsed —
// the transition is driven by this admission check, not a timer goroutine
// (spec §4.7).
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.clock.Now().Sub(b.openedAt) >= b.config.RecoveryTimeout {
			b.transitionTo(HalfOpen)
			return true
		}
		return false
	case HalfOpen:
		return true
	default:
		return true
	}
}

// RecordSuccess reports a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.consecutiveFailures = 0
	case HalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.config.HalfOpenSuccessThreshold {
			b.transitionTo(Closed)
		}
	case Open:
		// Success reported against an Open breaker shouldn't happen under
		// normal supervisor use (Allow would have denied the call); log
		// and ignore rather than corrupt state.
		log.Warn().Str("breaker", b.name).Msg("success recorded while circuit is open")
	}
}

// RecordFailure reports a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.config.FailureThreshold {
			b.trip()
		}
	case HalfOpen:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.config.HalfOpenFailureThreshold {
			b.trip()
		}
	case Open:
		log.Warn().Str("breaker", b.name).Msg("failure recorded while circuit is already open")
	}
}

// trip transitions to Open and records opened_at. Caller must hold mu.
func (b *Breaker) trip() {
	b.transitionTo(Open)
	b.openedAt = b.clock.Now()
	log.Warn().
		Str("breaker", b.name).
		Str("state", Open.String()).
		Msg("circuit breaker opened")
}

// transitionTo moves to the new state and resets both counters, per the
// invariant that every transition resets consecutive_failures and
// consecutive_successes to 0. Caller must hold mu.
func (b *Breaker) transitionTo(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
	if to != Open {
		log.Info().
			Str("breaker", b.name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}
}

// CurrentState returns the current state without mutating it (unlike
// Allow, which may drive Open->HalfOpen).
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snap returns a race-free snapshot of the breaker's internal counters and
// state. The supervisor's state gauge reads CurrentState instead; Snap
// exposes the counters and opened_at as well.
func (b *Breaker) Snap() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		State:                b.state,
		ConsecutiveFailures:  b.consecutiveFailures,
		ConsecutiveSuccesses: b.consecutiveSuccesses,
		OpenedAt:             b.openedAt,
	}
}

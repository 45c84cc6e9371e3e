// Package circuitbreaker isolates gateway failures per gateway name,
// tracking a CLOSED/OPEN/HALF_OPEN state machine and a derived health
// score fed by recent outcomes.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// State is the breaker's own, separate state machine from the payment
// lifecycle's — it tracks gateway health, not payment progress.
type State string

const (
	Closed   State = "CLOSED"
	Open     State = "OPEN"
	HalfOpen State = "HALF_OPEN"
)

// Config holds the breaker's tunables; zero values are replaced with
// the defaults below by New.
type Config struct {
	FailureThreshold     int
	FailureRateThreshold float64
	SuccessThreshold     int
	OpenTimeout          time.Duration
	HalfOpenTimeout      time.Duration
	HalfOpenMaxAttempts  int
	MinHealthScore       float64
	// RollingWindow bounds how far back FailureRateThreshold looks.
	RollingWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.FailureRateThreshold <= 0 {
		c.FailureRateThreshold = 0.5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 3
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 60 * time.Second
	}
	if c.HalfOpenTimeout <= 0 {
		c.HalfOpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxAttempts <= 0 {
		c.HalfOpenMaxAttempts = 5
	}
	if c.MinHealthScore <= 0 {
		c.MinHealthScore = 0.5
	}
	if c.RollingWindow <= 0 {
		c.RollingWindow = 5 * time.Minute
	}
	return c
}

type outcome struct {
	at      time.Time
	success bool
}

// Breaker guards a single gateway. One Breaker is created per
// registered gateway by the Registry below.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state          State
	stateChangedAt time.Time

	consecutiveSuccess int
	consecutiveFailure int

	halfOpenInFlight int
	halfOpenSuccess  int

	outcomes []outcome

	healthScore float64
}

// NewBreaker constructs a Breaker in the CLOSED state.
func NewBreaker(cfg Config) *Breaker {
	return &Breaker{
		cfg:            cfg.withDefaults(),
		state:          Closed,
		stateChangedAt: time.Now(),
		healthScore:    1.0,
	}
}

// Allow reports whether a call may proceed, transitioning OPEN ->
// HALF_OPEN when openTimeout has elapsed and reserving a probe slot
// when HALF_OPEN.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionFromOpen()
	b.maybeTransitionFromHalfOpen()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxAttempts {
			return false
		}
		b.halfOpenInFlight++
		return true
	default: // Open
		return false
	}
}

// Execute runs fn only if Allow() permits it, recording the outcome
// regardless of success or failure. It returns ErrCircuitOpen without
// invoking fn when the breaker rejects the call.
func (b *Breaker) Execute(fn func() error) error {
	if !b.Allow() {
		return errors.ErrCircuitOpen.WithDetails("state", string(b.State())).WithDetails("healthScore", b.HealthScore())
	}
	err := fn()
	b.RecordOutcome(err == nil)
	return err
}

// RecordOutcome updates counters, possibly transitions state, and
// recomputes the health score. Callers that bypass Execute (e.g. to
// record an outcome for a call made outside the breaker) use this
// directly.
func (b *Breaker) RecordOutcome(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.outcomes = append(b.outcomes, outcome{at: now, success: success})
	b.pruneOutcomes(now)

	if success {
		b.consecutiveSuccess++
		b.consecutiveFailure = 0
	} else {
		b.consecutiveFailure++
		b.consecutiveSuccess = 0
	}

	switch b.state {
	case Closed:
		// The failure-rate rule applies only once the window holds at
		// least FailureThreshold outcomes.
		if b.consecutiveFailure >= b.cfg.FailureThreshold ||
			(len(b.outcomes) >= b.cfg.FailureThreshold && b.failureRate() >= b.cfg.FailureRateThreshold) {
			b.transitionTo(Open, now)
		}
	case HalfOpen:
		if b.halfOpenInFlight > 0 {
			b.halfOpenInFlight--
		}
		if !success {
			b.transitionTo(Open, now)
		} else {
			b.halfOpenSuccess++
			if b.halfOpenSuccess >= b.cfg.SuccessThreshold {
				b.transitionTo(Closed, now)
			}
		}
	}

	b.recomputeHealthScore()
}

// State returns the breaker's current state, applying any pending
// timeout-driven transition (OPEN -> HALF_OPEN or HALF_OPEN -> OPEN)
// first.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionFromOpen()
	b.maybeTransitionFromHalfOpen()
	return b.state
}

// HealthScore returns the last computed health score in [0,1].
func (b *Breaker) HealthScore() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.healthScore
}

func (b *Breaker) maybeTransitionFromOpen() {
	if b.state != Open {
		return
	}
	now := time.Now()
	if now.Sub(b.stateChangedAt) >= b.cfg.OpenTimeout {
		b.transitionTo(HalfOpen, now)
	}
}

// maybeTransitionFromHalfOpen reopens the breaker once halfOpenTimeout
// has elapsed without resolving to CLOSED (via successThreshold) or
// back to OPEN (via a failure) — a trial that never completes does not
// stay HALF_OPEN forever.
func (b *Breaker) maybeTransitionFromHalfOpen() {
	if b.state != HalfOpen {
		return
	}
	now := time.Now()
	if now.Sub(b.stateChangedAt) >= b.cfg.HalfOpenTimeout {
		b.transitionTo(Open, now)
	}
}

func (b *Breaker) transitionTo(s State, at time.Time) {
	b.state = s
	b.stateChangedAt = at
	if s == HalfOpen {
		b.halfOpenInFlight = 0
		b.halfOpenSuccess = 0
	}
}

func (b *Breaker) pruneOutcomes(now time.Time) {
	cutoff := now.Add(-b.cfg.RollingWindow)
	i := 0
	for ; i < len(b.outcomes); i++ {
		if b.outcomes[i].at.After(cutoff) {
			break
		}
	}
	b.outcomes = b.outcomes[i:]
}

func (b *Breaker) failureRate() float64 {
	if len(b.outcomes) == 0 {
		return 0
	}
	failures := 0
	for _, o := range b.outcomes {
		if !o.success {
			failures++
		}
	}
	return float64(failures) / float64(len(b.outcomes))
}

func (b *Breaker) successRate() float64 {
	if len(b.outcomes) == 0 {
		return 1
	}
	return 1 - b.failureRate()
}

func (b *Breaker) stateWeight() float64 {
	switch b.state {
	case Closed:
		return 1.0
	case HalfOpen:
		return 0.5
	default:
		return 0.0
	}
}

// recomputeHealthScore applies the weighted formula:
// 0.5*state_weight + 0.3*successRate + 0.1*min(consecutiveSuccess/10,1)
// - 0.1*min(consecutiveFailures/5,1), clamped to [0,1].
func (b *Breaker) recomputeHealthScore() {
	score := 0.5*b.stateWeight() + 0.3*b.successRate() +
		0.1*minF(float64(b.consecutiveSuccess)/10, 1) -
		0.1*minF(float64(b.consecutiveFailure)/5, 1)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	b.healthScore = score
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

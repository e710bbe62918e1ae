package checker

import (
	"sync"
	"time"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

// BreakerState represents the state of a per-platform circuit breaker.
type BreakerState string

const (
	BreakerClosed   BreakerState = "CLOSED"    // Normal operation
	BreakerOpen     BreakerState = "OPEN"      // Platform failing, skipping fetches
	BreakerHalfOpen BreakerState = "HALF_OPEN" // Probing whether the platform recovered
)

// platformBreaker trips after consecutive network failures against one
// platform and short-circuits further fetches until a cooldown elapses. Parse
// and validation failures never count: they say nothing about the platform's
// availability.
type platformBreaker struct {
	platform  models.Platform
	threshold int
	cooldown  time.Duration

	mu           sync.Mutex
	state        BreakerState
	failures     int
	lastFailure  time.Time
	lastTransit  time.Time
	totalTripped int64
}

func newPlatformBreaker(platform models.Platform, threshold int, cooldown time.Duration) *platformBreaker {
	return &platformBreaker{
		platform:    platform,
		threshold:   threshold,
		cooldown:    cooldown,
		state:       BreakerClosed,
		lastTransit: time.Now(),
	}
}

// Allow reports whether a fetch against the platform may proceed. While open
// it moves to half-open once the cooldown has passed, letting a single probe
// through.
func (b *platformBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if time.Since(b.lastFailure) > b.cooldown {
			b.transitionTo(BreakerHalfOpen)
			return nil
		}
		return apperrors.ErrCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess closes the breaker and clears the failure streak.
func (b *platformBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.transitionTo(BreakerClosed)
	case BreakerClosed:
		b.failures = 0
	}
}

// RecordFailure counts a network failure; a streak at the threshold opens the
// breaker, and any failure while half-open reopens it immediately.
func (b *platformBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.transitionTo(BreakerOpen)
			b.totalTripped++
		}
	case BreakerHalfOpen:
		b.transitionTo(BreakerOpen)
		b.totalTripped++
	}
}

func (b *platformBreaker) transitionTo(state BreakerState) {
	b.state = state
	b.lastTransit = time.Now()
	b.failures = 0
}

// State returns the current breaker state.
func (b *platformBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// breakerSet lazily creates one breaker per platform.
type breakerSet struct {
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	breakers map[models.Platform]*platformBreaker
}

func newBreakerSet(threshold int, cooldown time.Duration) *breakerSet {
	return &breakerSet{
		threshold: threshold,
		cooldown:  cooldown,
		breakers:  make(map[models.Platform]*platformBreaker),
	}
}

func (s *breakerSet) get(platform models.Platform) *platformBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[platform]
	if !ok {
		b = newPlatformBreaker(platform, s.threshold, s.cooldown)
		s.breakers[platform] = b
	}
	return b
}

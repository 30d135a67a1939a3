// Package circuit implements a small consecutive-failure circuit breaker.
// When the wrapped dependency keeps failing the circuit opens and calls are
// short-circuited until the cooldown elapses, at which point one probe is let
// through.
package circuit

import (
	"sync"
	"time"
)

// Breaker tracks consecutive failures against a threshold.
type Breaker struct {
	mu sync.Mutex

	name      string
	threshold int
	cooldown  time.Duration

	failures  int
	openUntil time.Time
	isOpen    bool
}

// New creates a breaker. threshold is the number of consecutive failures that
// opens the circuit; cooldown is how long it stays open.
func New(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// Name returns the breaker's label for logs and metrics.
func (b *Breaker) Name() string { return b.name }

// Allow reports whether a call may proceed. An expired cooldown transitions
// the breaker to half-open and lets one probe through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isOpen {
		return true
	}
	if time.Now().After(b.openUntil) {
		b.isOpen = false
		b.failures = 0
		return true
	}
	return false
}

// RecordSuccess closes the circuit and clears the failure streak.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.isOpen = false
}

// RecordFailure counts one failure. It returns true when this failure opened
// the circuit, so callers can log the transition exactly once.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.isOpen || b.failures < b.threshold {
		return false
	}
	b.isOpen = true
	b.openUntil = time.Now().Add(b.cooldown)
	return true
}

// IsOpen reports the current state without mutating it.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isOpen
}

package ops

import (
	"sync"
	"time"
)

// CircuitBreaker stops audit appends while the store is failing, so a Kafka
// outage costs one failed produce per cooldown instead of one per request.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration
	now       func() time.Time

	failures  int
	openUntil time.Time
	trial     bool
}

// NewCircuitBreaker opens after threshold consecutive failures and stays open
// for cooldown. Non-positive values fall back to 5 and one minute.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether an append may be attempted. Once the cooldown has
// passed the circuit is half-open: exactly one trial call is let through and
// its result decides whether it closes or re-opens. Other callers are refused
// until that result is recorded.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.failures < cb.threshold {
		return true
	}
	if cb.trial || !cb.now().After(cb.openUntil) {
		return false
	}
	cb.trial = true
	return true
}

// RecordSuccess closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.trial = false
}

// RecordFailure counts a failure and opens the circuit at the threshold. A
// failed half-open trial re-opens it for another cooldown.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.trial = false
	if cb.failures >= cb.threshold {
		cb.openUntil = cb.now().Add(cb.cooldown)
	}
}

// IsOpen reports whether appends are currently being refused.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures >= cb.threshold && !cb.now().After(cb.openUntil)
}

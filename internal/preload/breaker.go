package preload

import (
	"sync"
	"time"
)

// DefaultFailureThreshold is the number of consecutive failed fetch
// attempts that trips the breaker when no threshold is configured.
const DefaultFailureThreshold = 3

// Breaker is the circuit breaker guarding preload fetches. Consecutive
// failures accumulate within a single run; reaching the threshold
// disables preloading until Enable is called. There is no timed
// recovery.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	failures  int
	disabled  bool
	trippedAt time.Time
}

// NewBreaker returns a closed breaker with the given threshold. A
// threshold below 1 falls back to DefaultFailureThreshold.
func NewBreaker(threshold int) *Breaker {
	if threshold < 1 {
		threshold = DefaultFailureThreshold
	}
	return &Breaker{threshold: threshold}
}

// Allowed reports whether preloading may run.
func (b *Breaker) Allowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.disabled
}

// BeginRun zeroes the failure counter. Failures count against the
// threshold within one run only, never across runs.
func (b *Breaker) BeginRun() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// RecordFailure counts one failed fetch attempt and reports whether it
// tripped the breaker open.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if !b.disabled && b.failures >= b.threshold {
		b.disabled = true
		b.trippedAt = time.Now()
		return true
	}
	return false
}

// RecordSuccess resets the consecutive failure counter.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Enable closes the breaker and clears the counter. Together with a
// forced run this is the only path out of the disabled state.
func (b *Breaker) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disabled = false
	b.failures = 0
	b.trippedAt = time.Time{}
}

// Disable opens the breaker immediately. Unlike a failure trip it
// leaves no trip time, which is how status output and the doctor tell
// a manual disable apart from a tripped breaker.
func (b *Breaker) Disable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disabled = true
}

// Status is a snapshot of the breaker.
type Status struct {
	Disabled  bool
	Failures  int
	Threshold int
	TrippedAt time.Time
}

// Status returns the current breaker state.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Disabled:  b.disabled,
		Failures:  b.failures,
		Threshold: b.threshold,
		TrippedAt: b.trippedAt,
	}
}

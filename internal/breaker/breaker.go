// Package breaker implements the three-state circuit breaker that guards
// the chunker's execution path, grounded on the Closed/Open/HalfOpen shape
// of a mutex-protected breaker but adapted to the exponential-backoff reset
// formula and single-probe HalfOpen admission spec.md §4.5 requires.
package breaker

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is one of the three circuit states.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns the lower-case state name used in logs and metrics.
func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

const maxBackoff = 60 * time.Second

// Breaker is safe for concurrent use. [Breaker.IsOpen] never blocks: it
// only performs atomic loads and, on an expired Open window, a single CAS.
type Breaker struct {
	state         atomic.Int32
	resetAtNano   atomic.Int64
	probeAdmitted atomic.Bool

	mu           sync.Mutex
	failureCount int
	successCount int
}

// New creates a Breaker starting Closed.
func New() *Breaker {
	return &Breaker{}
}

// State returns the current state without blocking.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// IsOpen reports whether execution should be rejected right now. Calling it
// while in an expired Open window performs the Open→HalfOpen transition and
// admits the caller as the single HalfOpen probe.
func (b *Breaker) IsOpen() bool {
	switch State(b.state.Load()) {
	case Closed:
		return false
	case HalfOpen:
		return !b.probeAdmitted.CompareAndSwap(false, true)
	case Open:
		if time.Now().UnixNano() < b.resetAtNano.Load() {
			return true
		}

		if b.state.CompareAndSwap(int32(Open), int32(HalfOpen)) {
			b.probeAdmitted.Store(true) // the caller that flipped the state IS the probe

			return false
		}
		// Another goroutine already flipped it; fall through to the
		// HalfOpen admission check.
		return !b.probeAdmitted.CompareAndSwap(false, true)
	default:
		return true
	}
}

// RecordSuccess reports a successful chunker execution. In HalfOpen this
// closes the circuit and resets the counters; in Closed it simply tracks
// the running success count used by the error_count > success_count rule.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch State(b.state.Load()) {
	case HalfOpen:
		b.closeLocked()
	case Closed:
		b.successCount++
	}
}

// RecordFailure reports a failed chunker execution. criticalPressure should
// be true when the constraint ladder's last reading was Critical — that
// alone is sufficient grounds to trip the breaker per spec.md §4.5.
func (b *Breaker) RecordFailure(criticalPressure bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch State(b.state.Load()) {
	case HalfOpen:
		b.failureCount++
		b.openLocked()
	case Closed:
		b.failureCount++
		if b.failureCount > b.successCount || criticalPressure {
			b.openLocked()
		}
	}
}

// openLocked transitions to Open and sets the exponential-backoff reset
// window. Callers must hold mu.
func (b *Breaker) openLocked() {
	backoff := backoffFor(b.failureCount)
	b.resetAtNano.Store(time.Now().Add(backoff).UnixNano())
	b.probeAdmitted.Store(false)
	b.state.Store(int32(Open))
}

// closeLocked transitions to Closed and resets the failure/success tally.
// Callers must hold mu.
func (b *Breaker) closeLocked() {
	b.failureCount = 0
	b.successCount = 0
	b.state.Store(int32(Closed))
}

// backoffFor implements reset_at = min(60s, 2^min(failures,6)) from
// spec.md §3.
func backoffFor(failureCount int) time.Duration {
	exp := failureCount
	if exp > 6 {
		exp = 6
	}

	if exp < 0 {
		exp = 0
	}

	seconds := time.Duration(1 << uint(exp)) * time.Second
	if seconds > maxBackoff {
		return maxBackoff
	}

	return seconds
}

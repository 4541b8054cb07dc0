package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_StartsClosed(t *testing.T) {
	t.Parallel()

	b := New()
	assert.Equal(t, Closed, b.State())
	assert.False(t, b.IsOpen())
}

func TestBreaker_OpensWhenFailuresExceedSuccesses(t *testing.T) {
	t.Parallel()

	b := New()
	b.RecordSuccess()
	b.RecordFailure(false)
	assert.Equal(t, Closed, b.State(), "1 failure == 1 success should not trip yet")

	b.RecordFailure(false)
	assert.Equal(t, Open, b.State())
	assert.True(t, b.IsOpen())
}

func TestBreaker_CriticalPressureTripsImmediately(t *testing.T) {
	t.Parallel()

	b := New()
	b.RecordFailure(true)
	assert.Equal(t, Open, b.State())
}

func TestBreaker_TransitionsToHalfOpenAfterBackoff(t *testing.T) {
	t.Parallel()

	b := New()
	b.RecordFailure(true) // failureCount=1 -> backoff 2s
	b.resetAtNano.Store(time.Now().Add(-time.Millisecond).UnixNano())

	assert.False(t, b.IsOpen())
	assert.Equal(t, HalfOpen, b.State())
}

func TestBreaker_HalfOpenAdmitsExactlyOneProbe(t *testing.T) {
	t.Parallel()

	b := New()
	b.RecordFailure(true)
	b.resetAtNano.Store(time.Now().Add(-time.Millisecond).UnixNano())

	first := b.IsOpen() // flips to HalfOpen, admits this caller
	second := b.IsOpen()

	assert.False(t, first)
	assert.True(t, second, "a second concurrent probe must be rejected")
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	t.Parallel()

	b := New()
	b.RecordFailure(true)
	b.resetAtNano.Store(time.Now().Add(-time.Millisecond).UnixNano())
	b.IsOpen() // transitions to HalfOpen

	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
	assert.False(t, b.IsOpen())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	b := New()
	b.RecordFailure(true)
	b.resetAtNano.Store(time.Now().Add(-time.Millisecond).UnixNano())
	b.IsOpen() // transitions to HalfOpen

	b.RecordFailure(false)
	assert.Equal(t, Open, b.State())
}

func TestBackoffFor_ExponentialUpToCap(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1*time.Second, backoffFor(0))
	assert.Equal(t, 2*time.Second, backoffFor(1))
	assert.Equal(t, 4*time.Second, backoffFor(2))
	assert.Equal(t, maxBackoff, backoffFor(6)) // 2^6=64s clamps to the 60s cap
	assert.Equal(t, maxBackoff, backoffFor(20))
}

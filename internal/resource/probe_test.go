package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsInterval(t *testing.T) {
	t.Parallel()

	p := New(0, nil)
	assert.Equal(t, DefaultInterval, p.interval)
}

func TestProbe_SnapshotCaches(t *testing.T) {
	t.Parallel()

	p := New(200*time.Millisecond, nil)

	first := p.Snapshot()
	second := p.Snapshot()

	assert.Equal(t, first.TakenAt, second.TakenAt, "second call within interval/2 should reuse the cache")
}

func TestProbe_SnapshotRefreshesAfterInterval(t *testing.T) {
	t.Parallel()

	p := New(20*time.Millisecond, nil)

	first := p.Snapshot()
	time.Sleep(30 * time.Millisecond)
	second := p.Snapshot()

	assert.True(t, second.TakenAt.After(first.TakenAt))
}

func TestProbe_AppliesCloudHint(t *testing.T) {
	t.Parallel()

	p := New(time.Millisecond, func() bool { return true })
	time.Sleep(2 * time.Millisecond)

	snap := p.Snapshot()
	assert.True(t, snap.IsSpotInstance)
}

func TestProbe_NeverReturnsZeroLogicalCores(t *testing.T) {
	t.Parallel()

	p := New(time.Millisecond, nil)
	snap := p.Snapshot()
	assert.Positive(t, snap.LogicalCores)
}

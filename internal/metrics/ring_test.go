package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_PushWithinCapacity(t *testing.T) {
	t.Parallel()

	r := NewRing[int](3)
	r.Push(1)
	r.Push(2)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []int{1, 2}, r.Values())
}

func TestRing_EvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	r := NewRing[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Push(4)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{2, 3, 4}, r.Values())
}

func TestRing_TruncateToFractionKeepsMostRecent(t *testing.T) {
	t.Parallel()

	r := NewRing[int](10)
	for i := 1; i <= 10; i++ {
		r.Push(i)
	}

	r.TruncateToFraction(0.2)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []int{9, 10}, r.Values())
}

func TestRing_TruncateToFractionNoOpWhenEmpty(t *testing.T) {
	t.Parallel()

	r := NewRing[string](5)
	r.TruncateToFraction(0.2)
	assert.Equal(t, 0, r.Len())
}

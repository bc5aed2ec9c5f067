package arena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newTestRack(t *testing.T) *Rack[int] {
	t.Helper()
	return NewRack[int](3, rand.New(rand.NewSource(1)))
}

func TestAllocAndGetRoundTrip(t *testing.T) {
	r := newTestRack(t)
	idx := r.Alloc(42)
	assert.Equal(t, 42, r.Get(idx))
}

func TestRentShelfAppend(t *testing.T) {
	r := newTestRack(t)
	ref := r.RentShelf()
	idx := ref.Append(7)
	ref.Release()
	assert.Equal(t, 7, r.Get(idx))
}

func TestRentShelfAppendRange(t *testing.T) {
	r := newTestRack(t)
	ref := r.RentShelf()
	rng := ref.AppendRange([]int{1, 2, 3})
	ref.Release()

	got := r.GetRange(rng)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 3, rng.Len())
}

func TestLenSumsAcrossShelves(t *testing.T) {
	r := newTestRack(t)
	for i := 0; i < 10; i++ {
		r.Alloc(i)
	}
	require.Equal(t, 10, r.Len())
}

func TestModifyMutatesInPlace(t *testing.T) {
	r := newTestRack(t)
	idx := r.Alloc(1)
	r.Modify(idx, func(v *int) { *v += 100 })
	assert.Equal(t, 101, r.Get(idx))
}

func TestIndicesFromDistinctAllocsAreDistinct(t *testing.T) {
	r := newTestRack(t)
	seen := make(map[Index]bool)
	for i := 0; i < 50; i++ {
		idx := r.Alloc(i)
		assert.False(t, seen[idx])
		seen[idx] = true
	}
}

func TestNewRackClampsNumShelves(t *testing.T) {
	r := NewRack[int](0, rand.New(rand.NewSource(1)))
	assert.Equal(t, 1, r.NumShelves())
}

func TestShelfRefLenTracksAppends(t *testing.T) {
	r := newTestRack(t)
	ref := r.RentShelf()
	ref.Append(1)
	ref.Append(2)
	assert.Equal(t, 2, ref.Len())
	ref.Release()
}

func TestLockTimeoutIsBounded(t *testing.T) {
	assert.LessOrEqual(t, lockTimeout, 5*time.Second)
}

// Package arena implements the Rack/Shelf append-only allocator: a fixed
// number of independently-locked shelves, each an append-only slice of T,
// addressed by a stable {shelf, slot} index that survives reallocation of
// every other shelf. It is the storage backbone for a generation's node
// and action arrays: every caller gets a handle instead of a pointer, so
// the underlying slice can grow without invalidating anyone else's
// reference.
package arena

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/rand"
)

// lockTimeout bounds how long a caller waits for a shelf's lock before the
// rack gives up and reports it as stuck. A legitimate hold should never
// approach this; hitting it means a caller is holding a ShelfRef across a
// blocking call, which is a bug at the call site, not here.
const lockTimeout = time.Second

// Index addresses a single item in a Rack.
type Index struct {
	Shelf int
	Slot  int
}

// String renders an Index for diagnostics and panic/error messages.
func (idx Index) String() string {
	return fmt.Sprintf("{shelf:%d slot:%d}", idx.Shelf, idx.Slot)
}

// IndexRange addresses a contiguous run of items on a single shelf, used to
// store a node's children as one allocation so they stay adjacent.
type IndexRange struct {
	Shelf      int
	Start, End int
}

// Len reports how many items the range spans.
func (r IndexRange) Len() int { return r.End - r.Start }

// shelf is one append-only slice guarded by a bounded-wait mutex.
type shelf[T any] struct {
	mu   chan struct{} // 1-buffered: held <=> empty
	data []T
}

func newShelf[T any]() *shelf[T] {
	s := &shelf[T]{mu: make(chan struct{}, 1)}
	s.mu <- struct{}{}
	return s
}

// lock acquires the shelf within lockTimeout, panicking with the
// operation name and shelf index if it can't: a stuck shelf lock means a
// caller somewhere is holding a ShelfRef across a blocking operation,
// which needs fixing at the call site, not papering over here.
func (s *shelf[T]) lock(op string, shelfIdx int) {
	select {
	case <-s.mu:
	case <-time.After(lockTimeout):
		panic(fmt.Sprintf("arena: %s timed out waiting for shelf %d after %s", op, shelfIdx, lockTimeout))
	}
}

func (s *shelf[T]) tryLock() bool {
	select {
	case <-s.mu:
		return true
	case <-time.After(lockTimeout):
		return false
	}
}

func (s *shelf[T]) unlock() { s.mu <- struct{}{} }

// Rack is a sharded append-only allocator for items of type T.
type Rack[T any] struct {
	shelves []*shelf[T]
	rngMu   sync.Mutex
	rng     *rand.Rand
}

// NewRack builds a Rack with the given number of shelves, sharding future
// allocations across them to spread lock contention. rng is shared and
// accessed under Rack's own lock, so the same source may be passed to
// multiple Racks.
func NewRack[T any](numShelves int, rng *rand.Rand) *Rack[T] {
	if numShelves < 1 {
		numShelves = 1
	}
	shelves := make([]*shelf[T], numShelves)
	for i := range shelves {
		shelves[i] = newShelf[T]()
	}
	return &Rack[T]{shelves: shelves, rng: rng}
}

// randShelf picks a pseudo-random shelf index. rand.Rand is not safe for
// concurrent use on its own, so every draw goes through rngMu.
func (r *Rack[T]) randShelf() int {
	r.rngMu.Lock()
	n := r.rng.Intn(len(r.shelves))
	r.rngMu.Unlock()
	return n
}

// Alloc appends a single item to a pseudo-randomly chosen shelf and
// returns its index.
func (r *Rack[T]) Alloc(item T) Index {
	n := r.randShelf()
	s := r.shelves[n]
	s.lock("Rack.Alloc", n)
	defer s.unlock()
	s.data = append(s.data, item)
	return Index{Shelf: n, Slot: len(s.data) - 1}
}

// ShelfRef is a rented, locked shelf: a caller uses it to append one or
// more items without re-shopping for a shelf (and paying its lock) per
// item, then must call Release exactly once.
type ShelfRef[T any] struct {
	rack  *Rack[T]
	idx   int
	shelf *shelf[T]
}

// RentShelf locks a pseudo-randomly chosen shelf and returns a handle for
// appending to it. The caller must call Release when done; holding a
// ShelfRef across an unrelated blocking call risks tripping another
// caller's lockTimeout.
func (r *Rack[T]) RentShelf() ShelfRef[T] {
	n := r.randShelf()
	s := r.shelves[n]
	s.lock("Rack.RentShelf", n)
	return ShelfRef[T]{rack: r, idx: n, shelf: s}
}

// Release unlocks the rented shelf.
func (h ShelfRef[T]) Release() { h.shelf.unlock() }

// Append adds item to the rented shelf and returns its index.
func (h ShelfRef[T]) Append(item T) Index {
	h.shelf.data = append(h.shelf.data, item)
	return Index{Shelf: h.idx, Slot: len(h.shelf.data) - 1}
}

// AppendRange adds every item in items to the rented shelf as one
// contiguous run and returns the range covering it.
func (h ShelfRef[T]) AppendRange(items []T) IndexRange {
	start := len(h.shelf.data)
	h.shelf.data = append(h.shelf.data, items...)
	return IndexRange{Shelf: h.idx, Start: start, End: len(h.shelf.data)}
}

// Len reports how many items are currently on the rented shelf.
func (h ShelfRef[T]) Len() int { return len(h.shelf.data) }

// At returns a copy of the item at slot within the rented shelf.
func (h ShelfRef[T]) At(slot int) T { return h.shelf.data[slot] }

// Modify applies f to the item at slot within the rented shelf in place.
func (h ShelfRef[T]) Modify(slot int, f func(*T)) { f(&h.shelf.data[slot]) }

// Get returns a copy of the item at idx, locking (and releasing) its
// shelf for the duration of the read.
func (r *Rack[T]) Get(idx Index) T {
	s := r.shelves[idx.Shelf]
	s.lock("Rack.Get", idx.Shelf)
	defer s.unlock()
	return s.data[idx.Slot]
}

// Modify applies f to the item at idx in place, under that shelf's lock.
func (r *Rack[T]) Modify(idx Index, f func(*T)) {
	s := r.shelves[idx.Shelf]
	s.lock("Rack.Modify", idx.Shelf)
	defer s.unlock()
	f(&s.data[idx.Slot])
}

// GetRange returns a copy of the items in rng.
func (r *Rack[T]) GetRange(rng IndexRange) []T {
	s := r.shelves[rng.Shelf]
	s.lock("Rack.GetRange", rng.Shelf)
	defer s.unlock()
	out := make([]T, rng.Len())
	copy(out, s.data[rng.Start:rng.End])
	return out
}

// ModifyRange locks rng's shelf once and hands f the live sub-slice to
// mutate in place (including reordering it), such as backprop's
// recompute-then-sort pass over one node's children.
func (r *Rack[T]) ModifyRange(rng IndexRange, f func([]T)) {
	s := r.shelves[rng.Shelf]
	s.lock("Rack.ModifyRange", rng.Shelf)
	defer s.unlock()
	f(s.data[rng.Start:rng.End])
}

// Len reports the total number of items stored across every shelf. If any
// shelf's lock can't be acquired within lockTimeout, the shelf-timeout
// errors are aggregated and the rack considers that fatal: a partial count
// would silently understate occupancy, which is worse than stopping.
func (r *Rack[T]) Len() int {
	var total int
	var errs *multierror.Error
	for i, s := range r.shelves {
		if !s.tryLock() {
			errs = multierror.Append(errs, fmt.Errorf("shelf %d: Rack.Len timed out after %s", i, lockTimeout))
			continue
		}
		total += len(s.data)
		s.unlock()
	}
	if errs != nil {
		log.Fatal(errs)
	}
	return total
}

// NumShelves reports how many shelves the rack was built with.
func (r *Rack[T]) NumShelves() int { return len(r.shelves) }

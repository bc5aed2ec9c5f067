package search

import "sync"

// numMapShards is the shard count for the transposition lookup and
// back-edge maps. Independent shards mean independent locks, so unrelated
// keys never contend.
const numMapShards = 16

type mapShard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// shardedMap is a concurrent map partitioned into fixed buckets by a
// caller-supplied hash, giving per-bucket locking instead of one lock for
// the whole map.
type shardedMap[K comparable, V any] struct {
	hash   func(K) uint64
	shards [numMapShards]*mapShard[K, V]
}

func newShardedMap[K comparable, V any](hash func(K) uint64) *shardedMap[K, V] {
	sm := &shardedMap[K, V]{hash: hash}
	for i := range sm.shards {
		sm.shards[i] = &mapShard[K, V]{m: make(map[K]V)}
	}
	return sm
}

func (sm *shardedMap[K, V]) shardFor(k K) *mapShard[K, V] {
	return sm.shards[sm.hash(k)%numMapShards]
}

// Load returns the value stored for k, if any.
func (sm *shardedMap[K, V]) Load(k K) (V, bool) {
	s := sm.shardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	return v, ok
}

// LoadOrStore returns the existing value for k, or stores and returns
// build()'s result if none exists. build runs under the shard's write
// lock: it must be cheap and must not touch this map.
func (sm *shardedMap[K, V]) LoadOrStore(k K, build func() V) (V, bool) {
	s := sm.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.m[k]; ok {
		return v, true
	}
	v := build()
	s.m[k] = v
	return v, false
}

// Update mutates the value stored for k (defaulting to zero if absent)
// with mutate, storing the result.
func (sm *shardedMap[K, V]) Update(k K, zero V, mutate func(V) V) {
	s := sm.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.m[k]
	if !ok {
		cur = zero
	}
	s.m[k] = mutate(cur)
}

// Len reports the total number of entries across every shard.
func (sm *shardedMap[K, V]) Len() int {
	var n int
	for _, s := range sm.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

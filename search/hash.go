package search

import (
	"github.com/corvus-bot/corvus/arena"
	"github.com/corvus-bot/corvus/rules"
)

// FNV-1a 64-bit, folded by hand over each key's fields since StateKey and
// arena.Index aren't hashable by the standard library's map implementation
// in a way we can borrow directly.
const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func fnvMix(h uint64, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= v & 0xff
		h *= fnvPrime
		v >>= 8
	}
	return h
}

func hashStateKey(k rules.StateKey) uint64 {
	h := uint64(fnvOffset)
	for _, col := range k.Board {
		h = fnvMix(h, col)
	}
	h = fnvMix(h, uint64(k.Bag))
	hold := uint64(0)
	if k.Hold.Present {
		hold = uint64(k.Hold.Kind) + 1
	}
	h = fnvMix(h, hold)
	h = fnvMix(h, uint64(int64(k.Ren)))
	if k.B2B {
		h = fnvMix(h, 1)
	}
	return h
}

func hashIndex(idx arena.Index) uint64 {
	h := uint64(fnvOffset)
	h = fnvMix(h, uint64(idx.Shelf))
	h = fnvMix(h, uint64(idx.Slot))
	return h
}

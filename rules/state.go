package rules

// OptKind is an optional PieceKind, used for the hold slot.
type OptKind struct {
	Kind    PieceKind
	Present bool
}

// NoKind is the empty hold slot.
var NoKind = OptKind{}

// SomeKind wraps a present kind.
func SomeKind(k PieceKind) OptKind { return OptKind{Kind: k, Present: true} }

// GameState is the full mutable state of one playfield: board, hold slot,
// upcoming queue, bag, and the combo/back-to-back bookkeeping needed to
// score the next placement.
type GameState struct {
	Board Board
	Hold  OptKind
	Queue []PieceKind
	Bag   SevenBag
	B2B   bool
	Ren   int // -1 means no combo in progress
}

// NewGameState builds a state from the given board, queue (copied), hold
// slot, bag (as reported by the host), back-to-back flag and combo counter
// (-1 for no combo).
func NewGameState(board Board, queue []PieceKind, hold OptKind, bag SevenBag, b2b bool, ren int) GameState {
	q := make([]PieceKind, len(queue))
	copy(q, queue)
	return GameState{Board: board, Hold: hold, Queue: q, Bag: bag, B2B: b2b, Ren: ren}
}

// Clone returns a deep-enough copy for a search replica: Board and Hold are
// value types already, only Queue needs its own backing array.
func (s GameState) Clone() GameState {
	q := make([]PieceKind, len(s.Queue))
	copy(q, s.Queue)
	s.Queue = q
	return s
}

// StateKey is the transposition-lookup key for a state inside a single
// generation. It deliberately excludes the queue and the piece in hand:
// those are encoded by which generation the node lives in.
type StateKey struct {
	Board Board
	Bag   SevenBag
	Hold  OptKind
	Ren   int
	B2B   bool
}

// Key computes the transposition-lookup key for this state.
func (s GameState) Key() StateKey {
	return StateKey{Board: s.Board, Bag: s.Bag, Hold: s.Hold, Ren: s.Ren, B2B: s.B2B}
}

package eval

import "github.com/corvus-bot/corvus/rules"

// weights tunes how each measured feature contributes to the safety and
// power components of an Accumulator. Negative weights penalize, positive
// weights reward.
type weights struct {
	wellDepth      float32
	bumpiness      float32
	bumpinessSq    float32
	maxDiff        float32
	cavities       float32
	cavitiesSq     float32
	overhangs      float32
	overhangsSq    float32
	covered        float32
	rowTransitions float32
	heightAbove10  float32
	heightAbove15  float32
	tetrisWell     float32
}

var defaultWeights = weights{
	wellDepth:      0.4,
	bumpiness:      -0.18,
	bumpinessSq:    -0.025,
	maxDiff:        -0.3,
	cavities:       -0.6,
	cavitiesSq:     -0.1,
	overhangs:      -0.4,
	overhangsSq:    -0.08,
	covered:        -0.2,
	rowTransitions: -0.15,
	heightAbove10:  -0.5,
	heightAbove15:  -1.2,
	tetrisWell:     0.9,
}

// tetrisWellCol is the well column that earns the tetris-well bonus: kept
// clear and deep, it primes an I-piece tetris.
const tetrisWellCol = rules.Cols - 1

// tetrisWellMinDepth is the minimum depth the tetris well must reach before
// the bonus applies.
const tetrisWellMinDepth = 4

// rowsAbove10 and rowsAbove15 express spec's "above row 10"/"above row 15"
// thresholds in this board's row numbering, where row 0 is the ceiling and
// the floor sits at MaxRow: a column height of h occupies rows
// [MaxRow-h, MaxRow), so "above row N" (N counted up from the floor) means
// height exceeding N.
const (
	rowsAbove10 = 10
	rowsAbove15 = 15
)

// Evaluator is the stateless board/move scorer. The zero value is usable
// and uses defaultWeights.
type Evaluator struct {
	w weights
}

// NewEvaluator builds an Evaluator with the default hand-tuned weights.
func NewEvaluator() Evaluator {
	return Evaluator{w: defaultWeights}
}

// EvaluateState maps a board to an Accumulator. It never looks at queue,
// hold, or combo state: those only matter to EvaluateMove.
func (e Evaluator) EvaluateState(s rules.GameState) Accumulator {
	w := e.w
	if w == (weights{}) {
		w = defaultWeights
	}
	f := extract(s.Board)

	var safety float32
	safety += w.bumpiness * f.bumpiness
	safety += w.bumpinessSq * f.bumpinessSq
	safety += w.maxDiff * float32(f.maxDiff)
	safety += w.cavities * float32(f.cavities)
	safety += w.cavitiesSq * float32(f.cavitiesSq)
	safety += w.overhangs * float32(f.overhangs)
	safety += w.overhangsSq * float32(f.overhangsSq)
	safety += w.covered * float32(f.covered)
	safety += w.rowTransitions * float32(f.rowTransitions)

	for c := 0; c < rules.Cols; c++ {
		h := f.heights[c]
		if h > rowsAbove10 {
			safety += w.heightAbove10 * float32(h-rowsAbove10)
		}
		if h > rowsAbove15 {
			safety += w.heightAbove15 * float32(h-rowsAbove15)
		}
	}

	var power float32
	power += w.wellDepth * float32(f.wellDepth)
	power += wellColumnBonus(w, f)

	return Accumulator{Safety: safety, Power: power}
}

// wellColumnBonus grants the tetris-well bonus only when the well sits in
// the rightmost column and is deep enough to prime an I-piece tetris.
func wellColumnBonus(w weights, f features) float32 {
	if f.well != tetrisWellCol || f.wellDepth < tetrisWellMinDepth {
		return 0
	}
	return w.tetrisWell * float32(f.wellDepth)
}

// EvaluateMove maps a completed placement to its transient reward.
func (e Evaluator) EvaluateMove(mv rules.Move, piece rules.PieceState, result rules.PlacementResult, pre rules.GameState) TransientReward {
	return evaluateMove(mv, piece, result, pre)
}

// Package eval is the stateless evaluator: it maps a board state to an
// Accumulator (a multi-component score) and maps a placement to a
// transient reward and attack value. It knows nothing about search.
package eval

import "github.com/chewxy/math32"

// Accumulator is the multi-component score attached to a search node. It
// is partitioned into a safety component (danger/shape penalties), a
// power component (offensive potential such as a primed well), and a
// placeholder reserved for a future component (e.g. a learned-model
// residual) that this hand-tuned evaluator always leaves at zero.
//
// The zero value is the identity element for Accumulate (accumulating a
// zero TransientReward into it returns it unchanged) and has a SelectScore
// of 0, matching the spec's "default-element accumulator" requirement.
type Accumulator struct {
	Safety      float32
	Power       float32
	Placeholder float32
}

// Accumulate folds a TransientReward into the accumulator, returning a new
// Accumulator for the action that produced it. The reward's eval-delta
// contributes to Power (the state's Safety is left untouched: it is a
// property of the board alone, not of how we got there).
func (a Accumulator) Accumulate(r TransientReward) Accumulator {
	return Accumulator{
		Safety:      a.Safety,
		Power:       a.Power + r.EvalDelta,
		Placeholder: a.Placeholder,
	}
}

// SelectScore collapses the accumulator to the integer score used for
// ordering siblings and weighted sampling.
func (a Accumulator) SelectScore() int64 {
	return int64(math32.Round((a.Safety + a.Power) * scoreScale))
}

// scoreScale fixes the float-to-integer precision used by SelectScore; big
// enough that adjacent evaluator outputs don't collapse to the same score.
const scoreScale = 100

package eval

import "github.com/corvus-bot/corvus/rules"

// TransientReward is the per-move reward folded into a child's accumulator:
// an eval-delta (the placement's immediate shape/clear bonus) and the
// attack it generated.
type TransientReward struct {
	EvalDelta float32
	Attack    int
}

// clearBonus[spin][linesCleared] is the per-spin, per-cleared-lines bonus
// table folded into eval-delta, independent of PlacementResult.Attack's
// garbage-line accounting.
var clearBonus = [3][5]float32{
	rules.NoSpin: {0, 1, 3, 5, 8},
	rules.Mini:   {0, 2, 4, 0, 0},
	rules.Full:   {0, 4, 6, 8, 0},
}

const (
	comboSqWeight  = 0.3
	b2bContinueBon = 1.0
	b2bDestroyPen  = -1.0
	pcBonus        = 10.0
	wastedTPenalty = -1.5
	holdTBonus     = 0.5

	// lockDelayTimingBonus is added to every placement (any non-Hold
	// move); the input path that reached the landing is not examined.
	lockDelayTimingBonus = 0.2

	dangerZoneRow    = 25 // a lock with any cell at or above this row is close enough to the ceiling to risk a death next piece
	dangerMultiplier = 1.5
)

// evaluateMove computes the transient reward for one placement: mv is the
// move played, result is what Place returned, pre is the state before the
// move (used to detect a hold-T and a broken back-to-back streak).
func evaluateMove(mv rules.Move, piece rules.PieceState, result rules.PlacementResult, pre rules.GameState) TransientReward {
	var delta float32

	if !mv.Hold {
		delta += lockDelayTimingBonus
	}

	delta += clearBonus[result.Spin][clampIdx(result.LinesCleared, 4)]

	if result.LinesCleared > 0 && result.Ren > 0 {
		r := float32(result.Ren)
		delta += comboSqWeight * r * r
	}

	if result.IsB2BClear {
		if result.B2BContinued {
			delta += b2bContinueBon
		}
	} else if result.LinesCleared > 0 && pre.B2B {
		delta += b2bDestroyPen
	}

	if result.IsPC {
		delta += pcBonus
	}

	if piece.Pos.Kind == rules.T && result.Spin == rules.NoSpin {
		delta += wastedTPenalty
	}
	if mv.Hold && holdKind(pre, mv) == rules.T {
		delta += holdTBonus
	}

	if nearCeiling(piece) {
		delta *= dangerMultiplier
	}

	return TransientReward{EvalDelta: delta, Attack: result.Attack()}
}

func clampIdx(n, max int) int {
	if n > max {
		return max
	}
	if n < 0 {
		return 0
	}
	return n
}

// holdKind reports which kind ends up in the hold slot after mv, used only
// to detect a hold-T for the hold-T bonus.
func holdKind(pre rules.GameState, mv rules.Move) rules.PieceKind {
	if pre.Hold.Present {
		return pre.Hold.Kind
	}
	return mv.Place.Pos.Kind
}

// nearCeiling reports whether any cell of a locked piece lies at or above
// dangerZoneRow, near the top of the buffer, where a misstep risks a death
// on the next piece. Every column counts the same; the spawn columns get
// no separate check.
func nearCeiling(piece rules.PieceState) bool {
	for _, c := range piece.Pos.Cells() {
		if int(c[1]) <= dangerZoneRow {
			return true
		}
	}
	return false
}

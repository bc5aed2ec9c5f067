package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corvus-bot/corvus/rules"
)

func TestAccumulatorDefaultIsIdentity(t *testing.T) {
	var a Accumulator
	got := a.Accumulate(TransientReward{})
	assert.Equal(t, a, got)
	assert.Equal(t, int64(0), a.SelectScore())
}

func TestAccumulateFoldsEvalDeltaIntoPower(t *testing.T) {
	a := Accumulator{Safety: 2, Power: 1}
	got := a.Accumulate(TransientReward{EvalDelta: 3})
	assert.Equal(t, Accumulator{Safety: 2, Power: 4}, got)
}

func boardWithWell(col int, depth int) rules.Board {
	var b rules.Board
	for c := 0; c < rules.Cols; c++ {
		h := depth
		if c == col {
			h = 0
		}
		for row := rules.MaxRow - h; row < rules.MaxRow; row++ {
			b.Set(c, row)
		}
	}
	return b
}

func TestEvaluateStateFavorsRightmostWell(t *testing.T) {
	e := NewEvaluator()
	right := e.EvaluateState(rules.NewGameState(boardWithWell(9, 4), nil, rules.NoKind, rules.SevenBag(0), false, -1))
	left := e.EvaluateState(rules.NewGameState(boardWithWell(0, 4), nil, rules.NoKind, rules.SevenBag(0), false, -1))
	assert.Greater(t, right.SelectScore(), left.SelectScore())
}

func TestEvaluateStatePenalizesCavities(t *testing.T) {
	e := NewEvaluator()
	var clean rules.Board
	clean.Set(0, rules.MaxRow-1)

	var withHole rules.Board
	withHole.Set(0, rules.MaxRow-1)
	withHole.Set(0, rules.MaxRow-3)

	cleanScore := e.EvaluateState(rules.NewGameState(clean, nil, rules.NoKind, rules.SevenBag(0), false, -1)).SelectScore()
	holeScore := e.EvaluateState(rules.NewGameState(withHole, nil, rules.NoKind, rules.SevenBag(0), false, -1)).SelectScore()
	assert.Greater(t, cleanScore, holeScore)
}

func TestEvaluateMovePerfectClearBonus(t *testing.T) {
	e := NewEvaluator()
	pre := rules.NewGameState(rules.Board{}, nil, rules.NoKind, rules.SevenBag(0), false, -1)
	result := rules.PlacementResult{LinesCleared: 4, Ren: 0, IsB2BClear: true, IsPC: true}
	mv := rules.Move{Place: rules.PieceState{Pos: rules.PiecePosition{Kind: rules.I}}}

	r := e.EvaluateMove(mv, mv.Place, result, pre)
	assert.Greater(t, r.EvalDelta, float32(pcBonus))
}

func TestEvaluateMoveWastedTPenalized(t *testing.T) {
	e := NewEvaluator()
	pre := rules.NewGameState(rules.Board{}, nil, rules.NoKind, rules.SevenBag(0), false, -1)
	tResult := rules.PlacementResult{Spin: rules.NoSpin}
	other := rules.PlacementResult{Spin: rules.NoSpin}

	tMove := rules.PieceState{Pos: rules.PiecePosition{Kind: rules.T}}
	oMove := rules.PieceState{Pos: rules.PiecePosition{Kind: rules.O}}

	tReward := e.EvaluateMove(rules.Move{Place: tMove}, tMove, tResult, pre)
	oReward := e.EvaluateMove(rules.Move{Place: oMove}, oMove, other, pre)
	assert.Less(t, tReward.EvalDelta, oReward.EvalDelta)
}

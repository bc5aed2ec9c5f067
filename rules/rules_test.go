package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSevenBagRefillsWhenEmpty(t *testing.T) {
	var bag SevenBag
	for _, k := range []PieceKind{S, Z, J, L, T, O} {
		bag = bag.Take(k)
	}
	assert.True(t, bag.Has(I), "last kind should still be available")
	bag = bag.Take(I)
	assert.Equal(t, SevenBag(0), bag, "bag should refill to the empty/full representation")
	assert.True(t, bag.Has(S), "bag should have refilled")
}

func TestSevenBagPutRewindsTake(t *testing.T) {
	var bag SevenBag
	bag = bag.Take(T)
	assert.False(t, bag.Has(T))
	bag = bag.Put(T)
	assert.True(t, bag.Has(T))
}

func TestSpawnEmptyBoard(t *testing.T) {
	var b Board
	ps, ok := Spawn(T, b)
	require.True(t, ok)
	assert.Equal(t, int8(spawnRow), ps.Pos.Y)
}

func TestSpawnFallsBackToDeathRowWhenBlocked(t *testing.T) {
	var b Board
	// Block the O piece's lower row at the primary spawn only; the fallback
	// one row higher stays clear.
	for col := 0; col < Cols; col++ {
		b.Set(col, spawnRow+1)
	}
	ps, ok := Spawn(O, b)
	require.True(t, ok)
	assert.Equal(t, int8(deathRow), ps.Pos.Y)
}

func TestSpawnInfeasibleWhenBothRowsBlocked(t *testing.T) {
	var b Board
	for row := spawnRow; row <= deathRow+1; row++ {
		for col := 0; col < Cols; col++ {
			b.Set(col, row)
		}
	}
	_, ok := Spawn(O, b)
	assert.False(t, ok)
}

func TestSonicDropLandsOnFloor(t *testing.T) {
	var b Board
	ps, _ := Spawn(O, b)
	dropped, ok := SonicDrop(ps, b)
	require.True(t, ok)
	for _, c := range dropped.Pos.Cells() {
		assert.True(t, c[1] == 39 || c[1] == 38, "O piece should rest on the floor")
	}
}

func TestSonicDropZeroDistancePreservesSpin(t *testing.T) {
	var b Board
	// Build a surface directly below the spawned T's lowest row (spawnRow+1) so the piece is already grounded.
	for col := 0; col < Cols; col++ {
		b.Set(col, spawnRow+2)
	}
	ps := PieceState{Pos: PiecePosition{Kind: T, X: spawnCol, Y: spawnRow, Rot: North}, Spin: Full}
	dropped, ok := SonicDrop(ps, b)
	require.True(t, ok)
	assert.Equal(t, Full, dropped.Spin)
}

func TestPlaceClearsLinesAndTracksCombo(t *testing.T) {
	var b Board
	for col := 1; col < Cols; col++ {
		b.Set(col, 39)
	}
	s := GameState{Board: b, Ren: -1}
	piece := PieceState{Pos: PiecePosition{Kind: O, X: 0, Y: 38, Rot: North}}
	next, res := Place(s, piece)
	assert.Equal(t, 1, res.LinesCleared)
	assert.Equal(t, 0, res.Ren)
	assert.Equal(t, 0, next.Ren)
}

func TestPlaceDeathWhenAllCellsAboveCeiling(t *testing.T) {
	var b Board
	for col := 0; col < Cols; col++ {
		for row := ceilingRow; row < 64; row++ {
			b.Set(col, row)
		}
	}
	s := GameState{Board: b, Ren: -1}
	piece := PieceState{Pos: PiecePosition{Kind: O, X: 4, Y: ceilingRow - 2, Rot: North}}
	_, res := Place(s, piece)
	assert.True(t, res.Death)
}

func TestAttackPerfectClearIsTen(t *testing.T) {
	res := PlacementResult{IsPC: true, LinesCleared: 4}
	assert.Equal(t, 10, res.Attack())
}

func TestAttackTetrisWithB2BContinuation(t *testing.T) {
	res := PlacementResult{LinesCleared: 4, Ren: 0, B2BContinued: true}
	assert.Equal(t, 5, res.Attack())
}

func TestAttackComboBonusGrows(t *testing.T) {
	low := PlacementResult{LinesCleared: 1, Ren: 0}
	high := PlacementResult{LinesCleared: 1, Ren: 6}
	assert.Less(t, low.Attack(), high.Attack())
}

func TestStateKeyExcludesQueue(t *testing.T) {
	a := NewGameState(Board{}, []PieceKind{I, O}, NoKind, 0, false, -1)
	b := NewGameState(Board{}, []PieceKind{T}, NoKind, 0, false, -1)
	assert.Equal(t, a.Key(), b.Key(), "state key must not depend on queue contents")
}

package eval

import (
	"gonum.org/v1/gonum/floats"

	"github.com/corvus-bot/corvus/rules"
)

// features is the raw per-board measurement set evaluate_state reduces to
// an Accumulator. Row 0 is the top of the buffer; a column's "topRow" is
// the physically highest occupied cell in it.
type features struct {
	heights        [rules.Cols]int
	topRow         [rules.Cols]int
	well           int
	wellDepth      int
	bumpiness      float32
	bumpinessSq    float32
	maxDiff        int
	cavities       int
	cavitiesSq     int
	overhangs      int
	overhangsSq    int
	covered        int
	rowTransitions int
}

// extract measures a board.
func extract(b rules.Board) features {
	var f features
	for c := 0; c < rules.Cols; c++ {
		f.heights[c] = b.Height(c)
		f.topRow[c] = b.TopRow(c)
	}

	f.well = 0
	for c := 1; c < rules.Cols; c++ {
		if f.heights[c] < f.heights[f.well] {
			f.well = c
		}
	}
	f.wellDepth = wellDepthOf(f.heights, f.well)

	diffs := make([]float64, 0, rules.Cols-1)
	maxDiff := 0
	prev := -1
	for c := 0; c < rules.Cols; c++ {
		if c == f.well {
			continue
		}
		if prev >= 0 {
			d := f.heights[c] - prev
			if d < 0 {
				d = -d
			}
			diffs = append(diffs, float64(d))
			if d > maxDiff {
				maxDiff = d
			}
		}
		prev = f.heights[c]
	}
	f.bumpiness = float32(floats.Sum(diffs))
	sq := make([]float64, len(diffs))
	for i, d := range diffs {
		sq[i] = d * d
	}
	f.bumpinessSq = float32(floats.Sum(sq))
	f.maxDiff = maxDiff

	for c := 0; c < rules.Cols; c++ {
		for row := f.topRow[c] + 1; row < rules.MaxRow; row++ {
			if b.Occupied(c, row) {
				continue
			}
			f.cavities++
			if isOverhang(b, c, row) {
				f.overhangs++
			}
		}
		// covered: an empty cell anywhere in the column with a block
		// directly above it (the hole need not be below the stack's own
		// skyline, unlike a cavity).
		for row := 1; row < rules.MaxRow; row++ {
			if !b.Occupied(c, row) && b.Occupied(c, row-1) {
				f.covered++
			}
		}
	}
	f.cavitiesSq = f.cavities * f.cavities
	f.overhangsSq = f.overhangs * f.overhangs

	for row := 0; row < rules.MaxRow; row++ {
		prevOccupied := true // wall
		for c := 0; c < rules.Cols; c++ {
			occ := b.Occupied(c, row)
			if occ != prevOccupied {
				f.rowTransitions++
			}
			prevOccupied = occ
		}
		if !prevOccupied {
			f.rowTransitions++
		}
	}

	return f
}

func wellDepthOf(heights [rules.Cols]int, well int) int {
	depth := 0
	for c := 0; c < rules.Cols; c++ {
		if c == well {
			continue
		}
		d := heights[c] - heights[well]
		if d > depth {
			depth = d
		}
	}
	return depth
}

// isOverhang reports whether the empty cell at (col, row) is shielded by a
// block two columns away on one side at the same row, together with a
// block one column away on that same side, one row below — the diagonal
// shelf shape that makes the hole unreachable by a simple strafe-and-drop.
func isOverhang(b rules.Board, col, row int) bool {
	left := b.Occupied(col-2, row) && b.Occupied(col-1, row+1)
	right := b.Occupied(col+2, row) && b.Occupied(col+1, row+1)
	return left || right
}

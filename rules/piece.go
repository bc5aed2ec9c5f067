package rules

// PiecePosition is a piece kind placed at a bounding-box origin in a given
// rotation. (X, Y) is the top-left of the piece's bounding box.
type PiecePosition struct {
	Kind PieceKind
	X, Y int8
	Rot  Rotation
}

// Cells returns the 4 absolute (col, row) cells the piece occupies.
func (p PiecePosition) Cells() [4][2]int8 {
	fp := footprints[p.Kind][p.Rot]
	var out [4][2]int8
	for i, c := range fp {
		out[i] = [2]int8{p.X + c.x, p.Y + c.y}
	}
	return out
}

// fits reports whether every cell of the piece is in bounds and
// unoccupied.
func (p PiecePosition) fits(b Board) bool {
	for _, c := range p.Cells() {
		if c[0] < 0 || c[0] >= Cols {
			return false
		}
		if b.Occupied(int(c[0]), int(c[1])) {
			return false
		}
	}
	return true
}

// PieceState is a piece position plus the spin it was classified with at
// the moment of its last successful rotation.
type PieceState struct {
	Pos  PiecePosition
	Spin Spin
}

// Move is either a Hold or placing a piece at a final resting PieceState.
// Hold is only legal when the hold slot is empty.
type Move struct {
	Hold  bool
	Place PieceState
}

func (m Move) String() string {
	if m.Hold {
		return "Hold"
	}
	return "Place(" + m.Place.Pos.Kind.String() + ")"
}

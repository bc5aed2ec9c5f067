package rules

// kick is a candidate translation tried, in order, when rotating.
type kick struct{ dx, dy int8 }

// transition identifies a rotation attempt by its source and target state.
type transition struct {
	from, to Rotation
}

// jlstzKicks holds the 5-entry SRS wall-kick table shared by J, L, S, T and
// Z, keyed by (from, to) rotation pair. Row deltas are expressed in this
// package's row-increases-downward convention.
var jlstzKicks = map[transition][5]kick{
	{North, East}: {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{East, North}: {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{East, South}: {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{South, East}: {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{South, West}: {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	{West, South}: {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{West, North}: {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{North, West}: {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
}

// iKicks holds the 5-entry SRS wall-kick table specific to the I piece.
var iKicks = map[transition][5]kick{
	{North, East}: {{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	{East, North}: {{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	{East, South}: {{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
	{South, East}: {{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	{South, West}: {{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	{West, South}: {{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	{West, North}: {{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	{North, West}: {{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
}

// kicksFor returns the wall-kick candidates for a rotation attempt. O has no
// rotation and is handled by the caller before reaching here.
func kicksFor(kind PieceKind, from, to Rotation) [5]kick {
	if kind == I {
		return iKicks[transition{from, to}]
	}
	return jlstzKicks[transition{from, to}]
}

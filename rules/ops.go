package rules

// Spawn attempts to place kind's spawn orientation at (spawnCol, spawnRow),
// falling back to (spawnCol, deathRow) if the first is blocked. It returns
// false if both collide, which the caller should treat as an immediate
// death / generator-infeasible condition.
func Spawn(kind PieceKind, b Board) (PieceState, bool) {
	p := PiecePosition{Kind: kind, X: spawnCol, Y: spawnRow, Rot: North}
	if p.fits(b) {
		return PieceState{Pos: p}, true
	}
	p.Y = deathRow
	if p.fits(b) {
		return PieceState{Pos: p}, true
	}
	return PieceState{}, false
}

// Strafe translates a piece by (dx, dy), rejecting the move if any
// resulting cell collides or leaves the board. A successful translation
// clears any spin classification unless its distance is zero.
func Strafe(ps PieceState, dx, dy int8, b Board) (PieceState, bool) {
	next := ps.Pos
	next.X += dx
	next.Y += dy
	if !next.fits(b) {
		return PieceState{}, false
	}
	spin := ps.Spin
	if !(dx == 0 && dy == 0) {
		spin = NoSpin
	}
	return PieceState{Pos: next, Spin: spin}, true
}

// Rotate applies the 5-entry SRS kick table for the rotation transition,
// accepting the first candidate that doesn't collide. For the T piece it
// classifies the resulting spin.
func Rotate(ps PieceState, clockwise bool, b Board) (PieceState, bool) {
	from := ps.Pos.Rot
	var to Rotation
	if clockwise {
		to = from.cw()
	} else {
		to = from.ccw()
	}
	if ps.Pos.Kind == O {
		return PieceState{}, false
	}

	kicks := kicksFor(ps.Pos.Kind, from, to)
	for idx, k := range kicks {
		cand := ps.Pos
		cand.Rot = to
		cand.X += k.dx
		cand.Y += k.dy
		if !cand.fits(b) {
			continue
		}
		spin := NoSpin
		if ps.Pos.Kind == T {
			spin = classifyTSpin(cand, b, idx)
		}
		return PieceState{Pos: cand, Spin: spin}, true
	}
	return PieceState{}, false
}

// classifyTSpin counts occupied corners of the T piece's 3x3 bounding box.
// At least 3 of 4 corners must be occupied for any spin to be recognised.
// Full is assigned when both "front" corners (the two nearest the point of
// the T) are occupied, or when the accepted kick was the 5th (index 4)
// entry; otherwise the rotation is a Mini.
func classifyTSpin(p PiecePosition, b Board, kickIndex int) Spin {
	occupied := func(c cell) bool {
		return b.Occupied(int(p.X+c.x), int(p.Y+c.y))
	}
	corners := [4]cell{{0, 0}, {2, 0}, {0, 2}, {2, 2}}
	n := 0
	for _, c := range corners {
		if occupied(c) {
			n++
		}
	}
	if n < 3 {
		return NoSpin
	}
	front := tFrontCorners[p.Rot]
	frontOccupied := occupied(front[0]) && occupied(front[1])
	if frontOccupied || kickIndex == 4 {
		return Full
	}
	return Mini
}

// SonicDrop translates the piece downward by the minimum ground clearance
// across its cells. Spin survives only when the drop distance is 0.
func SonicDrop(ps PieceState, b Board) (PieceState, bool) {
	dist := int8(0)
	for {
		cand := ps.Pos
		cand.Y += dist + 1
		if !cand.fits(b) {
			break
		}
		dist++
	}
	if dist == 0 {
		return ps, true
	}
	next := ps.Pos
	next.Y += dist
	return PieceState{Pos: next, Spin: NoSpin}, true
}

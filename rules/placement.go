package rules

// PlacementResult is the outcome of locking a piece: how many lines
// cleared, the resulting combo counter, the spin the lock was classified
// with, whether the clear qualifies for (and continues) back-to-back, and
// whether it was a perfect clear or a death.
type PlacementResult struct {
	LinesCleared int
	Ren          int // combo counter after this placement; -1 = no combo
	Spin         Spin
	IsB2BClear   bool // this clear is a 4-line or any spin-clear
	B2BContinued bool // IsB2BClear and the prior state already had b2b active
	IsPC         bool // board is empty after the clear
	Death        bool
}

// comboTable maps a 0-based combo index (ren) to its garbage bonus.
var comboTable = []int{0, 1, 1, 2, 2, 3, 3, 4, 4, 4, 5}

func comboBonus(ren int) int {
	if ren < 0 {
		return 0
	}
	if ren >= len(comboTable) {
		return comboTable[len(comboTable)-1]
	}
	return comboTable[ren]
}

// baseAttack maps {spin, linesCleared} to the base number of garbage lines
// sent, before back-to-back and combo bonuses.
func baseAttack(spin Spin, lines int) int {
	switch spin {
	case Full:
		switch lines {
		case 1:
			return 2
		case 2:
			return 4
		case 3:
			return 6
		}
	case Mini:
		switch lines {
		case 1:
			return 1
		case 2:
			return 2
		}
	default:
		switch lines {
		case 1:
			return 0
		case 2:
			return 1
		case 3:
			return 2
		case 4:
			return 4
		}
	}
	return 0
}

// Attack derives the outgoing garbage lines: a perfect clear always sends
// 10; otherwise it's the base table for {spin, lines_cleared}, plus 1 for
// a continued back-to-back streak, plus the combo bonus table.
func (r PlacementResult) Attack() int {
	if r.IsPC {
		return 10
	}
	if r.LinesCleared == 0 {
		return 0
	}
	n := baseAttack(r.Spin, r.LinesCleared)
	if r.B2BContinued {
		n++
	}
	n += comboBonus(r.Ren)
	return n
}

// Place writes piece onto state's board, clears filled rows, and updates
// the combo/back-to-back bookkeeping and death flag. It does not touch
// Hold, Queue or Bag — those are the caller's responsibility.
func Place(s GameState, piece PieceState) (GameState, PlacementResult) {
	next := s
	board := s.Board

	death := true
	for _, c := range piece.Pos.Cells() {
		board.Set(int(c[0]), int(c[1]))
		if c[1] >= ceilingRow {
			death = false
		}
	}

	lines := board.ClearLines()
	next.Board = board

	ren := -1
	if lines > 0 {
		ren = s.Ren + 1
	}
	next.Ren = ren

	isB2BClear := lines == 4 || (piece.Spin != NoSpin && lines > 0)
	continued := isB2BClear && s.B2B && lines > 0
	if lines > 0 {
		next.B2B = isB2BClear
	}

	isPC := lines > 0
	if isPC {
		for _, col := range board {
			if col != 0 {
				isPC = false
				break
			}
		}
	}

	return next, PlacementResult{
		LinesCleared: lines,
		Ren:          ren,
		Spin:         piece.Spin,
		IsB2BClear:   isB2BClear,
		B2BContinued: continued,
		IsPC:         isPC,
		Death:        death,
	}
}

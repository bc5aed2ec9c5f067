// Package movegen enumerates every reachable, distinct placement for the
// current piece (and, optionally, a single hold swap) via a best-first
// search over PiecePosition, annotated with an approximate input cost.
package movegen

import (
	"container/heap"

	"github.com/corvus-bot/corvus/rules"
)

// maxDepth is the BFS depth cutoff; maxCost is the cumulative-cost cutoff
// for every kind except T, which is allowed deeper in order to find spins.
const (
	maxDepth   = 32
	maxCostNon = 20
)

// Placement is one distinct reachable landing: the move to make, its
// approximate input cost, whether it required holding first, and the
// input path that reconstructs it from spawn.
type Placement struct {
	Move       rules.Move
	Cost       int
	HoldBefore bool
	Path       []Instr
}

// Instr is one reconstructed input in a placement's path.
type Instr uint8

const (
	InstrLeft Instr = iota
	InstrRight
	InstrSoftDown
	InstrSoftUp
	InstrRotateCW
	InstrRotateCCW
	InstrSonicDrop
)

// canonKey identifies a landing uniquely by its sorted cell set plus spin
// class, so that different paths arriving at the same physical resting
// spot are merged.
type canonKey struct {
	cells [4][2]int8
	spin  rules.Spin
}

func canonicalize(ps rules.PieceState) canonKey {
	cells := ps.Pos.Cells()
	// insertion sort; 4 elements, not worth pulling in sort.Slice
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && less(cells[j], cells[j-1]); j-- {
			cells[j], cells[j-1] = cells[j-1], cells[j]
		}
	}
	return canonKey{cells: cells, spin: ps.Spin}
}

func less(a, b [2]int8) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

// searchNode is one popped state in the best-first frontier.
type searchNode struct {
	state    rules.PieceState
	cost     int
	depth    int
	lastKind instrKind
	path     []Instr
}

type instrKind uint8

const (
	instrNone instrKind = iota
	instrStrafeX
	instrStrafeY
	instrRotateCW
	instrRotateCCW
	instrDrop
)

// frontier is a container/heap min-priority-queue ordered by cumulative
// cost.
type frontier []searchNode

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].cost < f[j].cost }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x interface{}) { *f = append(*f, x.(searchNode)) }
func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// reachable runs the best-first search from spawn and returns, for each
// canonical landing, the cheapest (state, cost) that reaches it.
func reachable(spawn rules.PieceState, b rules.Board) map[canonKey]Placement {
	best := make(map[canonKey]Placement)
	visited := make(map[rules.PiecePosition]int)

	pq := &frontier{{state: spawn, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		n := heap.Pop(pq).(searchNode)
		if prev, ok := visited[n.state.Pos]; ok && prev <= n.cost {
			continue
		}
		visited[n.state.Pos] = n.cost

		landed, ok := rules.SonicDrop(n.state, b)
		if ok {
			key := canonicalize(landed)
			if existing, ok := best[key]; !ok || n.cost < existing.Cost {
				path := n.path
				if n.state.Pos != landed.Pos {
					path = append(append([]Instr{}, n.path...), InstrSonicDrop)
				}
				best[key] = Placement{Move: rules.Move{Place: landed}, Cost: n.cost, Path: path}
			}
		}

		if n.depth >= maxDepth {
			continue
		}
		limit := maxCostNon
		if n.state.Pos.Kind == rules.T {
			limit = 1 << 30
		}
		if n.cost > limit {
			continue
		}

		for _, child := range expand(n, b) {
			heap.Push(pq, child)
		}
	}
	return best
}

// expand enumerates the admissible successor states of one frontier node:
// strafes of ±1 in x and y, clockwise/counter-clockwise rotation (skipped
// for O), and a sonic drop.
func expand(n searchNode, b rules.Board) []searchNode {
	var out []searchNode
	add := func(ps rules.PieceState, ok bool, kind instrKind, instr Instr) {
		if !ok {
			return
		}
		out = append(out, searchNode{
			state:    ps,
			cost:     n.cost + moveCost(n.lastKind, kind, 0),
			depth:    n.depth + 1,
			lastKind: kind,
			path:     append(append([]Instr{}, n.path...), instr),
		})
	}

	if ps, ok := rules.Strafe(n.state, -1, 0, b); ok {
		add(ps, ok, instrStrafeX, InstrLeft)
	}
	if ps, ok := rules.Strafe(n.state, 1, 0, b); ok {
		add(ps, ok, instrStrafeX, InstrRight)
	}
	if ps, ok := rules.Strafe(n.state, 0, 1, b); ok {
		add(ps, ok, instrStrafeY, InstrSoftDown)
	}
	if ps, ok := rules.Strafe(n.state, 0, -1, b); ok {
		add(ps, ok, instrStrafeY, InstrSoftUp)
	}
	if n.state.Pos.Kind != rules.O {
		if ps, ok := rules.Rotate(n.state, true, b); ok {
			add(ps, ok, instrRotateCW, InstrRotateCW)
		}
		if ps, ok := rules.Rotate(n.state, false, b); ok {
			add(ps, ok, instrRotateCCW, InstrRotateCCW)
		}
	}
	if dropped, ok := rules.SonicDrop(n.state, b); ok {
		dist := dropped.Pos.Y - n.state.Pos.Y
		out = append(out, searchNode{
			state:    dropped,
			cost:     n.cost + dropCost(dist),
			depth:    n.depth + 1,
			lastKind: instrDrop,
			path:     append(append([]Instr{}, n.path...), InstrSonicDrop),
		})
	}
	return out
}

// moveCost charges 2 for repeating the previous instruction and 1
// otherwise.
func moveCost(last, this instrKind, _ int) int {
	if last == this {
		return 2
	}
	return 1
}

// dropCost charges 3x the vertical distance of a sonic drop.
func dropCost(dist int8) int {
	if dist < 0 {
		dist = 0
	}
	return 3 * int(dist)
}

// LegalMoves enumerates every reachable placement for the current piece,
// and — when allowHold is true — for the piece that would result from a
// hold swap. If the hold slot is empty, a synthetic zero-cost Hold move is
// also emitted.
func LegalMoves(b rules.Board, current rules.PieceKind, hold rules.OptKind, allowHold bool) ([]Placement, error) {
	spawn, ok := rules.Spawn(current, b)
	if !ok {
		return nil, errInfeasible{kind: current}
	}

	var out []Placement
	for _, p := range reachable(spawn, b) {
		out = append(out, p)
	}

	if !allowHold {
		return out, nil
	}

	if !hold.Present {
		out = append(out, Placement{Move: rules.Move{Hold: true}, Cost: 0})
		return out, nil
	}

	if hold.Kind == current {
		return out, nil
	}
	swapSpawn, ok := rules.Spawn(hold.Kind, b)
	if !ok {
		return out, nil
	}
	for _, p := range reachable(swapSpawn, b) {
		p.HoldBefore = true
		out = append(out, p)
	}
	return out, nil
}

// errInfeasible is returned when the spawn collides immediately: the
// generator has nothing to enumerate.
type errInfeasible struct{ kind rules.PieceKind }

func (e errInfeasible) Error() string {
	return "movegen: spawn infeasible for kind " + e.kind.String()
}

// IsInfeasible reports whether err was returned because the spawning piece
// collided immediately.
func IsInfeasible(err error) bool {
	_, ok := err.(errInfeasible)
	return ok
}

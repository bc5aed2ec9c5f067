package search

import (
	"fmt"
	"log"
	"os"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/corvus-bot/corvus/arena"
	"github.com/corvus-bot/corvus/eval"
	"github.com/corvus-bot/corvus/rules"
)

// ErrIllegalMove is returned by Advance when the requested move has no
// matching action among the root node's children: the host has asked to
// commit something the tree never considered legal.
var ErrIllegalMove = errors.New("search: move is not among the root's legal actions")

// Graph holds the root generation and root state, and drives search
// iterations over it. It is not safe for concurrent use on its own — the
// session controller is responsible for serializing writers against
// readers with its RWMutex (§5).
type Graph struct {
	head  *Generation
	root  rules.GameState
	queue []rules.PieceKind

	ev  eval.Evaluator
	log *log.Logger
}

// NewGraph builds a Graph rooted at state, with the given queue of pieces
// still to be committed, using ev to score states and moves.
func NewGraph(state rules.GameState, queue []rules.PieceKind, ev eval.Evaluator, rng *rand.Rand) *Graph {
	g := &Graph{
		head:  newGeneration(rng),
		root:  state,
		queue: append([]rules.PieceKind{}, queue...),
		ev:    ev,
		log:   log.New(os.Stderr, "search: ", log.Ltime),
	}
	key := state.Key()
	g.head.lookup.LoadOrStore(key, func() arena.Index {
		return g.head.nodes.Alloc(Node{Value: ev.EvaluateState(state)})
	})
	return g
}

// walkFrame is one generation the current work() iteration has descended
// through, recorded so backprop can walk back up afterward.
type walkFrame struct {
	gen     *Generation
	nodeIdx arena.Index
}

// Work runs one search iteration: descend from the head generation by
// repeatedly selecting an action, until the walk lands on a leaf (a node
// with no children) or runs out of queued pieces. A leaf with pieces still
// queued is expanded and the result is backpropagated; a leaf with an
// empty queue is left untouched (speculation over unknown future pieces
// is deliberately not performed — see the design notes on this package).
func (g *Graph) Work() {
	state := g.root.Clone()
	queue := append([]rules.PieceKind{}, g.queue...)
	gen := g.head

	var path []walkFrame
	for {
		key := state.Key()
		res := gen.selectChild(key)
		switch {
		case res.failed:
			return
		case res.expand:
			if len(queue) == 0 {
				return
			}
			idx, ok := gen.findNode(key)
			if !ok {
				return
			}
			piece := queue[0]
			path = append(path, walkFrame{gen: gen, nodeIdx: idx})
			if err := gen.expand(idx, state, piece, g.ev); err != nil {
				g.log.Printf("expand: spawn infeasible for %s, pruning subtree", piece)
			}
			backprop(toBackpropFrames(path))
			return
		default:
			action := res.action
			next := gen.next()
			idx, ok := gen.findNode(key)
			if !ok {
				return
			}
			path = append(path, walkFrame{gen: gen, nodeIdx: idx})

			nstate, _, _, ok := applyMove(state, queue[0], action.Move)
			if !ok {
				return
			}
			state = nstate
			queue = queue[1:]
			gen = next
		}
	}
}

func toBackpropFrames(path []walkFrame) []backpropFrame {
	out := make([]backpropFrame, len(path))
	for i, f := range path {
		out[i] = backpropFrame{gen: f.gen, nodeIdx: f.nodeIdx}
	}
	return out
}

// BestPlan walks the greedy best-scoring path from the root: at each
// generation it reads the current node, takes the first (highest-score)
// action in its children range, appends the move, and steps forward. It
// stops when a node has no children yet or the queue runs out.
func (g *Graph) BestPlan() []rules.Move {
	state := g.root.Clone()
	queue := append([]rules.PieceKind{}, g.queue...)
	gen := g.head

	var plan []rules.Move
	for len(queue) > 0 {
		idx, ok := gen.findNode(state.Key())
		if !ok {
			break
		}
		n := gen.node(idx)
		if !n.HasChildren {
			break
		}
		acts := gen.actionsIn(n.Children)
		if len(acts) == 0 {
			break
		}
		best := acts[0]
		plan = append(plan, best.Move)

		nstate, _, _, ok := applyMove(state, queue[0], best.Move)
		if !ok {
			break
		}
		state = nstate
		queue = queue[1:]
		gen = gen.next()
	}
	return plan
}

// Advance commits mv at the root: it validates mv against the root node's
// current children, applies it to the root state, drops the head piece
// from the queue, and shifts the head generation forward by one. Stale
// back-edges left pointing into the dropped generation are tolerated by
// future backprop passes.
func (g *Graph) Advance(mv rules.Move) error {
	if len(g.queue) == 0 {
		return errors.New("search: no queued piece to advance with")
	}
	idx, ok := g.head.findNode(g.root.Key())
	if !ok {
		return errors.New("search: root state has no node in the head generation")
	}
	n := g.head.node(idx)
	if !n.HasChildren {
		return ErrIllegalMove
	}
	var matched bool
	for _, a := range g.head.actionsIn(n.Children) {
		if a.Move == mv {
			matched = true
			break
		}
	}
	if !matched {
		return ErrIllegalMove
	}

	nstate, _, _, ok := applyMove(g.root, g.queue[0], mv)
	if !ok {
		return ErrIllegalMove
	}

	g.root = nstate
	g.queue = g.queue[1:]
	g.head = g.head.next()
	return nil
}

// AddPiece appends a newly revealed piece to the root queue. The
// materialized tree below remains valid; it simply gains the ability to
// expand one generation deeper once a worker reaches that depth.
func (g *Graph) AddPiece(k rules.PieceKind) {
	g.queue = append(g.queue, k)
}

// RootState returns a copy of the current root state.
func (g *Graph) RootState() rules.GameState { return g.root.Clone() }

// Queue returns a copy of the root's remaining committed-piece queue.
func (g *Graph) Queue() []rules.PieceKind {
	return append([]rules.PieceKind{}, g.queue...)
}

// Stats counts nodes across every generation reachable from the head. It
// walks forward only as far as generations have actually been
// materialized (the lazy next-generation pointer stops it at the search
// frontier).
func (g *Graph) Stats() int {
	total := 0
	for gen := g.head; gen != nil; gen = gen.nextGen.Load() {
		total += gen.nodes.Len()
	}
	return total
}

// DumpDOT writes a Graphviz DOT rendering of the head generation's nodes
// and actions to stderr, for debugging a search that looks stuck. It is
// never on the hot path.
func (g *Graph) DumpDOT() {
	graph := gographviz.NewGraph()
	_ = graph.SetName("corvus_head")
	_ = graph.SetDir(true)

	rootIdx, ok := g.head.findNode(g.root.Key())
	if !ok {
		g.log.Print("DumpDOT: root state has no node in the head generation")
		return
	}

	rootName := nodeDotName(rootIdx)
	_ = graph.AddNode("corvus_head", rootName, map[string]string{"label": `"root"`})

	n := g.head.node(rootIdx)
	if n.HasChildren {
		for i, a := range g.head.actionsIn(n.Children) {
			childName := nodeDotName(a.Child)
			_ = graph.AddNode("corvus_head", childName, map[string]string{
				"label": fmt.Sprintf("%q", a.Move.String()),
			})
			_ = graph.AddEdge(rootName, childName, true, map[string]string{
				"label": fmt.Sprintf(`"%d"`, a.SelectScore()),
			})
			if i > 64 {
				break // a diagnostic dump, not a full export; keep it readable
			}
		}
	}

	if _, err := os.Stderr.WriteString(graph.String()); err != nil {
		g.log.Printf("DumpDOT: write failed: %v", err)
	}
}

func nodeDotName(idx arena.Index) string {
	return fmt.Sprintf("n%d_%d", idx.Shelf, idx.Slot)
}

package search

import (
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/corvus-bot/corvus/arena"
	"github.com/corvus-bot/corvus/eval"
	"github.com/corvus-bot/corvus/movegen"
	"github.com/corvus-bot/corvus/rules"
)

// numShelvesPerRack shards each generation's node and action storage across
// this many independently-locked shelves.
const numShelvesPerRack = 8

// Generation is one layer of the search DAG: every node in it shares the
// same remaining-queue depth (the same number of pieces committed from the
// root). It owns its nodes and actions; back-edges route backprop to the
// previous generation and are tolerated stale once a generation is
// dropped.
type Generation struct {
	nodes   *arena.Rack[Node]
	actions *arena.Rack[Action]

	lookup    *shardedMap[rules.StateKey, arena.Index]
	backEdges *shardedMap[arena.Index, []arena.Index]

	nextGen  atomic.Pointer[Generation]
	nextOnce sync.Once

	rng    *rand.Rand
	rngSrc *lockedSource
}

func newGeneration(rng *rand.Rand) *Generation {
	return &Generation{
		nodes:     arena.NewRack[Node](numShelvesPerRack, rng),
		actions:   arena.NewRack[Action](numShelvesPerRack, rng),
		lookup:    newShardedMap[rules.StateKey, arena.Index](hashStateKey),
		backEdges: newShardedMap[arena.Index, []arena.Index](hashIndex),
		rng:       rng,
		rngSrc:    &lockedSource{rng: rng},
	}
}

// next returns this generation's successor, materializing it on first
// access (lazy next-generation pointer).
func (g *Generation) next() *Generation {
	if p := g.nextGen.Load(); p != nil {
		return p
	}
	g.nextOnce.Do(func() {
		g.nextGen.Store(newGeneration(g.rng))
	})
	return g.nextGen.Load()
}

// findNode looks up the node index for a state key. It never inserts: new
// nodes enter a generation only through expand's LoadOrStore (first writer
// wins; later expanders get the existing index back and attach a back-edge
// to it).
func (g *Generation) findNode(key rules.StateKey) (arena.Index, bool) {
	return g.lookup.Load(key)
}

// withNode runs f against the current value of the node at idx and stores
// whatever f returns.
func (g *Generation) withNode(idx arena.Index, f func(Node) Node) {
	g.nodes.Modify(idx, func(n *Node) { *n = f(*n) })
}

// node returns a copy of the node at idx.
func (g *Generation) node(idx arena.Index) Node {
	return g.nodes.Get(idx)
}

// withActions hands f the live action range to mutate (and reorder) in
// place, under that range's shelf lock.
func (g *Generation) withActions(rng arena.IndexRange, f func([]Action)) {
	g.actions.ModifyRange(rng, f)
}

// actionsIn returns a copy of the action range.
func (g *Generation) actionsIn(rng arena.IndexRange) []Action {
	return g.actions.GetRange(rng)
}

// selectResult is what select() returns: either an action to descend
// through, or a signal to expand this leaf, or a signal that the subtree is
// permanently dead.
type selectResult struct {
	action Action
	expand bool
	failed bool
}

// selectChild looks up state's node; if it has no children yet, reports
// expand. Otherwise picks one child by weighted sampling: weights are each
// child's accumulated score shifted so the minimum across siblings is 1,
// biasing toward higher-scoring children while never starving the rest.
func (g *Generation) selectChild(key rules.StateKey) selectResult {
	idx, ok := g.findNode(key)
	if !ok {
		return selectResult{failed: true}
	}
	n := g.node(idx)
	if !n.HasChildren {
		// A node whose spawn was infeasible (Dead) never gains children:
		// expand fails the same way every time it's retried here, which
		// is how an infeasible subtree gets pruned. expand marks such a
		// node Dead, but this check does not consult that flag.
		return selectResult{expand: true}
	}
	acts := g.actionsIn(n.Children)
	if len(acts) == 0 {
		return selectResult{expand: true}
	}
	if len(acts) == 1 {
		return selectResult{action: acts[0]}
	}

	scores := make([]int64, len(acts))
	minScore := acts[0].SelectScore()
	for i, a := range acts {
		scores[i] = a.SelectScore()
		if scores[i] < minScore {
			minScore = scores[i]
		}
	}
	weights := make([]float64, len(acts))
	for i, s := range scores {
		weights[i] = float64(s-minScore) + 1
	}

	w := sampleuv.NewWeighted(weights, g.rngSrc)
	i, ok := w.Take()
	if !ok {
		i = 0
	}
	return selectResult{action: acts[i]}
}

// lockedSource adapts a shared rand.Rand into a rand.Source safe for
// concurrent use, since rand.Rand itself is not.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64()
}

func (s *lockedSource) Seed(seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Seed(seed)
}

// expand materializes state's one-piece-deeper children: it enumerates
// legal moves for currentPiece from state, resolves each resulting state
// against the next generation's transposition lookup (attaching a
// back-edge if it already exists, or evaluating and inserting a new node
// otherwise), and writes the resulting action array as one contiguous
// range on this generation's action arena.
func (g *Generation) expand(parentIdx arena.Index, state rules.GameState, currentPiece rules.PieceKind, ev eval.Evaluator) error {
	moves, err := movegen.LegalMoves(state.Board, currentPiece, state.Hold, true)
	if err != nil {
		g.withNode(parentIdx, func(n Node) Node {
			n.Dead = true
			return n
		})
		return err
	}

	next := g.next()
	actionsOut := make([]Action, 0, len(moves))

	for _, placement := range moves {
		childState, piece, result, ok := applyMove(state, currentPiece, placement.Move)
		if !ok {
			continue
		}
		key := childState.Key()

		childIdx, _ := next.lookup.LoadOrStore(key, func() arena.Index {
			return next.nodes.Alloc(Node{Value: ev.EvaluateState(childState)})
		})
		next.backEdges.Update(childIdx, nil, func(parents []arena.Index) []arena.Index {
			return append(parents, parentIdx)
		})

		reward := ev.EvaluateMove(placement.Move, piece, result, state)
		actionsOut = append(actionsOut, Action{
			Move:   placement.Move,
			Child:  childIdx,
			Reward: reward,
		})
	}

	ref := g.actions.RentShelf()
	rng := ref.AppendRange(actionsOut)
	ref.Release()

	g.withNode(parentIdx, func(n Node) Node {
		n.Children = rng
		n.HasChildren = true
		return n
	})
	return nil
}

// applyMove resolves one Move against state for the piece currently in
// hand, returning the resulting state, the concrete piece placed (for
// reward classification), the placement result, and whether the move was
// applicable (a pure Hold when the hold slot is already occupied is not,
// though movegen never emits one). The bag and queue are Graph-level
// bookkeeping, not touched here: a generation step only ever commits a
// piece that was already drawn into view.
//
// Whether the placed piece went through a hold swap first isn't stored on
// the move itself: it's implied by the placed kind differing from the
// piece currently in hand (movegen only ever places currentPiece directly,
// or the previously-held kind after swapping currentPiece into hold).
func applyMove(state rules.GameState, currentPiece rules.PieceKind, mv rules.Move) (rules.GameState, rules.PieceState, rules.PlacementResult, bool) {
	next := state.Clone()

	if mv.Hold {
		if next.Hold.Present {
			return rules.GameState{}, rules.PieceState{}, rules.PlacementResult{}, false
		}
		next.Hold = rules.SomeKind(currentPiece)
		return next, rules.PieceState{}, rules.PlacementResult{}, true
	}

	if mv.Place.Pos.Kind != currentPiece {
		next.Hold = rules.SomeKind(currentPiece)
	}

	placedState, result := rules.Place(next, mv.Place)
	return placedState, mv.Place, result, true
}

// backpropFrame is one step of the root-to-leaf walk recorded by work(),
// used to drive backprop back up afterward.
type backpropFrame struct {
	gen     *Generation
	nodeIdx arena.Index
}

// backprop walks from the leaf generation back to the root, recomputing
// each visited node's actions' accumulated scores from their children's
// current values and re-sorting each node's children into descending
// score order, then enqueues that node's back-edge parents for the
// previous generation. A node may be reached more than once via distinct
// back-edge paths; re-processing it is harmless since every action is
// recomputed from its current child snapshot, not accumulated additively.
// Stale back-edges (pointing at a node whose generation has since been
// dropped) are skipped, not an error.
func backprop(path []backpropFrame) {
	if len(path) == 0 {
		return
	}

	frontier := []arena.Index{path[len(path)-1].nodeIdx}
	for i := len(path) - 1; i >= 0; i-- {
		gen := path[i].gen
		var nextFrontier []arena.Index

		for _, idx := range frontier {
			n := gen.node(idx)
			if n.HasChildren {
				next := gen.next()
				gen.withActions(n.Children, func(acts []Action) {
					for j := range acts {
						child := next.node(acts[j].Child)
						acts[j].Score = child.Value.Accumulate(acts[j].Reward)
						acts[j].Visits++
					}
					sort.SliceStable(acts, func(a, b int) bool {
						return acts[a].SelectScore() > acts[b].SelectScore()
					})
				})
			}
			if i == 0 {
				continue // the root generation has no previous generation to route into
			}
			if parents, ok := gen.backEdges.Load(idx); ok {
				nextFrontier = append(nextFrontier, parents...)
			}
		}
		frontier = nextFrontier
	}
}

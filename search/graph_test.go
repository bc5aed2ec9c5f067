package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/corvus-bot/corvus/eval"
	"github.com/corvus-bot/corvus/movegen"
	"github.com/corvus-bot/corvus/rules"
)

func newTestGraph(t *testing.T, queue []rules.PieceKind) *Graph {
	t.Helper()
	root := rules.NewGameState(rules.Board{}, queue, rules.NoKind, rules.SevenBag(0), false, -1)
	return NewGraph(root, queue, eval.NewEvaluator(), rand.New(rand.NewSource(1)))
}

// Scenario 1 (spec.md §8): empty board, a 7-piece queue, 1,000 iterations
// with a single worker.
func TestWorkScenario1(t *testing.T) {
	queue := []rules.PieceKind{rules.I, rules.T, rules.O, rules.L, rules.J, rules.S, rules.Z}
	g := newTestGraph(t, queue)

	for i := 0; i < 1000; i++ {
		g.Work()
	}

	idx, ok := g.head.findNode(g.root.Key())
	require.True(t, ok)
	require.Equal(t, 1, g.head.nodes.Len(), "head generation should have exactly one node (the root)")

	n := g.head.node(idx)
	require.True(t, n.HasChildren)
	acts := g.head.actionsIn(n.Children)

	moves, err := movegen.LegalMoves(rules.Board{}, rules.I, rules.NoKind, true)
	require.NoError(t, err)
	assert.Equal(t, len(moves), len(acts), "root's children should equal the I piece's distinct landings plus Hold")

	plan := g.BestPlan()
	require.NotEmpty(t, plan)

	assert.Greater(t, g.Stats(), 1000)
}

func TestWorkQueueEmptyLeafDoesNotExpand(t *testing.T) {
	g := newTestGraph(t, nil)
	before := g.Stats()
	g.Work()
	assert.Equal(t, before, g.Stats(), "an empty queue at a leaf must leave the tree unchanged")
}

func TestAdvanceRejectsIllegalMove(t *testing.T) {
	queue := []rules.PieceKind{rules.T, rules.O}
	g := newTestGraph(t, queue)
	for i := 0; i < 50; i++ {
		g.Work()
	}

	bogus := rules.Move{Place: rules.PieceState{Pos: rules.PiecePosition{Kind: rules.T, X: -50, Y: -50}}}
	err := g.Advance(bogus)
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestAdvanceThenBestPlanMatchesDirectApplication(t *testing.T) {
	queue := []rules.PieceKind{rules.T, rules.O, rules.I}
	g := newTestGraph(t, queue)
	for i := 0; i < 300; i++ {
		g.Work()
	}

	plan := g.BestPlan()
	require.NotEmpty(t, plan)

	rootBefore := g.RootState()
	require.NoError(t, g.Advance(plan[0]))

	direct, _, _, ok := applyMove(rootBefore, queue[0], plan[0])
	require.True(t, ok)
	assert.Equal(t, direct.Key(), g.RootState().Key())
}

func TestAddPieceExtendsQueueWithoutDisturbingTree(t *testing.T) {
	queue := []rules.PieceKind{rules.T}
	g := newTestGraph(t, queue)
	for i := 0; i < 50; i++ {
		g.Work()
	}
	before := g.Stats()
	g.AddPiece(rules.I)
	assert.Equal(t, before, g.Stats(), "add_piece should not itself mutate the materialized tree")
	assert.Equal(t, []rules.PieceKind{rules.T, rules.I}, g.queue)
}

func TestHoldMoveIsLegalWhenHoldEmpty(t *testing.T) {
	queue := []rules.PieceKind{rules.T, rules.O}
	g := newTestGraph(t, queue)
	g.Work()

	idx, ok := g.head.findNode(g.root.Key())
	require.True(t, ok)
	n := g.head.node(idx)
	require.True(t, n.HasChildren)

	var sawHold bool
	for _, a := range g.head.actionsIn(n.Children) {
		if a.Move.Hold {
			sawHold = true
			assert.Equal(t, eval.TransientReward{}, a.Reward, "a bare Hold produces no placement, so no reward")
		}
	}
	assert.True(t, sawHold, "Hold should be among the root's legal actions when the hold slot is empty")
}

func TestConcurrentWorkersDoNotCorruptInvariants(t *testing.T) {
	queue := []rules.PieceKind{rules.I, rules.T, rules.O, rules.L, rules.J, rules.S, rules.Z}
	g := newTestGraph(t, queue)

	const numWorkers = 8
	done := make(chan struct{})
	for i := 0; i < numWorkers; i++ {
		go func() {
			for j := 0; j < 200; j++ {
				g.Work()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < numWorkers; i++ {
		<-done
	}

	idx, ok := g.head.findNode(g.root.Key())
	require.True(t, ok)
	n := g.head.node(idx)
	if n.HasChildren {
		acts := g.head.actionsIn(n.Children)
		for i := 1; i < len(acts); i++ {
			assert.GreaterOrEqual(t, acts[i-1].SelectScore(), acts[i].SelectScore(), "children must stay ordered by non-increasing select score")
		}
	}
}

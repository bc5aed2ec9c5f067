package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvus-bot/corvus/rules"
)

func newTestState(queue []rules.PieceKind) rules.GameState {
	return rules.NewGameState(rules.Board{}, queue, rules.NoKind, rules.SevenBag(0), false, -1)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.True(t, DefaultConfig().IsValid())
}

func TestNewFallsBackToDefaultConfigWhenInvalid(t *testing.T) {
	c := New(Config{NumWorkers: 0})
	assert.True(t, c.cfg.IsValid())
}

func TestSuggestEmptyBeforeReset(t *testing.T) {
	c := New(DefaultConfig())
	assert.Nil(t, c.Suggest())
	assert.Equal(t, 0, c.Stats())
}

func TestStartStopRunsWorkersAndStopsThem(t *testing.T) {
	c := New(Config{NumWorkers: 2})
	queue := []rules.PieceKind{rules.I, rules.T, rules.O, rules.L, rules.J, rules.S, rules.Z}
	c.Reset(newTestState(queue), queue)

	c.Start()
	time.Sleep(50 * time.Millisecond)
	c.Stop()
	c.Wait()

	assert.Greater(t, c.Stats(), 0)
}

func TestPickMoveIgnoresIllegalMoveWithoutMutatingState(t *testing.T) {
	c := New(Config{NumWorkers: 1})
	queue := []rules.PieceKind{rules.T, rules.O}
	state := newTestState(queue)
	c.Reset(state, queue)

	c.Start()
	time.Sleep(20 * time.Millisecond)
	c.Stop()
	c.Wait()

	before := c.graph.RootState()
	bogus := rules.Move{Place: rules.PieceState{Pos: rules.PiecePosition{Kind: rules.T, X: -99, Y: -99}}}
	c.PickMove(bogus)
	assert.Equal(t, before.Key(), c.graph.RootState().Key())
}

func TestSuggestReturnsNonEmptyPlanAfterWork(t *testing.T) {
	c := New(Config{NumWorkers: 1})
	queue := []rules.PieceKind{rules.I, rules.T, rules.O, rules.L, rules.J, rules.S, rules.Z}
	c.Reset(newTestState(queue), queue)

	c.Start()
	time.Sleep(50 * time.Millisecond)
	c.Stop()
	c.Wait()

	plan := c.Suggest()
	require.NotEmpty(t, plan)
}

func TestAddPieceAppendsToQueue(t *testing.T) {
	c := New(Config{NumWorkers: 1})
	queue := []rules.PieceKind{rules.T}
	c.Reset(newTestState(queue), queue)
	c.AddPiece(rules.I)
	assert.Equal(t, []rules.PieceKind{rules.T, rules.I}, c.graph.Queue())
}

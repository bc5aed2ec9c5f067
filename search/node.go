// Package search implements the generation-layered DAG search: a
// Generation is one piece-depth layer of the tree (node arena, action
// arena, transposition lookup, back-edges), and a Graph walks forward
// through successive generations running select/expand/backprop
// iterations and answering best_plan/advance/add_piece.
package search

import (
	"github.com/corvus-bot/corvus/arena"
	"github.com/corvus-bot/corvus/eval"
	"github.com/corvus-bot/corvus/rules"
)

// Node is one state inside a generation: its children (once expanded), its
// evaluated accumulator, and whether the subtree below it is dead (its
// spawn was infeasible, so it can never gain children).
type Node struct {
	Children     arena.IndexRange
	HasChildren  bool
	Value        eval.Accumulator
	Dead         bool
}

// Action is one edge out of a Node: the move it represents, the child node
// it leads to (in the next generation), the reward of taking it, the
// accumulated score recomputed from the child each backprop pass, and how
// many backprop passes have recomputed it.
type Action struct {
	Move     rules.Move
	Child    arena.Index
	Reward   eval.TransientReward
	Score    eval.Accumulator
	Visits   uint32
}

// SelectScore is the value select()'s weighted sampling and backprop's
// descending sort both order actions by.
func (a Action) SelectScore() int64 { return a.Score.SelectScore() }

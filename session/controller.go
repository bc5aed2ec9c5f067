// Package session owns the search graph behind a reader/writer lock and a
// bounded worker pool, and translates host commands (reset, start/stop,
// add_piece, pick_move, suggest, stats) into Graph operations. It never
// propagates transient errors to its caller: user-visible operations log
// to the diagnostic channel and leave the previous state untouched.
package session

import (
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"

	"github.com/corvus-bot/corvus/eval"
	"github.com/corvus-bot/corvus/rules"
	"github.com/corvus-bot/corvus/search"
)

// idlePoll is how long a worker sleeps between checks when the graph is
// briefly absent (between a reset tearing one down and a new one landing).
const idlePoll = 2 * time.Millisecond

// Config configures a Controller, mirroring the teacher's plain exported
// Config-struct-plus-IsValid shape.
type Config struct {
	NumWorkers int
}

// DefaultConfig returns a Config with a modest worker count, valid on its
// own.
func DefaultConfig() Config {
	return Config{NumWorkers: 4}
}

// IsValid reports whether c can be used to start a Controller.
func (c Config) IsValid() bool {
	return c.NumWorkers >= 1 && c.NumWorkers <= 64
}

// Controller owns a Graph under an RWMutex plus an abort flag, and runs a
// bounded worker pool that repeatedly calls Graph.Work while not aborted.
type Controller struct {
	cfg Config
	rng *rand.Rand
	ev  eval.Evaluator
	log *log.Logger

	mu    sync.RWMutex
	graph *search.Graph

	abort   atomic.Bool
	wg      sync.WaitGroup
	running atomic.Bool
}

// New builds a Controller with no graph installed; call Reset before
// Start.
func New(cfg Config) *Controller {
	if !cfg.IsValid() {
		cfg = DefaultConfig()
	}
	return &Controller{
		cfg: cfg,
		rng: rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		ev:  eval.NewEvaluator(),
		log: log.New(os.Stderr, "session: ", log.Ltime),
	}
}

// Reset installs a fresh graph rooted at state with the given queue,
// discarding any graph previously installed. Safe to call while workers
// are running: it takes the write lock, so in-flight iterations against
// the old graph finish (or are simply replaced) before this returns.
func (c *Controller) Reset(state rules.GameState, queue []rules.PieceKind) {
	g := search.NewGraph(state, queue, c.ev, c.rng)
	c.mu.Lock()
	c.graph = g
	c.mu.Unlock()
}

// Start clears the abort flag and spawns cfg.NumWorkers workers, each
// looping `take read lock; if a graph is present, Work(); else sleep
// briefly` until Stop is called. Calling Start while already running is a
// no-op.
func (c *Controller) Start() {
	if c.running.Swap(true) {
		return
	}

	c.abort.Store(false)
	for i := 0; i < c.cfg.NumWorkers; i++ {
		c.wg.Add(1)
		go c.workerLoop()
	}
}

func (c *Controller) workerLoop() {
	defer c.wg.Done()
	for !c.abort.Load() {
		c.mu.RLock()
		g := c.graph
		if g == nil {
			c.mu.RUnlock()
			time.Sleep(idlePoll)
			continue
		}
		g.Work()
		c.mu.RUnlock()
	}
}

// Stop sets the abort flag and returns immediately; it does not wait for
// workers to join (they observe the flag and exit after their current
// iteration). Call Wait if you need to block until they have.
func (c *Controller) Stop() {
	c.abort.Store(true)
	c.running.Store(false)
}

// Wait blocks until every worker spawned by the most recent Start has
// exited. Aggregates nothing itself — workers never return errors, they
// only ever stop — but is named to match the join-then-aggregate shape the
// teacher uses for shutdown (see arena.Rack.Len's multierror aggregation
// for the sibling pattern in this codebase).
func (c *Controller) Wait() {
	c.wg.Wait()
}

// AddPiece appends a newly revealed piece to the root queue under the
// write lock.
func (c *Controller) AddPiece(k rules.PieceKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil {
		return
	}
	c.graph.AddPiece(k)
}

// PickMove commits mv at the root under the write lock, silently ignoring
// (but logging) an illegal move: per §7, a `play` that doesn't match the
// tree's legal actions is logged and processing continues without
// mutating state.
func (c *Controller) PickMove(mv rules.Move) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil {
		return
	}
	if err := c.graph.Advance(mv); err != nil {
		c.log.Printf("pick_move: %v", err)
	}
}

// Suggest reads the current best plan under the read lock. Returns nil if
// no graph is installed or the tree has nothing to suggest yet.
func (c *Controller) Suggest() []rules.Move {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.graph == nil {
		return nil
	}
	return c.graph.BestPlan()
}

// Stats counts nodes across all materialized generations.
func (c *Controller) Stats() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.graph == nil {
		return 0
	}
	return c.graph.Stats()
}

// DumpDOT writes a diagnostic Graphviz dump of the head generation to
// stderr, or does nothing if no graph is installed.
func (c *Controller) DumpDOT() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.graph == nil {
		return
	}
	c.graph.DumpDOT()
}

// Command corvusbench runs the search graph against a synthetic empty-board
// opening for a fixed duration and reports nodes explored and
// nodes-per-second, in the spirit of the original engine's
// firefly/src/bin/profile.rs and sample.rs throughput probes.
package main

import (
	"flag"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/corvus-bot/corvus/eval"
	"github.com/corvus-bot/corvus/rules"
	"github.com/corvus-bot/corvus/search"
)

var (
	duration   = flag.Duration("duration", 5*time.Second, "how long to run the search")
	numWorkers = flag.Int("workers", 4, "number of concurrent workers hammering the graph")
	queueFlag  = flag.String("queue", "IOTLJSZ", "synthetic opening queue, one character per kind")
)

func main() {
	flag.Parse()

	queue := make([]rules.PieceKind, 0, len(*queueFlag))
	for i := 0; i < len(*queueFlag); i++ {
		k, ok := rules.KindFromByte((*queueFlag)[i])
		if !ok {
			fmt.Printf("corvusbench: skipping unknown kind byte %q\n", (*queueFlag)[i])
			continue
		}
		queue = append(queue, k)
	}

	root := rules.NewGameState(rules.Board{}, queue, rules.NoKind, rules.SevenBag(0), false, -1)
	rng := rand.New(rand.NewSource(1))
	graph := search.NewGraph(root, queue, eval.NewEvaluator(), rng)

	done := make(chan struct{})
	go func() {
		<-time.After(*duration)
		close(done)
	}()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(*numWorkers)
	for i := 0; i < *numWorkers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					graph.Work()
				}
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start).Seconds()
	nodes := graph.Stats()
	fmt.Printf("nodes=%d elapsed=%.2fs nps=%.0f\n", nodes, elapsed, float64(nodes)/elapsed)
}

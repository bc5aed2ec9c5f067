// Command corvus runs the search engine as a host-protocol bot: it reads
// newline-delimited JSON commands from stdin and writes replies to
// stdout, exactly as described in spec.md §6. stderr carries diagnostics
// only.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/corvus-bot/corvus/protocol"
	"github.com/corvus-bot/corvus/session"
)

func main() {
	numWorkers := flag.Int("workers", session.DefaultConfig().NumWorkers, "number of search workers")
	flag.Parse()

	cfg := session.Config{NumWorkers: *numWorkers}
	if !cfg.IsValid() {
		log.Fatalf("corvus: invalid worker count %d", *numWorkers)
	}

	sess := session.New(cfg)
	adapter := protocol.NewAdapter(sess, os.Stdout)

	if err := adapter.Run(os.Stdin); err != nil {
		log.Printf("corvus: %v", err)
		os.Exit(1)
	}
	os.Exit(0)
}

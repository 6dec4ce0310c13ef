package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/TobiSchelling/podcatcher/internal/collect"
	"github.com/TobiSchelling/podcatcher/internal/pipeline"
)

// interruptGate routes SIGINT: during a download it stops that download,
// while prompting it exits, otherwise it cancels the run.
type interruptGate struct {
	mu   sync.Mutex
	stop chan struct{}

	prompting atomic.Bool
	cancel    context.CancelFunc
	exit      func(code int)
}

func newInterruptGate(cancel context.CancelFunc) *interruptGate {
	return &interruptGate{cancel: cancel, exit: os.Exit}
}

func (g *interruptGate) Begin() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stop = make(chan struct{})
	return g.stop
}

func (g *interruptGate) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stop = nil
}

// Interrupt handles one SIGINT.
func (g *interruptGate) Interrupt() {
	if g.prompting.Load() {
		fmt.Fprintln(os.Stderr, "\nQuitting")
		g.exit(130)
		return
	}

	g.mu.Lock()
	stop := g.stop
	g.stop = nil
	g.mu.Unlock()

	if stop != nil {
		close(stop)
		return
	}
	g.cancel()
}

var yesAnswers = []string{"1", "on", "yes", "y", "true", "t"}

// parseDecision maps a prompt answer to a decision. Anything that is not a
// yes aborts.
func parseDecision(answer string) pipeline.Decision {
	answer = strings.ToLower(strings.TrimSpace(answer))
	for _, y := range yesAnswers {
		if answer == y {
			return pipeline.SkipAndMarkSeen
		}
	}
	return pipeline.AbortRun
}

// promptHandler asks on out whether an interrupted episode should be
// marked as seen.
func promptHandler(in io.Reader, out io.Writer, gate *interruptGate) pipeline.InterruptHandler {
	reader := bufio.NewReader(in)
	return func(item *collect.CandidateItem) pipeline.Decision {
		gate.prompting.Store(true)
		defer gate.prompting.Store(false)

		fmt.Fprintf(out, "\nDownload of %q interrupted.\nMark it as seen and continue? (y/n), Ctrl+C quits: ", item.Title)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return pipeline.AbortRun
		}
		return parseDecision(answer)
	}
}

package runtime

import (
	"context"
	"sync"
)

// taskGroup counts in-flight background work. Unlike sync.WaitGroup its
// wait can be abandoned through a context.
type taskGroup struct {
	idle chan struct{}
	mu   sync.Mutex
	n    int
}

func (g *taskGroup) add() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.n == 0 {
		g.idle = make(chan struct{})
	}
	g.n++
}

func (g *taskGroup) done() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n--
	if g.n == 0 {
		close(g.idle)
	}
}

func (g *taskGroup) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

func (g *taskGroup) wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.n == 0 {
			g.mu.Unlock()
			return nil
		}
		idle := g.idle
		g.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

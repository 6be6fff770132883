// Package gate tracks database connection readiness and lets callers wait,
// with a bounded budget, for a connection that is still being established.
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartstay/internal/domain"
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Gate is a connection-lifecycle object. Transitions are driven by the store's
// connector; the gate itself never dials.
type Gate struct {
	mu      sync.Mutex
	state   State
	lastErr error
	changed chan struct{} // closed and replaced on every transition
	timeout time.Duration
}

func New(timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gate{changed: make(chan struct{}), timeout: timeout}
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Err returns the error recorded by the last MarkDisconnected.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

func (g *Gate) Begin() { g.set(Connecting, nil) }

func (g *Gate) MarkConnected() { g.set(Connected, nil) }

func (g *Gate) MarkDisconnected(err error) { g.set(Disconnected, err) }

func (g *Gate) set(s State, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == s && err == nil {
		return
	}
	g.state = s
	g.lastErr = err
	close(g.changed)
	g.changed = make(chan struct{})
}

func (g *Gate) snapshot() (State, <-chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.changed
}

// Wait returns nil once the connection is ready. A disconnected gate fails at
// once; a connecting one is waited on for at most the gate's timeout. Every
// failure wraps domain.ErrDatabaseNotReady.
func (g *Gate) Wait(ctx context.Context) error {
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()
	for {
		st, changed := g.snapshot()
		switch st {
		case Connected:
			return nil
		case Disconnected:
			return fmt.Errorf("disconnected: %w", domain.ErrDatabaseNotReady)
		}
		select {
		case <-changed:
		case <-timer.C:
			return fmt.Errorf("still connecting after %s: %w", g.timeout, domain.ErrDatabaseNotReady)
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrDatabaseNotReady, ctx.Err())
		}
	}
}

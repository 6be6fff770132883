package gate_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"smartstay/internal/domain"
	"smartstay/internal/storage/gate"
)

func TestWait_ConnectedReturnsAtOnce(t *testing.T) {
	g := gate.New(time.Second)
	g.MarkConnected()
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestWait_DisconnectedFailsFast(t *testing.T) {
	g := gate.New(5 * time.Second)
	start := time.Now()
	err := g.Wait(context.Background())
	if !errors.Is(err, domain.ErrUnavailable) || !errors.Is(err, domain.ErrDatabaseNotReady) {
		t.Fatalf("expected ErrDatabaseNotReady, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("disconnected gate should not wait")
	}
}

func TestWait_ConnectingTimesOut(t *testing.T) {
	g := gate.New(80 * time.Millisecond)
	g.Begin()
	start := time.Now()
	err := g.Wait(context.Background())
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if el := time.Since(start); el < 80*time.Millisecond {
		t.Fatalf("returned before the budget: %v", el)
	}
}

// connecting at t=0, connected at t=20% of budget: the wait ends at the transition.
func TestWait_ConnectingThenConnected(t *testing.T) {
	g := gate.New(500 * time.Millisecond)
	g.Begin()
	go func() {
		time.Sleep(200 * time.Millisecond)
		g.MarkConnected()
	}()
	start := time.Now()
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	el := time.Since(start)
	if el < 180*time.Millisecond || el > 450*time.Millisecond {
		t.Fatalf("expected ~200ms added latency, got %v", el)
	}
}

func TestWait_ConnectingThenDisconnected(t *testing.T) {
	g := gate.New(time.Second)
	g.Begin()
	go func() {
		time.Sleep(30 * time.Millisecond)
		g.MarkDisconnected(errors.New("auth failed"))
	}()
	err := g.Wait(context.Background())
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if g.Err() == nil {
		t.Fatalf("expected last error to be recorded")
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	g := gate.New(time.Second)
	g.Begin()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := g.Wait(ctx); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestConnector_EstablishAfterFailures(t *testing.T) {
	g := gate.New(time.Second)
	var pings int32
	c := &gate.Connector{
		Gate: g,
		Ping: func(context.Context) error {
			if atomic.AddInt32(&pings, 1) < 3 {
				return errors.New("connection refused")
			}
			return nil
		},
		Interval: 10 * time.Millisecond,
		Budget:   time.Second,
	}
	if err := c.Establish(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if g.State() != gate.Connected {
		t.Fatalf("expected connected, got %s", g.State())
	}
	if atomic.LoadInt32(&pings) != 3 {
		t.Fatalf("expected 3 pings, got %d", pings)
	}
}

func TestConnector_BudgetExceeded(t *testing.T) {
	g := gate.New(time.Second)
	c := &gate.Connector{
		Gate:     g,
		Ping:     func(context.Context) error { return errors.New("connection refused") },
		Interval: 10 * time.Millisecond,
		Budget:   50 * time.Millisecond,
	}
	if err := c.Establish(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if g.State() != gate.Disconnected {
		t.Fatalf("expected disconnected, got %s", g.State())
	}
}

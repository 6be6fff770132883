package gate

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PingFunc checks that the database answers.
type PingFunc func(ctx context.Context) error

// Connector drives a Gate from ping results. Stores start one after dialing.
type Connector struct {
	Gate     *Gate
	Ping     PingFunc
	Interval time.Duration // between pings while connecting
	Budget   time.Duration // how long to stay connecting before giving up
	Health   time.Duration // between pings while connected
}

// Establish pings at Interval until the database answers or Budget elapses.
func (c *Connector) Establish(ctx context.Context) error {
	if c.Interval <= 0 {
		c.Interval = 500 * time.Millisecond
	}
	c.Gate.Begin()
	deadline := time.Now().Add(c.Budget)
	var err error
	for {
		pctx, cancel := context.WithTimeout(ctx, c.Interval*4)
		err = c.Ping(pctx)
		cancel()
		if err == nil {
			c.Gate.MarkConnected()
			log.Info().Msg("database connection ready")
			return nil
		}
		if ctx.Err() != nil || time.Now().Add(c.Interval).After(deadline) {
			break
		}
		log.Debug().Err(err).Msg("database not ready yet")
		t := time.NewTimer(c.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
		if ctx.Err() != nil {
			break
		}
	}
	c.Gate.MarkDisconnected(err)
	log.Error().Err(err).Dur("budget", c.Budget).Msg("database connection failed")
	return err
}

// Run establishes the connection, then keeps the gate in step with the
// database until ctx is cancelled.
func (c *Connector) Run(ctx context.Context) {
	_ = c.Establish(ctx)
	every := c.Health
	if every <= 0 {
		every = 10 * time.Second
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		pctx, cancel := context.WithTimeout(ctx, every)
		err := c.Ping(pctx)
		cancel()
		switch {
		case err == nil && c.Gate.State() != Connected:
			c.Gate.MarkConnected()
			log.Info().Msg("database connection recovered")
		case err != nil && c.Gate.State() == Connected:
			log.Warn().Err(err).Msg("database ping failed; reconnecting")
			_ = c.Establish(ctx)
		}
	}
}

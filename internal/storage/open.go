// Package storage selects and opens the configured Store driver.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"smartstay/internal/domain"
	"smartstay/internal/shared"
	"smartstay/internal/storage/gate"
	"smartstay/internal/storage/memory"
	mongostore "smartstay/internal/storage/mongo"
	mysqlrepo "smartstay/internal/storage/mysql"
)

// Open returns immediately; the gate reports when the store becomes usable.
func Open(ctx context.Context, cfg shared.Config, g *gate.Gate) (domain.Store, error) {
	log.Info().Str("driver", cfg.StoreDriver).Msg("opening store")
	switch cfg.StoreDriver {
	case "mongo", "mongodb":
		return mongostore.Open(ctx, mongostore.Options{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Interval: cfg.DBPingInterval,
			Budget:   cfg.DBBudget,
		}, g)
	case "mysql":
		return mysqlrepo.Open(mysqlrepo.Options{
			DSN:      cfg.MySQLDSN,
			Interval: cfg.DBPingInterval,
			Budget:   cfg.DBBudget,
		}, g)
	case "memory":
		g.MarkConnected()
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

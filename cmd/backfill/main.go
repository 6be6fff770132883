package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"smartstay/internal/adapters/clerk"
	"smartstay/internal/adapters/observability"
	"smartstay/internal/app"
	"smartstay/internal/shared"
	"smartstay/internal/storage"
	"smartstay/internal/storage/gate"
)

// backfill provisions every identity-provider user into the database.
func main() {
	pageSize := flag.Int("page", 100, "users per identity-provider page")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "backfill")

	log.Info().
		Str("base", cfg.ClerkAPIURL).
		Int("workers", cfg.BackfillWorker).
		Int("page", *pageSize).
		Msg("backfill starting")

	g := gate.New(cfg.DBBudget + time.Second)
	store, err := storage.Open(ctx, cfg, g)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer store.Close(context.Background())
	if err := g.Wait(ctx); err != nil {
		log.Fatal().Err(err).Msg("database not reachable")
	}
	log.Info().Msg("db ready")

	client, err := clerk.New(cfg.ClerkAPIURL, cfg.ClerkSecretKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize identity provider client")
	}

	// users are upserted with their profile only; authorization is not consulted
	users := app.NewUserService(store, nil, nil)
	res, err := app.NewBackfillService(client, users, *pageSize).Run(ctx, cfg.BackfillWorker)
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int64("synced", res.Synced).Int64("failed", res.Failed).Msg("backfill completed")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"smartstay/internal/adapters/authz"
	"smartstay/internal/adapters/clerk"
	server "smartstay/internal/adapters/http_server"
	"smartstay/internal/adapters/images"
	"smartstay/internal/adapters/observability"
	redisad "smartstay/internal/adapters/redis"
	"smartstay/internal/app"
	"smartstay/internal/domain"
	"smartstay/internal/shared"
	"smartstay/internal/storage"
	"smartstay/internal/storage/gate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	observability.Serve(cfg.MetricsAddr)

	// db: the server starts accepting requests while the connection is established
	g := gate.New(cfg.DBWaitTimeout)
	store, err := storage.Open(ctx, cfg, g)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}

	// deps
	enf, err := authz.New(cfg.CasbinModel, cfg.CasbinPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("casbin policy load failed")
	}
	az := app.NewAuthorizer(enf)

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; room list served from the store until it recovers")
		}
		cancel()
		cache = rc
	}

	var dir domain.Directory
	if cfg.ClerkSecretKey != "" {
		cl, err := clerk.New(cfg.ClerkAPIURL, cfg.ClerkSecretKey, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("identity provider client init failed")
		}
		dir = cl
	}

	var imgs domain.ImageStore
	if cfg.CloudinaryURL != "" {
		c, err := images.New(cfg.CloudinaryURL)
		if err != nil {
			log.Fatal().Err(err).Msg("cloudinary init failed")
		}
		imgs = c
	}

	h := &server.Handlers{Gate: g}
	if cfg.ClerkJWTKey != "" {
		v, err := clerk.NewVerifier(cfg.ClerkJWTKey)
		if err != nil {
			log.Fatal().Err(err).Msg("session token key invalid")
		}
		h.Tokens = v
	}
	if cfg.ClerkWebhookSecret != "" {
		wv, err := clerk.NewWebhookVerifier(cfg.ClerkWebhookSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("webhook secret invalid")
		}
		h.Webhooks = wv
	}

	h.Users = app.NewUserService(store, dir, az)
	h.Hotels = app.NewHotelService(h.Users, store, store, az)
	h.Rooms = app.NewRoomService(app.RoomDeps{
		Rooms: store, Hotels: store, Owners: h.Hotels, Users: h.Users,
		Images: imgs, Cache: cache, CacheTTL: cfg.CacheTTL, Authz: az,
	})
	h.Bookings = app.NewBookingService(store, store, store, h.Hotels, h.Users, az)

	// http
	srv := server.New(server.WithCORS(cfg.CORSOrigins, cfg.CORSHeaders))
	srv.Mount("/metrics", observability.Handler())
	srv.MountHandlers(h)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := store.Close(sctx); err != nil {
		log.Error().Err(err).Msg("store close failed")
	}
}

// Command server runs the presence and engagement HTTP API.
//
// Startup order: env + config, logging, tracing, database, presence store,
// broadcaster (optionally relayed over NATS), services, router, HTTP server.
// Shutdown reverses it on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/astree/pulse/internal/config"
	httpapi "github.com/astree/pulse/internal/http"
	"github.com/astree/pulse/internal/observability"
	"github.com/astree/pulse/internal/presence"
	"github.com/astree/pulse/internal/realtime"
	"github.com/astree/pulse/internal/repo"
	"github.com/astree/pulse/internal/services"
	"github.com/astree/pulse/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	// Presence store: in-process by default, Redis for multi-instance setups.
	var store presence.Store
	switch cfg.Presence.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Presence.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Presence.RedisAddr).Msg("redis unreachable")
		}
		store = presence.NewRedisStore(client)
	default:
		store = presence.NewMemoryStore()
	}

	hub := realtime.NewHub(cfg.Realtime.StreamBuffer)

	// Mutations publish through bus; with NATS configured that mirrors every
	// event to the other instances as well as the local hub.
	var bus realtime.Broadcaster = hub
	var relay *realtime.Relay
	if cfg.Realtime.NATSURL != "" {
		nc, err := nats.Connect(cfg.Realtime.NATSURL, nats.Name("pulse-"+version))
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.Realtime.NATSURL).Msg("nats connect failed")
		}
		relay, err = realtime.NewRelay(nc, hub)
		if err != nil {
			log.Fatal().Err(err).Msg("nats relay failed")
		}
		bus = relay
		defer nc.Close()
	}

	tracker := presence.NewTracker(store, bus, cfg.Presence.InactivityThreshold)
	sweeper := presence.NewSweeper(tracker, cfg.Presence.SweepInterval)
	sweeper.Start(ctx)

	notifSvc := services.NewNotificationService(db, bus)
	reactSvc := services.NewReactionService(db, bus, notifSvc)

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	httpapi.RegisterRoutes(router, httpapi.Deps{
		Presence:      tracker,
		Reactions:     reactSvc,
		Notifications: notifSvc,
		Stream:        hub,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	sweeper.Stop()
	if relay != nil {
		if err := relay.Close(); err != nil {
			log.Warn().Err(err).Msg("relay close failed")
		}
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// Command server boots the complaint backend: configuration, logging,
// storage, the optional redis change-event broker, OpenTelemetry tracing,
// and the Gin HTTP API, then runs until interrupted and shuts down
// gracefully.
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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/campusvoice/go-complaint-backend/internal/config"
	"github.com/campusvoice/go-complaint-backend/internal/events"
	httpapi "github.com/campusvoice/go-complaint-backend/internal/http"
	"github.com/campusvoice/go-complaint-backend/internal/observability"
	"github.com/campusvoice/go-complaint-backend/internal/repo"
	"github.com/campusvoice/go-complaint-backend/internal/sysutil"
)

// version is overridable at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	cfg := config.MustLoad()

	// CI sets APP_VERSION; ldflags wins when both are present.
	if version == "dev" {
		version = sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty || sysutil.IsTruthy(os.Getenv("FORCE_PRETTY_LOGS")) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	// Tracing (no-op unless enabled).
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Storage.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Change-event broker (optional).
	var pub events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Events.RedisAddr,
			DB:   cfg.Events.RedisDB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pctx).Err(); err != nil {
			cancel()
			log.Fatal().Err(err).Str("addr", cfg.Events.RedisAddr).Msg("redis unreachable")
		}
		cancel()
		defer func() { _ = rdb.Close() }()
		pub = events.NewBroker(rdb)
		log.Info().Str("addr", cfg.Events.RedisAddr).Str("channel", events.Channel).Msg("change events enabled")
	}

	// HTTP API.
	r := gin.New()
	httpapi.RegisterRoutes(r, db, pub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

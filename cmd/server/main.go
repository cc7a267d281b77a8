// Command server runs the social backend HTTP API.
//
// Startup order: load .env (best effort), read configuration, configure
// logging, connect to MongoDB and ensure indexes, configure tracing, mount
// routes, then serve until SIGINT/SIGTERM triggers a graceful drain.
//
// @title        Social Backend API
// @version      1.0
// @description  REST API for users, thoughts, and reactions backed by MongoDB.
// @BasePath     /api
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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/config"
	httpapi "github.com/tbourn/go-social-backend/internal/http"
	"github.com/tbourn/go-social-backend/internal/observability"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Best effort: a missing .env is fine in containers.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()
	client, err := repo.Connect(connectCtx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := repo.EnsureIndexes(connectCtx, db); err != nil {
		log.Fatal().Err(err).Msg("ensuring indexes failed")
	}

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// HTTP
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg)

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
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelDrain()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownOTel(drainCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
}

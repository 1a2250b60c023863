package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birthpad-backend/internal/app"
	"birthpad-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	setupLogging(cfg)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	if a.Rdb != nil {
		if err := a.Rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		log.Info().Msg("Redis connected")
	}
	if cfg.DatabaseURL != "" {
		log.Info().Msg("Postgres ledger connected")
	} else {
		log.Info().Str("path", cfg.SQLitePath).Msg("SQLite ledger opened")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Str("deploy_env", cfg.Deployment.Env).Msg("Server running")
		if err := a.Fiber.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("listener stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	if err := a.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if err := a.Close(); err != nil {
		log.Warn().Err(err).Msg("close")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

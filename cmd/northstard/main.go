// Package main provides the entry point for the northstar advisor service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"

	"github.com/averlane/northstar/internal/advisor"
	"github.com/averlane/northstar/internal/config"
	dbgorm "github.com/averlane/northstar/internal/db/gorm"
	"github.com/averlane/northstar/internal/llm"
	"github.com/averlane/northstar/internal/prediction"
	"github.com/averlane/northstar/internal/service"
)

var Version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().
		Str("version", Version).
		Msg("Starting northstar advisor")

	if err := config.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	store, err := dbgorm.NewStore(dbgorm.Config{
		Path:     cfg.DBPath,
		MaxConns: cfg.MaxConns,
		LogLevel: gormlogger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	recStore := dbgorm.NewRecommendationStore(store)
	predStore := dbgorm.NewPredictionStore(store)
	feedbackStore := dbgorm.NewFeedbackStore(store)

	primary, err := llm.NewCLIGenerator("", cfg.PrimaryModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create primary generator")
	}
	cheap, err := llm.NewCLIGenerator("", cfg.CheapModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cheap generator")
	}
	gens := llm.Tiers{Primary: primary, Cheap: cheap}

	ledger := prediction.NewLedger(predStore, cfg.PredictionThreshold, log.Logger)
	contexts := advisor.NewFileContextSource(config.DataDir())
	engine := advisor.NewEngine(gens, contexts, recStore, feedbackStore, predStore, ledger, cfg, advisor.DispatchConcurrent, log.Logger)

	svc := service.NewService(engine, ledger, recStore, feedbackStore, cfg, log.Logger)
	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start service")
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}

	log.Info().Msg("Advisor shutdown complete")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicenotes/internal/config"
	"voicenotes/internal/db"
	"voicenotes/internal/logger"
	"voicenotes/internal/reconcile"
	"voicenotes/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting reconciler")

	// Initialize database
	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	// Initialize repository
	repo := db.NewRepository(database)

	// Initialize storage backend
	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	service := reconcile.NewService(store, repo)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if cfg.Reconcile.RunOnStart {
			log.Info().Msg("Running initial sweep on startup")
			if _, err := service.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Initial sweep failed")
			}
		}

		ticker := time.NewTicker(cfg.Reconcile.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := service.Run(ctx); err != nil {
					log.Error().Err(err).Msg("Sweep failed")
				}
			}
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down reconciler...")
	cancel()

	log.Info().Msg("Reconciler exited")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"voicenotes/internal/config"
	"voicenotes/internal/db"
	"voicenotes/internal/logger"
	"voicenotes/internal/queue"
	"voicenotes/internal/storage"
	"voicenotes/internal/transcription"
	"voicenotes/internal/worker"
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

	log.Info().Str("version", cfg.App.Version).Msg("Starting transcription worker")

	if cfg.Transcription.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not configured, transcription will fail until it is set")
	}

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

	// Initialize Redis client
	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Create transcription worker
	client := transcription.NewClient(cfg)
	transcriber := worker.NewTranscriber(store, repo, client, transcription.ParsePayload)
	transcribeWorker := worker.NewTranscribeWorker(cfg, transcriber, redisClient)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker
	go func() {
		if err := transcribeWorker.Start(ctx); err != nil && err != context.Canceled {
			log.Fatal().Err(err).Msg("Transcription worker failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down transcription worker...")

	// Cancel context to stop worker
	cancel()
	transcribeWorker.Stop()

	log.Info().Msg("Transcription worker exited")
}

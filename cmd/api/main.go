package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"voicenotes/internal/api"
	"voicenotes/internal/clock"
	"voicenotes/internal/config"
	"voicenotes/internal/db"
	"voicenotes/internal/ingest"
	"voicenotes/internal/logger"
	"voicenotes/internal/queue"
	"voicenotes/internal/storage"
	"voicenotes/internal/transcription"
	"voicenotes/internal/worker"

	"github.com/gin-gonic/gin"
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

	log.Info().Str("version", cfg.App.Version).Msg("Starting API server")

	// The process may run without an API key; every transcription attempt
	// then fails until one is configured.
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select the transcription job dispatcher
	var dispatcher ingest.Dispatcher
	var pool *worker.WorkerPool

	switch cfg.Transcription.Mode {
	case "queue":
		redisClient, err := queue.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		dispatcher = queue.NewProducer(redisClient, cfg)
	default:
		client := transcription.NewClient(cfg)
		transcriber := worker.NewTranscriber(store, repo, client, transcription.ParsePayload)
		pool = worker.NewWorkerPool(cfg.Transcription.Workers)
		pool.Start(ctx)
		dispatcher = worker.NewPoolDispatcher(pool, transcriber)
	}

	// Initialize API handler
	handler := api.NewHandler(repo, store, dispatcher, clock.System(), cfg)

	// Setup Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(api.CORSMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.RecoveryMiddleware())

	// Static playback is only available with the local backend.
	filesRoot := ""
	if local, ok := store.(*storage.Local); ok {
		filesRoot = local.Root()
	}
	api.SetupRoutes(router, handler, filesRoot)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight transcription jobs finish before exiting.
	if pool != nil {
		pool.Stop()
	}
	cancel()

	log.Info().Msg("Server exited")
}

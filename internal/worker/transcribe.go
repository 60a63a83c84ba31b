package worker

import (
	"context"
	"encoding/json"

	"voicenotes/internal/config"
	"voicenotes/internal/logger"
	"voicenotes/internal/model"
	"voicenotes/internal/queue"

	"github.com/rs/zerolog"
)

// TranscribeWorker consumes transcription jobs from the Redis queue and
// runs them on a bounded pool. Used when the API runs in "queue" dispatch
// mode with a separate worker process.
type TranscribeWorker struct {
	cfg         *config.Config
	transcriber *Transcriber
	consumer    *queue.Consumer
	workerPool  *WorkerPool
	log         zerolog.Logger
}

func NewTranscribeWorker(
	cfg *config.Config,
	transcriber *Transcriber,
	redisClient *queue.RedisClient,
) *TranscribeWorker {
	return &TranscribeWorker{
		cfg:         cfg,
		transcriber: transcriber,
		consumer:    queue.NewConsumer(redisClient, cfg),
		workerPool:  NewWorkerPool(cfg.Transcription.Workers),
		log:         logger.Get(),
	}
}

func (w *TranscribeWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting transcription worker")

	w.workerPool.Start(ctx)

	return w.consumer.ConsumeTranscriptionQueue(ctx, w.handleMessage)
}

func (w *TranscribeWorker) Stop() {
	w.log.Info().Msg("Stopping transcription worker")
	w.workerPool.Stop()
}

func (w *TranscribeWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.TranscriptionJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal transcription job")
		return err
	}

	w.log.Info().Str("recording_id", job.RecordingID).Str("file_path", job.FilePath).Msg("Processing transcription job")

	return w.workerPool.Submit(func(ctx context.Context) error {
		return w.transcriber.Process(ctx, job)
	})
}

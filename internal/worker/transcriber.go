package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"voicenotes/internal/db"
	"voicenotes/internal/logger"
	"voicenotes/internal/model"
	"voicenotes/internal/storage"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Submit when the pool's job queue is full.
var ErrQueueFull = errors.New("worker pool job queue full")

// TranscriptionClient is the outbound contract of the Transcriber;
// satisfied by transcription.Client and by test fakes.
type TranscriptionClient interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// PayloadParser mirrors transcription.ParsePayload.
type PayloadParser func(raw string) (model.TranscriptionPayload, json.RawMessage, error)

// Transcriber runs one transcription job: read the audio, call the
// external API, reconcile the result into the record store. Failures are
// terminal for the job only; the record moves to FAILED and the process
// carries on.
type Transcriber struct {
	store  storage.Storage
	repo   db.Repository
	client TranscriptionClient
	parse  PayloadParser
	log    zerolog.Logger
}

func NewTranscriber(store storage.Storage, repo db.Repository, client TranscriptionClient, parse PayloadParser) *Transcriber {
	return &Transcriber{
		store:  store,
		repo:   repo,
		client: client,
		parse:  parse,
		log:    logger.Get(),
	}
}

func (t *Transcriber) Process(ctx context.Context, job model.TranscriptionJob) error {
	log := t.log.With().Str("recording_id", job.RecordingID).Str("file_path", job.FilePath).Logger()

	reader, err := t.store.Download(ctx, job.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open recording for transcription")
		return t.fail(ctx, job, log, err)
	}
	defer reader.Close()

	audio, err := io.ReadAll(reader)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read recording")
		return t.fail(ctx, job, log, err)
	}

	raw, err := t.client.Transcribe(ctx, audio, "audio/webm")
	if err != nil {
		log.Error().Err(err).Msg("Transcription request failed")
		return t.fail(ctx, job, log, err)
	}

	_, payload, err := t.parse(raw)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse transcription response")
		return t.fail(ctx, job, log, err)
	}

	updated, err := t.repo.CompleteTranscription(ctx, job.RecordingID, payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist transcription")
		return err
	}
	if !updated {
		// The recording was deleted (or already finished) while the job
		// was in flight. Harmless.
		log.Debug().Msg("Transcription update affected no rows")
		return nil
	}

	log.Info().Msg("Transcription completed")
	return nil
}

// fail marks the record FAILED and returns the original error. A zero-rows
// update means the record is gone; that is not an error.
func (t *Transcriber) fail(ctx context.Context, job model.TranscriptionJob, log zerolog.Logger, cause error) error {
	updated, err := t.repo.FailTranscription(ctx, job.RecordingID, cause.Error())
	if err != nil {
		log.Error().Err(err).Msg("Failed to mark recording as failed")
	} else if !updated {
		log.Debug().Msg("Failure update affected no rows")
	}
	return cause
}

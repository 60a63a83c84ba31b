package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"voicenotes/internal/clock"
	"voicenotes/internal/db"
	"voicenotes/internal/logger"
	"voicenotes/internal/model"
	"voicenotes/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher schedules a transcription job without awaiting its
// completion. Implementations: the in-process worker pool and the Redis
// producer.
type Dispatcher interface {
	Dispatch(ctx context.Context, job model.TranscriptionJob) error
}

// Options carries the optional parts of an upload.
type Options struct {
	// Date, when parseable as YYYY-MM-DD, overrides the partition date and
	// sets created_at to noon local time of that day.
	Date string

	// FilenameHint is the client-supplied filename. Only a "test_" prefix
	// is honored, to simplify automated-test cleanup.
	FilenameHint string
}

// Service coordinates an upload: file write, record insert, job dispatch.
// Write-before-insert ordering is the only cross-resource safety
// mechanism; there is no transaction spanning disk and database.
type Service struct {
	store      storage.Storage
	repo       db.Repository
	dispatcher Dispatcher
	clk        clock.Clock
	log        zerolog.Logger
}

func NewService(store storage.Storage, repo db.Repository, dispatcher Dispatcher, clk clock.Clock) *Service {
	return &Service{
		store:      store,
		repo:       repo,
		dispatcher: dispatcher,
		clk:        clk,
		log:        logger.Get(),
	}
}

func (s *Service) Ingest(ctx context.Context, data []byte, opts Options) (*model.Recording, error) {
	now := s.clk.Now()

	createdAt := now
	if opts.Date != "" {
		if day, err := time.ParseInLocation("2006-01-02", opts.Date, now.Location()); err == nil {
			createdAt = time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, now.Location())
		} else {
			s.log.Warn().Str("date", opts.Date).Msg("Unparsable date override, using current date")
		}
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("recording_%d_%s.webm", now.Unix(), id[:8])
	if strings.HasPrefix(opts.FilenameHint, "test_") {
		filename = "test_" + filename
	}
	key := storage.DateKey(createdAt, filename)

	// Network truncation should not silently lose the user's attempt, so
	// an empty payload still gets a file and a record.
	if len(data) == 0 {
		s.log.Warn().Str("file_path", key).Msg("Uploaded file is empty")
	}

	// File before row: a failed write must not leave a row pointing at a
	// missing file.
	if err := s.store.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store recording: %w", err)
	}

	rec := &model.Recording{
		ID:        id,
		Filename:  filename,
		FilePath:  key,
		Status:    model.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.repo.InsertRecording(ctx, rec); err != nil {
		// The written file stays behind as an orphan; the reconciler
		// reports it.
		s.log.Error().Err(err).Str("file_path", key).Msg("Record insert failed after file write, file orphaned")
		return nil, fmt.Errorf("failed to insert recording: %w", err)
	}

	s.log.Info().
		Str("recording_id", id).
		Str("file_path", key).
		Int("size_bytes", len(data)).
		Msg("Recording stored")

	job := model.TranscriptionJob{RecordingID: id, FilePath: key}
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		// The record stays PENDING and can be re-dispatched manually.
		s.log.Error().Err(err).Str("recording_id", id).Msg("Failed to dispatch transcription job")
	}

	return rec, nil
}

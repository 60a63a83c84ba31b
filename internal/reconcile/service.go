package reconcile

import (
	"context"

	"voicenotes/internal/db"
	"voicenotes/internal/logger"
	"voicenotes/internal/storage"

	"github.com/rs/zerolog"
)

// Report summarizes one sweep. Orphans are files without a record;
// missing files are records whose object is gone. Both are logged, never
// deleted automatically — the record store is the authoritative existence
// check and cleanup is an operator decision.
type Report struct {
	ScannedFiles int
	OrphanFiles  []string
	MissingFiles []string
}

// Service sweeps storage and the record store for disagreements left
// behind by partial failures (insert failed after write, file delete
// failed after row delete).
type Service struct {
	store storage.Storage
	repo  db.Repository
	log   zerolog.Logger
}

func NewService(store storage.Storage, repo db.Repository) *Service {
	return &Service{
		store: store,
		repo:  repo,
		log:   logger.Get(),
	}
}

func (s *Service) Run(ctx context.Context) (*Report, error) {
	known, err := s.repo.ListFilePaths(ctx)
	if err != nil {
		return nil, err
	}

	knownSet := make(map[string]bool, len(known))
	for _, path := range known {
		knownSet[path] = false
	}

	report := &Report{}
	err = s.store.Walk(ctx, "", func(key string) error {
		report.ScannedFiles++
		if _, ok := knownSet[key]; ok {
			knownSet[key] = true
		} else {
			report.OrphanFiles = append(report.OrphanFiles, key)
			s.log.Warn().Str("file_path", key).Msg("Orphan file: no matching recording")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for path, seen := range knownSet {
		if !seen {
			report.MissingFiles = append(report.MissingFiles, path)
			s.log.Warn().Str("file_path", path).Msg("Missing file: recording has no stored object")
		}
	}

	s.log.Info().
		Int("scanned", report.ScannedFiles).
		Int("orphans", len(report.OrphanFiles)).
		Int("missing", len(report.MissingFiles)).
		Msg("Reconciliation sweep finished")

	return report, nil
}

package storage

import (
	"fmt"

	"voicenotes/internal/config"
)

// New builds the configured storage backend.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Backend {
	case "local":
		return NewLocal(cfg.Storage.Local.Root)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

package storage

import (
	"context"
	"io"
)

// WalkFunc is called with the storage-relative key of every stored object.
type WalkFunc func(key string) error

// Storage is a flat keyed blob store. Keys are slash-separated relative
// paths; implementations must reject keys that escape the storage root.
type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete returns true when an object was actually removed.
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Walk(ctx context.Context, prefix string, fn WalkFunc) error
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	apperrors "voicenotes/pkg/errors"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return local
}

func TestLocalUploadDownload(t *testing.T) {
	local := newTestLocal(t)
	ctx := context.Background()

	content := []byte("Test Data")
	key := "2026/1/12/recording_1.webm"

	if err := local.Upload(ctx, key, bytes.NewReader(content)); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// The date directory must exist on disk.
	if _, err := os.Stat(filepath.Join(local.Root(), "2026", "1", "12")); err != nil {
		t.Fatalf("date directory not created: %v", err)
	}

	reader, err := local.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Download() = %q, want %q", got, content)
	}
}

func TestLocalUploadEmpty(t *testing.T) {
	local := newTestLocal(t)
	ctx := context.Background()

	key := "2026/1/12/recording_empty.webm"
	if err := local.Upload(ctx, key, bytes.NewReader(nil)); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(local.Root(), filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("file size = %d, want 0", info.Size())
	}
}

func TestLocalUploadLeavesNoTempFile(t *testing.T) {
	local := newTestLocal(t)
	ctx := context.Background()

	key := "2026/1/12/recording_1.webm"
	if err := local.Upload(ctx, key, bytes.NewReader([]byte("data"))); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(local.Root(), filepath.FromSlash(key))+".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file still present after upload")
	}
}

func TestLocalDelete(t *testing.T) {
	local := newTestLocal(t)
	ctx := context.Background()

	key := "2026/1/12/recording_1.webm"
	if err := local.Upload(ctx, key, bytes.NewReader([]byte("data"))); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	removed, err := local.Delete(ctx, key)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !removed {
		t.Error("Delete() = false, want true for existing file")
	}

	// Second delete finds nothing.
	removed, err = local.Delete(ctx, key)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed {
		t.Error("Delete() = true, want false for missing file")
	}
}

func TestLocalExists(t *testing.T) {
	local := newTestLocal(t)
	ctx := context.Background()

	key := "2026/1/12/recording_1.webm"

	exists, err := local.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true before upload")
	}

	if err := local.Upload(ctx, key, bytes.NewReader([]byte("data"))); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	exists, err = local.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false after upload")
	}
}

func TestLocalRejectsUnsafeKeys(t *testing.T) {
	local := newTestLocal(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
	}{
		{name: "parent directory segment", key: "2026/../../etc/passwd"},
		{name: "leading parent segment", key: "../outside.webm"},
		{name: "absolute path", key: "/etc/passwd"},
		{name: "empty key", key: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := local.Upload(ctx, tt.key, bytes.NewReader([]byte("x"))); !errors.Is(err, apperrors.ErrUnsafePath) {
				t.Errorf("Upload() error = %v, want ErrUnsafePath", err)
			}
			if _, err := local.Download(ctx, tt.key); !errors.Is(err, apperrors.ErrUnsafePath) {
				t.Errorf("Download() error = %v, want ErrUnsafePath", err)
			}
			if _, err := local.Delete(ctx, tt.key); !errors.Is(err, apperrors.ErrUnsafePath) {
				t.Errorf("Delete() error = %v, want ErrUnsafePath", err)
			}
		})
	}
}

func TestLocalWalk(t *testing.T) {
	local := newTestLocal(t)
	ctx := context.Background()

	keys := []string{
		"2026/1/12/recording_1.webm",
		"2026/1/12/recording_2.webm",
		"2026/2/3/recording_3.webm",
	}
	for _, key := range keys {
		if err := local.Upload(ctx, key, bytes.NewReader([]byte("data"))); err != nil {
			t.Fatalf("Upload(%s) error = %v", key, err)
		}
	}

	var got []string
	err := local.Walk(ctx, "", func(key string) error {
		got = append(got, key)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	sort.Strings(got)
	if len(got) != len(keys) {
		t.Fatalf("Walk() visited %d keys, want %d: %v", len(got), len(keys), got)
	}
	for i, key := range keys {
		if got[i] != key {
			t.Errorf("Walk() key[%d] = %q, want %q", i, got[i], key)
		}
	}
}

func TestLocalWalkEmptyRoot(t *testing.T) {
	local := newTestLocal(t)

	count := 0
	err := local.Walk(context.Background(), "", func(string) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Walk() visited %d keys, want 0", count)
	}
}

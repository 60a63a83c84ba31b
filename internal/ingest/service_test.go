package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voicenotes/internal/clock"
	"voicenotes/internal/db"
	"voicenotes/internal/model"
	"voicenotes/internal/storage"
)

type fakeRepo struct {
	db.Repository
	inserted  []*model.Recording
	insertErr error
}

func (f *fakeRepo) InsertRecording(ctx context.Context, rec *model.Recording) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

type fakeDispatcher struct {
	jobs        []model.TranscriptionJob
	dispatchErr error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, job model.TranscriptionJob) error {
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) Upload(ctx context.Context, key string, data io.Reader) error {
	return errors.New("disk full")
}

var testNow = time.Date(2026, time.March, 5, 10, 30, 0, 0, time.Local)

func newTestService(t *testing.T) (*Service, *storage.Local, *fakeRepo, *fakeDispatcher) {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	repo := &fakeRepo{}
	dispatcher := &fakeDispatcher{}
	return NewService(local, repo, dispatcher, clock.Fixed(testNow)), local, repo, dispatcher
}

func TestIngest(t *testing.T) {
	service, local, repo, dispatcher := newTestService(t)

	content := []byte("Test Data")
	rec, err := service.Ingest(context.Background(), content, Options{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if rec.Status != model.StatusPending {
		t.Errorf("Status = %q, want PENDING", rec.Status)
	}
	if !rec.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, testNow)
	}
	if !strings.HasPrefix(rec.FilePath, "2026/3/5/recording_") {
		t.Errorf("FilePath = %q, want today's date partition", rec.FilePath)
	}
	if !strings.HasSuffix(rec.Filename, ".webm") {
		t.Errorf("Filename = %q, want .webm suffix", rec.Filename)
	}

	// Exactly one row and one dispatched job, keyed to the record.
	if len(repo.inserted) != 1 || repo.inserted[0].ID != rec.ID {
		t.Fatalf("inserted rows = %+v, want one row for %s", repo.inserted, rec.ID)
	}
	if len(dispatcher.jobs) != 1 {
		t.Fatalf("dispatched jobs = %d, want 1", len(dispatcher.jobs))
	}
	if dispatcher.jobs[0].RecordingID != rec.ID || dispatcher.jobs[0].FilePath != rec.FilePath {
		t.Errorf("job = %+v, does not match record", dispatcher.jobs[0])
	}

	// The stored file is byte-for-byte the uploaded payload.
	data, err := os.ReadFile(filepath.Join(local.Root(), filepath.FromSlash(rec.FilePath)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "Test Data" {
		t.Errorf("stored content = %q, want %q", data, content)
	}
}

func TestIngestDateOverride(t *testing.T) {
	service, _, repo, _ := newTestService(t)

	rec, err := service.Ingest(context.Background(), []byte("x"), Options{Date: "2026-01-12"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if !strings.HasPrefix(rec.FilePath, "2026/1/12/") {
		t.Errorf("FilePath = %q, want 2026/1/12 partition", rec.FilePath)
	}

	want := time.Date(2026, time.January, 12, 12, 0, 0, 0, time.Local)
	if !rec.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want noon of override date %v", rec.CreatedAt, want)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted rows = %d, want 1", len(repo.inserted))
	}
}

func TestIngestBadDateOverrideFallsBack(t *testing.T) {
	service, _, _, _ := newTestService(t)

	rec, err := service.Ingest(context.Background(), []byte("x"), Options{Date: "12-01-2026"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !strings.HasPrefix(rec.FilePath, "2026/3/5/") {
		t.Errorf("FilePath = %q, want current date partition", rec.FilePath)
	}
}

func TestIngestTestPrefixHint(t *testing.T) {
	service, _, _, _ := newTestService(t)

	rec, err := service.Ingest(context.Background(), []byte("x"), Options{FilenameHint: "test_blob.webm"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !strings.HasPrefix(rec.Filename, "test_recording_") {
		t.Errorf("Filename = %q, want test_ prefix preserved", rec.Filename)
	}
}

func TestIngestEmptyPayload(t *testing.T) {
	service, local, repo, _ := newTestService(t)

	rec, err := service.Ingest(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(local.Root(), filepath.FromSlash(rec.FilePath)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("file size = %d, want 0", info.Size())
	}
	if len(repo.inserted) != 1 {
		t.Errorf("inserted rows = %d, want 1 even for an empty payload", len(repo.inserted))
	}
}

func TestIngestStorageFailure(t *testing.T) {
	repo := &fakeRepo{}
	dispatcher := &fakeDispatcher{}
	service := NewService(failingStorage{}, repo, dispatcher, clock.Fixed(testNow))

	_, err := service.Ingest(context.Background(), []byte("x"), Options{})
	if err == nil {
		t.Fatal("Ingest() error = nil, want error")
	}
	// Write-before-insert: a failed write leaves no row and no job.
	if len(repo.inserted) != 0 {
		t.Errorf("inserted rows = %d, want 0 after write failure", len(repo.inserted))
	}
	if len(dispatcher.jobs) != 0 {
		t.Errorf("dispatched jobs = %d, want 0 after write failure", len(dispatcher.jobs))
	}
}

func TestIngestInsertFailureLeavesOrphan(t *testing.T) {
	local, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	repo := &fakeRepo{insertErr: errors.New("db down")}
	dispatcher := &fakeDispatcher{}
	service := NewService(local, repo, dispatcher, clock.Fixed(testNow))

	_, err = service.Ingest(context.Background(), []byte("x"), Options{})
	if err == nil {
		t.Fatal("Ingest() error = nil, want error")
	}
	if len(dispatcher.jobs) != 0 {
		t.Errorf("dispatched jobs = %d, want 0 after insert failure", len(dispatcher.jobs))
	}

	// The written file stays behind as an orphan; there is no rollback.
	var orphans int
	if err := local.Walk(context.Background(), "", func(string) error {
		orphans++
		return nil
	}); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if orphans != 1 {
		t.Errorf("orphan files = %d, want 1", orphans)
	}
}

func TestIngestDispatchFailureStillSucceeds(t *testing.T) {
	local, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	repo := &fakeRepo{}
	dispatcher := &fakeDispatcher{dispatchErr: errors.New("queue full")}
	service := NewService(local, repo, dispatcher, clock.Fixed(testNow))

	rec, err := service.Ingest(context.Background(), []byte("x"), Options{})
	if err != nil {
		t.Fatalf("Ingest() error = %v, dispatch failure must not fail the upload", err)
	}
	if rec.Status != model.StatusPending {
		t.Errorf("Status = %q, want PENDING", rec.Status)
	}
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"voicenotes/internal/model"
	apperrors "voicenotes/pkg/errors"
)

// Repository is the single source of truth for which recordings exist.
// Status transitions are guarded in SQL so a completion can never be
// applied twice and a deleted row turns an in-flight update into a no-op.
type Repository interface {
	InsertRecording(ctx context.Context, rec *model.Recording) error
	GetRecording(ctx context.Context, id string) (*model.Recording, error)
	GetRecordingByPath(ctx context.Context, filePath string) (*model.Recording, error)
	ListRecordingsByDate(ctx context.Context, day time.Time) ([]model.Recording, error)
	CompleteTranscription(ctx context.Context, id string, payload json.RawMessage) (bool, error)
	FailTranscription(ctx context.Context, id string, errorMessage string) (bool, error)
	ResetTranscription(ctx context.Context, id string) (bool, error)
	DeleteRecording(ctx context.Context, id string) (bool, error)
	UpdateRecordingGroup(ctx context.Context, id string, groupID *int64) (bool, error)
	ListFilePaths(ctx context.Context) ([]string, error)

	ListGroups(ctx context.Context) ([]model.TaskGroup, error)
	CreateGroup(ctx context.Context, group *model.TaskGroup) error
	DeleteGroup(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const recordingColumns = `id, filename, file_path, status, transcription, error_message, group_id, created_at, updated_at`

func (r *repository) InsertRecording(ctx context.Context, rec *model.Recording) error {
	query := `INSERT INTO recordings (id, filename, file_path, status, group_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.Filename, rec.FilePath,
		rec.Status, rec.GroupID, rec.CreatedAt, rec.CreatedAt)
	return err
}

func (r *repository) GetRecording(ctx context.Context, id string) (*model.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE id = ?`
	return r.scanRecording(r.db.QueryRowContext(ctx, query, id))
}

func (r *repository) GetRecordingByPath(ctx context.Context, filePath string) (*model.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE file_path = ?`
	return r.scanRecording(r.db.QueryRowContext(ctx, query, filePath))
}

func (r *repository) scanRecording(row *sql.Row) (*model.Recording, error) {
	var rec model.Recording
	var transcription sql.NullString
	err := row.Scan(&rec.ID, &rec.Filename, &rec.FilePath, &rec.Status,
		&transcription, &rec.ErrorMessage, &rec.GroupID, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrRecordingNotFound
	}
	if err != nil {
		return nil, err
	}
	if transcription.Valid {
		rec.Transcription = json.RawMessage(transcription.String)
	}
	return &rec, nil
}

func (r *repository) ListRecordingsByDate(ctx context.Context, day time.Time) ([]model.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings
			  WHERE DATE(created_at) = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recordings []model.Recording
	for rows.Next() {
		var rec model.Recording
		var transcription sql.NullString
		err := rows.Scan(&rec.ID, &rec.Filename, &rec.FilePath, &rec.Status,
			&transcription, &rec.ErrorMessage, &rec.GroupID, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if transcription.Valid {
			rec.Transcription = json.RawMessage(transcription.String)
		}
		recordings = append(recordings, rec)
	}

	return recordings, rows.Err()
}

func (r *repository) CompleteTranscription(ctx context.Context, id string, payload json.RawMessage) (bool, error) {
	query := `UPDATE recordings SET status = ?, transcription = ?, error_message = NULL, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, model.StatusCompleted, []byte(payload), id, model.StatusPending)
	if err != nil {
		return false, err
	}
	return rowsAffected(result)
}

func (r *repository) FailTranscription(ctx context.Context, id string, errorMessage string) (bool, error) {
	query := `UPDATE recordings SET status = ?, error_message = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, model.StatusFailed, errorMessage, id, model.StatusPending)
	if err != nil {
		return false, err
	}
	return rowsAffected(result)
}

// ResetTranscription puts a non-completed recording back to PENDING so it
// can be dispatched again. Completed recordings are never reset.
func (r *repository) ResetTranscription(ctx context.Context, id string) (bool, error) {
	query := `UPDATE recordings SET status = ?, transcription = NULL, error_message = NULL, updated_at = NOW()
			  WHERE id = ? AND status <> ?`

	result, err := r.db.ExecContext(ctx, query, model.StatusPending, id, model.StatusCompleted)
	if err != nil {
		return false, err
	}
	return rowsAffected(result)
}

func (r *repository) DeleteRecording(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(result)
}

func (r *repository) UpdateRecordingGroup(ctx context.Context, id string, groupID *int64) (bool, error) {
	query := `UPDATE recordings SET group_id = ?, updated_at = NOW() WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, groupID, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(result)
}

func (r *repository) ListFilePaths(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT file_path FROM recordings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, rows.Err()
}

func (r *repository) ListGroups(ctx context.Context) ([]model.TaskGroup, error) {
	query := `SELECT id, name, description, ordering FROM task_groups ORDER BY ordering ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.TaskGroup
	for rows.Next() {
		var group model.TaskGroup
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.Ordering); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

func (r *repository) CreateGroup(ctx context.Context, group *model.TaskGroup) error {
	query := `INSERT INTO task_groups (name, description, ordering) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, group.Name, group.Description, group.Ordering)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	group.ID = id
	return nil
}

// DeleteGroup removes a group; recordings referencing it get a NULL
// group_id through the ON DELETE SET NULL foreign key.
func (r *repository) DeleteGroup(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM task_groups WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

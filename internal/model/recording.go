package model

import (
	"encoding/json"
	"time"
)

type RecordingStatus string

const (
	StatusPending   RecordingStatus = "PENDING"
	StatusCompleted RecordingStatus = "COMPLETED"
	StatusFailed    RecordingStatus = "FAILED"
)

// Recording is one uploaded audio artifact plus its metadata and
// transcription state. FilePath is storage-relative and date-partitioned
// (year/month/day/filename); it is immutable once set.
type Recording struct {
	ID            string          `json:"id" db:"id"`
	Filename      string          `json:"filename" db:"filename"`
	FilePath      string          `json:"file_path" db:"file_path"`
	Status        RecordingStatus `json:"status" db:"status"`
	Transcription json.RawMessage `json:"transcription,omitempty" db:"transcription"`
	ErrorMessage  *string         `json:"error_message,omitempty" db:"error_message"`
	GroupID       *int64          `json:"group_id,omitempty" db:"group_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// TranscriptionPayload is the loosely validated result of a transcription.
// Any JSON object is accepted; missing fields fall back to documented
// defaults through the accessors.
type TranscriptionPayload map[string]interface{}

// Title returns the payload title, or fallback (the recording's filename)
// when the field is absent or not a string.
func (p TranscriptionPayload) Title(fallback string) string {
	if v, ok := p["title"].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Transcript returns the payload transcript, or "" when absent.
func (p TranscriptionPayload) Transcript() string {
	if v, ok := p["transcript"].(string); ok {
		return v
	}
	return ""
}

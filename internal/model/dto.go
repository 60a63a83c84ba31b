package model

import "encoding/json"

// TranscriptionJob is the background unit of work dispatched after an
// upload. FilePath is the storage-relative key, so the job is valid in a
// separate worker process regardless of storage backend.
type TranscriptionJob struct {
	RecordingID string `json:"recording_id"`
	FilePath    string `json:"file_path"`
}

// RecordingResponse is the wire shape of a recording in list responses.
// Path is always "/files/" followed by the date-partitioned relative path.
type RecordingResponse struct {
	ID            string          `json:"id"`
	Path          string          `json:"path"`
	Name          string          `json:"name"`
	Status        RecordingStatus `json:"status"`
	Transcription json.RawMessage `json:"transcription"`
	GroupID       *int64          `json:"group_id"`
}

type DeleteRequest struct {
	Path string `json:"path"`
}

type UpdateGroupRequest struct {
	GroupID *int64 `json:"group_id"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Ordering    int    `json:"ordering"`
}

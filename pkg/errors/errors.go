package errors

import (
	"errors"
	"fmt"
)

var (
	ErrRecordingNotFound = errors.New("recording not found")
	ErrGroupNotFound     = errors.New("task group not found")
	ErrMissingCredential = errors.New("transcription API key is not configured")
	ErrEmptyResponse     = errors.New("no transcription text found in response")
	ErrUnsafePath        = errors.New("path escapes storage root")
)

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

// APIError carries the HTTP status and response body of a failed call
// to the external transcription API for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("external API error: HTTP %d: %s", e.StatusCode, e.Body)
}

func NewAPIError(statusCode int, body string) error {
	return APIError{
		StatusCode: statusCode,
		Body:       body,
	}
}

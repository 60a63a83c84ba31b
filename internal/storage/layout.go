package storage

import (
	"fmt"
	"time"
)

// DateDir returns the date-partitioned directory for t, with unpadded
// month and day: "2026/1/12".
func DateDir(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Year(), int(t.Month()), t.Day())
}

// DateKey returns the storage key for a file created at t.
func DateKey(t time.Time, filename string) string {
	return DateDir(t) + "/" + filename
}

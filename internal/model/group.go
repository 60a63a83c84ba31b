package model

// TaskGroup is a user-defined category a recording may optionally belong
// to. Deleting a group nulls the group_id of its recordings; it never
// cascades to the recordings themselves.
type TaskGroup struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Ordering    int    `json:"ordering" db:"ordering"`
}

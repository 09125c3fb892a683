// Package models defines the domain types for HomeworkHub.
package models

import "time"

// Task sources.
const (
	SourceManual = "manual"
	SourceToddle = "toddle"
)

// Task is a single homework assignment.
//
// Tasks with Source == SourceManual are owned by the user and freely
// editable. Tasks with Source == SourceToddle are managed exclusively by the
// calendar sync reconciler: the user may toggle Completed but may not edit
// other fields or delete them.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	TaskName    string    `json:"taskName"`
	Subject     string    `json:"subject"`
	DueDate     string    `json:"dueDate"` // calendar day, YYYY-MM-DD
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Completed   bool      `json:"completed"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
	ExternalID  string    `json:"externalId,omitempty"`
}

// Synced reports whether the task is managed by the sync reconciler.
func (t *Task) Synced() bool {
	return t.Source == SourceToddle
}

// SyncSettings is the per-user singleton holding calendar sync state.
type SyncSettings struct {
	ICalURL      string     `json:"icalUrl"`
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`
}

// SyncResult summarizes a successful reconciliation run.
type SyncResult struct {
	Count        int       `json:"count"`
	LastSyncTime time.Time `json:"lastSyncTime"`
}

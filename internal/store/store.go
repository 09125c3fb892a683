// Package store provides SQLite-backed persistence for tasks and sync settings.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/andrewcz-se/homeworkhub/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	task_name   TEXT NOT NULL,
	subject     TEXT NOT NULL DEFAULT 'Other',
	due_date    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	completed   INTEGER NOT NULL DEFAULT 0,
	source      TEXT NOT NULL DEFAULT 'manual' CHECK (source IN ('manual', 'toddle')),
	created_at  DATETIME NOT NULL,
	external_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks(user_id, due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_user_source ON tasks(user_id, source);

CREATE TABLE IF NOT EXISTS sync_settings (
	user_id        TEXT PRIMARY KEY,
	ical_url       TEXT NOT NULL DEFAULT '',
	last_sync_time DATETIME
);
`

// TaskFilter narrows ListTasks results.
type TaskFilter struct {
	Source    string // "" for all
	Completed *bool  // nil for all
}

// TaskStore defines the persistence operations the service and reconciler
// depend on. Consumers should depend on this interface rather than the
// concrete *DB type to facilitate testing with mocks.
type TaskStore interface {
	CreateTask(t *models.Task) error
	GetTask(userID, id string) (*models.Task, error)
	UpdateTask(t *models.Task) error
	SetCompleted(userID, id string, completed bool) error
	DeleteTask(userID, id string) error
	ListTasks(userID string, f TaskFilter) ([]models.Task, error)
	ReplaceSynced(userID string, tasks []models.Task, syncTime time.Time) (int, error)
	GetSyncSettings(userID string) (models.SyncSettings, error)
	SaveSyncURL(userID, url string) error
	Close() error
}

// Verify *DB satisfies TaskStore at compile time.
var _ TaskStore = (*DB)(nil)

// DB wraps a sql.DB with task-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

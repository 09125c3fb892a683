package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrewcz-se/homeworkhub/internal/apperr"
	"github.com/andrewcz-se/homeworkhub/internal/models"
)

const taskColumns = `id, user_id, task_name, subject, due_date, description, location, completed, source, created_at, external_id`

// CreateTask inserts a task, assigning a fresh ID when none is set.
func (db *DB) CreateTask(t *models.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.TaskName, t.Subject, t.DueDate, t.Description,
		t.Location, t.Completed, t.Source, t.CreatedAt, t.ExternalID)
	if err != nil {
		return fmt.Errorf("store: create task: %w", err)
	}
	return nil
}

// GetTask returns one task owned by the user, or apperr.ErrNotFound.
func (db *DB) GetTask(userID, id string) (*models.Task, error) {
	row := db.conn.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get task: %w", err)
	}
	return t, nil
}

// UpdateTask rewrites the mutable display fields of a task.
func (db *DB) UpdateTask(t *models.Task) error {
	res, err := db.conn.Exec(`
		UPDATE tasks
		SET task_name = ?, subject = ?, due_date = ?, description = ?, location = ?, completed = ?
		WHERE user_id = ? AND id = ?
	`, t.TaskName, t.Subject, t.DueDate, t.Description, t.Location, t.Completed, t.UserID, t.ID)
	if err != nil {
		return fmt.Errorf("store: update task: %w", err)
	}
	return requireRow(res)
}

// SetCompleted flips only the completed flag.
func (db *DB) SetCompleted(userID, id string, completed bool) error {
	res, err := db.conn.Exec(`UPDATE tasks SET completed = ? WHERE user_id = ? AND id = ?`,
		completed, userID, id)
	if err != nil {
		return fmt.Errorf("store: set completed: %w", err)
	}
	return requireRow(res)
}

// DeleteTask removes a task owned by the user.
func (db *DB) DeleteTask(userID, id string) error {
	res, err := db.conn.Exec(`DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("store: delete task: %w", err)
	}
	return requireRow(res)
}

// ListTasks returns the user's tasks ordered by due date then creation time.
func (db *DB) ListTasks(userID string, f TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, f.Source)
	}
	if f.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *f.Completed)
	}
	query += ` ORDER BY due_date, created_at`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list tasks: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ReplaceSynced atomically swaps the user's synced task set: every existing
// source='toddle' row is deleted, the given tasks are inserted, and the
// sync settings row gets the new last_sync_time — all in one transaction,
// so readers never observe a partially replaced set. Manual tasks are not
// touched. Returns the number of inserted tasks.
func (db *DB) ReplaceSynced(userID string, tasks []models.Task, syncTime time.Time) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM tasks WHERE user_id = ? AND source = ?`,
		userID, models.SourceToddle); err != nil {
		return 0, fmt.Errorf("store: delete synced: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.UserID = userID
		t.Source = models.SourceToddle
		if _, err := stmt.Exec(t.ID, t.UserID, t.TaskName, t.Subject, t.DueDate,
			t.Description, t.Location, t.Completed, t.Source, t.CreatedAt, t.ExternalID); err != nil {
			return 0, fmt.Errorf("store: insert synced: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO sync_settings (user_id, last_sync_time) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_sync_time = excluded.last_sync_time
	`, userID, syncTime); err != nil {
		return 0, fmt.Errorf("store: update sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return len(tasks), nil
}

// GetSyncSettings returns the user's sync settings; a user without a row
// gets zero-value settings rather than an error.
func (db *DB) GetSyncSettings(userID string) (models.SyncSettings, error) {
	var s models.SyncSettings
	var last sql.NullTime
	err := db.conn.QueryRow(`SELECT ical_url, last_sync_time FROM sync_settings WHERE user_id = ?`,
		userID).Scan(&s.ICalURL, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("store: get sync settings: %w", err)
	}
	if last.Valid {
		t := last.Time
		s.LastSyncTime = &t
	}
	return s, nil
}

// SaveSyncURL upserts the configured feed URL, preserving last_sync_time.
func (db *DB) SaveSyncURL(userID, url string) error {
	_, err := db.conn.Exec(`
		INSERT INTO sync_settings (user_id, ical_url) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET ical_url = excluded.ical_url
	`, userID, url)
	if err != nil {
		return fmt.Errorf("store: save sync url: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*models.Task, error) {
	var t models.Task
	if err := r.Scan(&t.ID, &t.UserID, &t.TaskName, &t.Subject, &t.DueDate,
		&t.Description, &t.Location, &t.Completed, &t.Source, &t.CreatedAt, &t.ExternalID); err != nil {
		return nil, err
	}
	return &t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

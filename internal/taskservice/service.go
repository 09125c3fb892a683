// Package taskservice coordinates task CRUD, validation, and the
// read-only policy for synced tasks.
package taskservice

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/andrewcz-se/homeworkhub/internal/apperr"
	"github.com/andrewcz-se/homeworkhub/internal/models"
	"github.com/andrewcz-se/homeworkhub/internal/sse"
	"github.com/andrewcz-se/homeworkhub/internal/store"
	"github.com/andrewcz-se/homeworkhub/internal/subject"
)

// TaskInput carries the user-editable fields of a task.
type TaskInput struct {
	TaskName    string `json:"taskName"`
	Subject     string `json:"subject"`
	DueDate     string `json:"dueDate"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// Validate validates the input fields.
func (in TaskInput) Validate() error {
	subjects := make([]interface{}, len(subject.Labels))
	for i, s := range subject.Labels {
		subjects[i] = s
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.TaskName, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Subject, validation.Required, validation.In(subjects...)),
		validation.Field(&in.DueDate, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&in.Description, validation.Length(0, 4000)),
		validation.Field(&in.Location, validation.Length(0, 200)),
	)
}

// Notifier receives task change notifications. *sse.Broker satisfies it.
type Notifier interface {
	PublishTaskEvent(kind, id string)
}

// Service exposes task operations on top of the store.
type Service struct {
	db     store.TaskStore
	notify Notifier
}

// NewService creates a task service. notify may be nil.
func NewService(db store.TaskStore, notify Notifier) *Service {
	return &Service{db: db, notify: notify}
}

// ListTasks returns the user's tasks, optionally filtered.
func (s *Service) ListTasks(_ context.Context, userID string, f store.TaskFilter) ([]models.Task, error) {
	return s.db.ListTasks(userID, f)
}

// GetTask returns one task.
func (s *Service) GetTask(_ context.Context, userID, id string) (*models.Task, error) {
	return s.db.GetTask(userID, id)
}

// CreateTask creates a manual task. The subject is always the user's choice;
// automatic classification applies only to synced tasks.
func (s *Service) CreateTask(_ context.Context, userID string, in TaskInput) (*models.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMissingParameter, err)
	}
	t := &models.Task{
		UserID:      userID,
		TaskName:    in.TaskName,
		Subject:     in.Subject,
		DueDate:     in.DueDate,
		Description: in.Description,
		Location:    in.Location,
		Source:      models.SourceManual,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.CreateTask(t); err != nil {
		return nil, err
	}
	s.publish(sse.KindCreated, t.ID)
	return t, nil
}

// UpdateTask rewrites the editable fields of a manual task. Synced tasks
// are read-only apart from their completed flag.
func (s *Service) UpdateTask(_ context.Context, userID, id string, in TaskInput) (*models.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMissingParameter, err)
	}
	t, err := s.db.GetTask(userID, id)
	if err != nil {
		return nil, err
	}
	if t.Synced() {
		return nil, apperr.ErrReadOnlyTask
	}
	t.TaskName = in.TaskName
	t.Subject = in.Subject
	t.DueDate = in.DueDate
	t.Description = in.Description
	t.Location = in.Location
	if err := s.db.UpdateTask(t); err != nil {
		return nil, err
	}
	s.publish(sse.KindUpdated, t.ID)
	return t, nil
}

// ToggleCompleted flips the completed flag. Allowed for synced tasks too.
func (s *Service) ToggleCompleted(_ context.Context, userID, id string) (*models.Task, error) {
	t, err := s.db.GetTask(userID, id)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	if err := s.db.SetCompleted(userID, id, t.Completed); err != nil {
		return nil, err
	}
	s.publish(sse.KindUpdated, t.ID)
	return t, nil
}

// DeleteTask removes a manual task. Synced tasks are destroyed only by the
// reconciler's next replace run.
func (s *Service) DeleteTask(_ context.Context, userID, id string) error {
	t, err := s.db.GetTask(userID, id)
	if err != nil {
		return err
	}
	if t.Synced() {
		return apperr.ErrReadOnlyTask
	}
	if err := s.db.DeleteTask(userID, id); err != nil {
		return err
	}
	s.publish(sse.KindDeleted, id)
	return nil
}

// SyncSettings returns the user's calendar sync settings.
func (s *Service) SyncSettings(_ context.Context, userID string) (models.SyncSettings, error) {
	return s.db.GetSyncSettings(userID)
}

// SaveSyncURL stores the user's feed URL.
func (s *Service) SaveSyncURL(_ context.Context, userID, url string) error {
	if url == "" {
		return fmt.Errorf("ical url: %w", apperr.ErrMissingParameter)
	}
	return s.db.SaveSyncURL(userID, url)
}

func (s *Service) publish(kind, id string) {
	if s.notify != nil {
		s.notify.PublishTaskEvent(kind, id)
	}
}

// Package sync reconciles an external calendar feed against the task store.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/andrewcz-se/homeworkhub/internal/apperr"
	"github.com/andrewcz-se/homeworkhub/internal/ical"
	"github.com/andrewcz-se/homeworkhub/internal/models"
	"github.com/andrewcz-se/homeworkhub/internal/store"
	"github.com/andrewcz-se/homeworkhub/internal/subject"
)

// Feed fetches and normalizes calendar events. *ical.Fetcher satisfies it.
type Feed interface {
	FetchEvents(ctx context.Context, url string) ([]ical.CalendarEvent, error)
}

// Notifier is told about completed syncs. *sse.Broker satisfies it.
type Notifier interface {
	PublishSyncCompleted(count int)
}

// Reconciler replaces the synced task set from the configured feed.
//
// At most one reconciliation runs at a time; concurrent calls fail fast
// with apperr.ErrSyncInProgress rather than queueing.
type Reconciler struct {
	feed   Feed
	db     store.TaskStore
	notify Notifier

	inFlight atomic.Bool
	now      func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithNotifier sets the sync-completed notifier.
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notify = n }
}

// WithClock overrides the reconciler's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New creates a Reconciler.
func New(feed Feed, db store.TaskStore, opts ...Option) *Reconciler {
	r := &Reconciler{feed: feed, db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile fetches the feed, expands its events into per-day candidates,
// classifies each candidate's subject, and atomically replaces every
// source='toddle' task for the user with the new set. A failure at any step
// leaves the persisted tasks untouched; manual tasks are never touched.
func (r *Reconciler) Reconcile(ctx context.Context, userID, feedURL string) (models.SyncResult, error) {
	var res models.SyncResult

	if !r.inFlight.CompareAndSwap(false, true) {
		return res, apperr.ErrSyncInProgress
	}
	defer r.inFlight.Store(false)

	events, err := r.feed.FetchEvents(ctx, feedURL)
	if err != nil {
		return res, err
	}

	now := r.now()
	var cands []ical.TaskCandidate
	for _, ev := range events {
		cands = append(cands, ical.Expand(ev)...)
	}
	// The feed filter checked only each event's end; multi-day events
	// straddling today still carry leading past days.
	cands = ical.FilterPast(cands, now)

	tasks := make([]models.Task, len(cands))
	for i, c := range cands {
		tasks[i] = models.Task{
			TaskName:    c.TaskName,
			Subject:     subject.Classify(c.TaskName + " " + c.Description),
			DueDate:     c.DueDate,
			Description: c.Description,
			Location:    c.Location,
			Completed:   false,
			Source:      models.SourceToddle,
			CreatedAt:   now,
			ExternalID:  c.UID,
		}
	}

	count, err := r.db.ReplaceSynced(userID, tasks, now)
	if err != nil {
		return res, fmt.Errorf("%w: %v", apperr.ErrSyncCommit, err)
	}

	if r.notify != nil {
		r.notify.PublishSyncCompleted(count)
	}

	slog.Info("sync: reconciled",
		slog.String("user", userID),
		slog.Int("tasks", count),
		slog.String("url", ical.RedactURL(feedURL)))

	res.Count = count
	res.LastSyncTime = now
	return res, nil
}

// SyncConfigured runs a background reconciliation using the user's stored
// feed URL. Errors are logged, never surfaced interactively; a user without
// a configured feed is a no-op.
func (r *Reconciler) SyncConfigured(ctx context.Context, userID string) {
	settings, err := r.db.GetSyncSettings(userID)
	if err != nil {
		slog.Error("sync: load settings failed",
			slog.String("user", userID),
			slog.String("error", err.Error()))
		return
	}
	if settings.ICalURL == "" {
		return
	}
	if _, err := r.Reconcile(ctx, userID, settings.ICalURL); err != nil {
		slog.Error("sync: background sync failed",
			slog.String("user", userID),
			slog.String("error", err.Error()))
	}
}

package sync

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/andrewcz-se/homeworkhub/internal/ical"
)

const watchDebounce = 500 * time.Millisecond

// WatchLocalFeed watches a local feed file and triggers a background
// reconciliation whenever it is rewritten, debouncing bursts of writes
// (calendar exports typically rewrite the whole file). It returns
// immediately when the configured feed is a remote URL, and blocks
// otherwise until ctx is cancelled.
func (r *Reconciler) WatchLocalFeed(ctx context.Context, userID string) error {
	settings, err := r.db.GetSyncSettings(userID)
	if err != nil {
		return err
	}
	if settings.ICalURL == "" || !ical.IsLocal(settings.ICalURL) {
		return nil
	}
	path := ical.LocalPath(settings.ICalURL)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: exports often replace the file via rename,
	// which would invalidate a watch on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	slog.Info("sync: watching local feed", slog.String("path", path))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			fire = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			slog.Info("sync: feed watcher stopped")
			return nil

		case <-fire:
			r.SyncConfigured(ctx, userID)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				slog.Debug("sync: feed file changed", slog.String("op", ev.Op.String()))
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("sync: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

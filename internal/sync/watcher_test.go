package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andrewcz-se/homeworkhub/internal/ical"
	"github.com/andrewcz-se/homeworkhub/internal/models"
	"github.com/andrewcz-se/homeworkhub/internal/store"
	"github.com/andrewcz-se/homeworkhub/internal/testutil"
)

func feedWithEventAt(start time.Time) []byte {
	body := fmt.Sprintf(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//toddle//EN
BEGIN:VEVENT
UID:ev-1
DTSTART:%s
DTEND:%s
SUMMARY:Maths homework
END:VEVENT
END:VCALENDAR
`, start.UTC().Format("20060102T150405Z"), start.Add(time.Hour).UTC().Format("20060102T150405Z"))
	return []byte(strings.ReplaceAll(body, "\n", "\r\n"))
}

func TestWatchLocalFeedTriggersSync(t *testing.T) {
	db := testutil.TestStore(t)
	path := filepath.Join(t.TempDir(), "feed.ics")
	if err := db.SaveSyncURL(user, path); err != nil {
		t.Fatal(err)
	}

	r := New(ical.NewFetcher(time.Second), db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.WatchLocalFeed(ctx, user) }()

	// Give the watcher time to start before writing the feed.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, feedWithEventAt(time.Now().Add(24*time.Hour)), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		synced, err := db.ListTasks(user, store.TaskFilter{Source: models.SourceToddle})
		if err != nil {
			t.Fatal(err)
		}
		if len(synced) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("synced = %d, want 1 after feed file write", len(synced))
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("WatchLocalFeed: %v", err)
	}
}

func TestWatchLocalFeedRemoteURLReturns(t *testing.T) {
	db := testutil.TestStore(t)
	if err := db.SaveSyncURL(user, "https://example.com/feed.ics"); err != nil {
		t.Fatal(err)
	}

	r := New(ical.NewFetcher(time.Second), db)
	if err := r.WatchLocalFeed(context.Background(), user); err != nil {
		t.Errorf("WatchLocalFeed: %v", err)
	}
}

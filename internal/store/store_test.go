package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/andrewcz-se/homeworkhub/internal/apperr"
	"github.com/andrewcz-se/homeworkhub/internal/models"
	"github.com/andrewcz-se/homeworkhub/internal/store"
	"github.com/andrewcz-se/homeworkhub/internal/testutil"
)

const user = "u1"

func manualTask(name, due string) *models.Task {
	return &models.Task{
		UserID:   user,
		TaskName: name,
		Subject:  "Maths",
		DueDate:  due,
		Source:   models.SourceManual,
	}
}

func TestCreateAndGetTask(t *testing.T) {
	db := testutil.TestStore(t)

	task := manualTask("Chapter 5 problems", "2025-03-10")
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == "" {
		t.Fatal("CreateTask did not assign an ID")
	}

	got, err := db.GetTask(user, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.TaskName != "Chapter 5 problems" || got.DueDate != "2025-03-10" {
		t.Errorf("task = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("createdAt not persisted")
	}
}

func TestGetTaskWrongUser(t *testing.T) {
	db := testutil.TestStore(t)

	task := manualTask("Private", "2025-03-10")
	if err := db.CreateTask(task); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetTask("someone-else", task.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateAndDeleteTask(t *testing.T) {
	db := testutil.TestStore(t)

	task := manualTask("Draft", "2025-03-10")
	if err := db.CreateTask(task); err != nil {
		t.Fatal(err)
	}

	task.TaskName = "Final draft"
	task.Completed = true
	if err := db.UpdateTask(task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	got, _ := db.GetTask(user, task.ID)
	if got.TaskName != "Final draft" || !got.Completed {
		t.Errorf("task = %+v", got)
	}

	if err := db.DeleteTask(user, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := db.GetTask(user, task.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}
	if err := db.DeleteTask(user, task.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestSetCompleted(t *testing.T) {
	db := testutil.TestStore(t)

	task := manualTask("Quiz prep", "2025-03-10")
	if err := db.CreateTask(task); err != nil {
		t.Fatal(err)
	}
	if err := db.SetCompleted(user, task.ID, true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	got, _ := db.GetTask(user, task.ID)
	if !got.Completed {
		t.Error("completed flag not set")
	}
	if err := db.SetCompleted(user, "missing", true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListTasksFilters(t *testing.T) {
	db := testutil.TestStore(t)

	for _, task := range []*models.Task{
		manualTask("b", "2025-03-11"),
		manualTask("a", "2025-03-10"),
		{UserID: user, TaskName: "synced", Subject: "Other", DueDate: "2025-03-12", Source: models.SourceToddle, Completed: true},
	} {
		if err := db.CreateTask(task); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.ListTasks(user, store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].TaskName != "a" || all[1].TaskName != "b" {
		t.Errorf("not ordered by due date: %v, %v", all[0].TaskName, all[1].TaskName)
	}

	synced, _ := db.ListTasks(user, store.TaskFilter{Source: models.SourceToddle})
	if len(synced) != 1 || synced[0].TaskName != "synced" {
		t.Errorf("synced = %+v", synced)
	}

	done := true
	completed, _ := db.ListTasks(user, store.TaskFilter{Completed: &done})
	if len(completed) != 1 {
		t.Errorf("completed = %+v", completed)
	}

	other, _ := db.ListTasks("someone-else", store.TaskFilter{})
	if len(other) != 0 {
		t.Errorf("foreign user sees %d tasks", len(other))
	}
}

func TestReplaceSynced(t *testing.T) {
	db := testutil.TestStore(t)

	manual := manualTask("keep me", "2025-03-10")
	if err := db.CreateTask(manual); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"A", "B"} {
		if err := db.CreateTask(&models.Task{
			UserID: user, TaskName: name, Subject: "Other",
			DueDate: "2025-03-11", Source: models.SourceToddle,
		}); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	fresh := []models.Task{
		{TaskName: "C", Subject: "Science", DueDate: "2025-03-12", CreatedAt: now},
		{TaskName: "D", Subject: "Art", DueDate: "2025-03-13", CreatedAt: now},
	}
	n, err := db.ReplaceSynced(user, fresh, now)
	if err != nil {
		t.Fatalf("ReplaceSynced: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}

	synced, _ := db.ListTasks(user, store.TaskFilter{Source: models.SourceToddle})
	names := map[string]bool{}
	for _, task := range synced {
		names[task.TaskName] = true
	}
	if len(synced) != 2 || !names["C"] || !names["D"] {
		t.Errorf("synced set = %+v, want exactly {C, D}", names)
	}

	if _, err := db.GetTask(user, manual.ID); err != nil {
		t.Errorf("manual task was touched by sync: %v", err)
	}

	settings, err := db.GetSyncSettings(user)
	if err != nil {
		t.Fatalf("GetSyncSettings: %v", err)
	}
	if settings.LastSyncTime == nil || !settings.LastSyncTime.Equal(now) {
		t.Errorf("lastSyncTime = %v, want %v", settings.LastSyncTime, now)
	}
}

func TestReplaceSyncedRollsBackOnFailure(t *testing.T) {
	db := testutil.TestStore(t)

	old := &models.Task{
		UserID: user, TaskName: "old", Subject: "Other",
		DueDate: "2025-03-11", Source: models.SourceToddle,
	}
	if err := db.CreateTask(old); err != nil {
		t.Fatal(err)
	}

	// Two tasks with the same preset ID violate the primary key mid-batch,
	// forcing the transaction to roll back.
	dup := []models.Task{
		{ID: "same", TaskName: "C", Subject: "Other", DueDate: "2025-03-12"},
		{ID: "same", TaskName: "D", Subject: "Other", DueDate: "2025-03-13"},
	}
	if _, err := db.ReplaceSynced(user, dup, time.Now()); err == nil {
		t.Fatal("expected ReplaceSynced to fail")
	}

	synced, _ := db.ListTasks(user, store.TaskFilter{Source: models.SourceToddle})
	if len(synced) != 1 || synced[0].TaskName != "old" {
		t.Errorf("synced set after failed replace = %+v, want the original task", synced)
	}
}

func TestReplaceSyncedEmptyFeed(t *testing.T) {
	db := testutil.TestStore(t)

	if err := db.CreateTask(&models.Task{
		UserID: user, TaskName: "stale", Subject: "Other",
		DueDate: "2025-03-11", Source: models.SourceToddle,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := db.ReplaceSynced(user, nil, time.Now()); err != nil {
		t.Fatalf("ReplaceSynced: %v", err)
	}
	synced, _ := db.ListTasks(user, store.TaskFilter{Source: models.SourceToddle})
	if len(synced) != 0 {
		t.Errorf("synced = %d, want 0", len(synced))
	}
}

func TestSaveSyncURLPreservesLastSyncTime(t *testing.T) {
	db := testutil.TestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := db.ReplaceSynced(user, nil, now); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSyncURL(user, "https://example.com/feed.ics"); err != nil {
		t.Fatalf("SaveSyncURL: %v", err)
	}

	settings, _ := db.GetSyncSettings(user)
	if settings.ICalURL != "https://example.com/feed.ics" {
		t.Errorf("icalUrl = %q", settings.ICalURL)
	}
	if settings.LastSyncTime == nil || !settings.LastSyncTime.Equal(now) {
		t.Errorf("lastSyncTime = %v, want %v", settings.LastSyncTime, now)
	}
}

func TestGetSyncSettingsUnconfigured(t *testing.T) {
	db := testutil.TestStore(t)

	settings, err := db.GetSyncSettings("nobody")
	if err != nil {
		t.Fatalf("GetSyncSettings: %v", err)
	}
	if settings.ICalURL != "" || settings.LastSyncTime != nil {
		t.Errorf("settings = %+v, want zero value", settings)
	}
}

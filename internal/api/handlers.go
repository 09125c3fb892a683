package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andrewcz-se/homeworkhub/internal/apperr"
	"github.com/andrewcz-se/homeworkhub/internal/ical"
	"github.com/andrewcz-se/homeworkhub/internal/store"
	"github.com/andrewcz-se/homeworkhub/internal/sync"
	"github.com/andrewcz-se/homeworkhub/internal/taskservice"
)

// Fixed messages of the feed parse endpoint, kept stable for clients.
const (
	msgMissingURL  = "Missing URL parameter"
	msgParseFailed = "Failed to parse calendar URL"
)

// Handler holds API route handlers.
type Handler struct {
	svc        *taskservice.Service
	reconciler *sync.Reconciler
	feed       sync.Feed
}

// NewHandler creates a new Handler.
func NewHandler(svc *taskservice.Service, reconciler *sync.Reconciler, feed sync.Feed) *Handler {
	return &Handler{svc: svc, reconciler: reconciler, feed: feed}
}

// writeErr maps service errors onto HTTP responses.
func writeErr(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrReadOnlyTask):
		writeJSON(w, http.StatusForbidden, errorBody("synced tasks cannot be edited or deleted"))
	case errors.Is(err, apperr.ErrMissingParameter):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, errorBody("a sync is already running"))
	case errors.Is(err, apperr.ErrFeedFetch):
		writeJSON(w, http.StatusBadGateway, errorBody("failed to sync calendar"))
	case errors.Is(err, apperr.ErrSyncCommit):
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to sync calendar"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListTasks handles GET /api/tasks.
//
//	@Summary		List tasks with optional filtering
//	@Tags			tasks
//	@Produce		json
//	@Param			source		query		string	false	"Filter by source"	Enums(manual, toddle)
//	@Param			completed	query		bool	false	"Filter by completion"
//	@Success		200			{object}	TaskListResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.TaskFilter{Source: q.Get("source")}
	if c := q.Get("completed"); c != "" {
		done, err := strconv.ParseBool(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid completed filter"))
			return
		}
		f.Completed = &done
	}

	tasks, err := h.svc.ListTasks(r.Context(), UserID(r), f)
	if err != nil {
		writeErr(w, err, "list tasks")
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks, Total: len(tasks)})
}

// GetTask handles GET /api/tasks/{id}.
//
//	@Summary		Get a single task
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		string	true	"Task ID"
//	@Success		200	{object}	models.Task
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{id} [get]
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.GetTask(r.Context(), UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err, "get task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CreateTask handles POST /api/tasks.
//
//	@Summary		Create a manual task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TaskRequest	true	"Task to create"
//	@Success		201		{object}	models.Task
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	task, err := h.svc.CreateTask(r.Context(), UserID(r), req)
	if err != nil {
		writeErr(w, err, "create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PUT /api/tasks/{id}.
//
//	@Summary		Update a manual task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Task ID"
//	@Param			body	body		TaskRequest	true	"Updated fields"
//	@Success		200		{object}	models.Task
//	@Failure		403		{object}	errResponse	"Task is sync-owned"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{id} [put]
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	task, err := h.svc.UpdateTask(r.Context(), UserID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeErr(w, err, "update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ToggleTask handles POST /api/tasks/{id}/toggle.
//
//	@Summary		Toggle a task's completed flag
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		string	true	"Task ID"
//	@Success		200	{object}	models.Task
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{id}/toggle [post]
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.ToggleCompleted(r.Context(), UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err, "toggle task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}.
//
//	@Summary		Delete a manual task
//	@Tags			tasks
//	@Param			id	path	string	true	"Task ID"
//	@Success		204	"Task deleted"
//	@Failure		403	{object}	errResponse	"Task is sync-owned"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{id} [delete]
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(r.Context(), UserID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err, "delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSyncSettings handles GET /api/sync/settings.
//
//	@Summary		Get calendar sync settings
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	models.SyncSettings
//	@Security		BearerAuth
//	@Router			/sync/settings [get]
func (h *Handler) GetSyncSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.SyncSettings(r.Context(), UserID(r))
	if err != nil {
		writeErr(w, err, "get sync settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PutSyncSettings handles PUT /api/sync/settings. Saving a feed URL also
// triggers an immediate sync, mirroring the save-and-sync flow of the UI.
//
//	@Summary		Save the feed URL and sync now
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SyncSettingsRequest	true	"Feed URL"
//	@Success		200		{object}	models.SyncResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync/settings [put]
func (h *Handler) PutSyncSettings(w http.ResponseWriter, r *http.Request) {
	var req SyncSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	userID := UserID(r)
	if err := h.svc.SaveSyncURL(r.Context(), userID, req.ICalURL); err != nil {
		writeErr(w, err, "save sync url")
		return
	}
	res, err := h.reconciler.Reconcile(r.Context(), userID, req.ICalURL)
	if err != nil {
		writeErr(w, err, "sync after save")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SyncNow handles POST /api/sync.
//
//	@Summary		Sync the configured calendar feed now
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	models.SyncResult
//	@Failure		400	{object}	errResponse	"No feed configured"
//	@Failure		409	{object}	errResponse	"Sync already running"
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	settings, err := h.svc.SyncSettings(r.Context(), userID)
	if err != nil {
		writeErr(w, err, "load sync settings")
		return
	}
	if settings.ICalURL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("no feed url configured"))
		return
	}
	res, err := h.reconciler.Reconcile(r.Context(), userID, settings.ICalURL)
	if err != nil {
		writeErr(w, err, "sync")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ParseFeed handles POST /api/parse-ical: it fetches a feed, filters stale
// events, and expands the rest into per-day candidates, without touching
// any persisted state. Response shapes and error strings are fixed.
//
//	@Summary		Fetch and expand a calendar feed
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseFeedRequest	true	"Feed URL"
//	@Success		200		{object}	ParseFeedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/parse-ical [post]
func (h *Handler) ParseFeed(w http.ResponseWriter, r *http.Request) {
	var req ParseFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody(msgMissingURL))
		return
	}

	events, err := h.feed.FetchEvents(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, apperr.ErrMissingParameter) {
			writeJSON(w, http.StatusBadRequest, errorBody(msgMissingURL))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody(msgParseFailed))
		return
	}

	cands := make([]ical.TaskCandidate, 0)
	for _, ev := range events {
		cands = append(cands, ical.Expand(ev)...)
	}
	cands = ical.FilterPast(cands, time.Now())

	writeJSON(w, http.StatusOK, ParseFeedResponse{Events: cands})
}

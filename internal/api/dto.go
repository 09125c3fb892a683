package api

import (
	"github.com/andrewcz-se/homeworkhub/internal/ical"
	"github.com/andrewcz-se/homeworkhub/internal/models"
	"github.com/andrewcz-se/homeworkhub/internal/taskservice"
)

// TaskRequest is the request body for creating or updating a task
// (aliased from the service layer, which owns validation).
type TaskRequest = taskservice.TaskInput

// TaskListResponse wraps task listings.
type TaskListResponse struct {
	Tasks []models.Task `json:"tasks" validate:"required"`
	Total int           `json:"total" example:"12" validate:"required"`
}

// SyncSettingsRequest is the request body for saving the feed URL.
type SyncSettingsRequest struct {
	ICalURL string `json:"icalUrl" example:"https://web.toddleapp.com/calendar.ics" validate:"required"`
}

// ParseFeedRequest is the request body for the feed parse endpoint.
type ParseFeedRequest struct {
	URL string `json:"url" example:"https://web.toddleapp.com/calendar.ics" validate:"required"`
}

// ParseFeedResponse wraps the expanded per-day candidates of a feed.
type ParseFeedResponse struct {
	Events []ical.TaskCandidate `json:"events" validate:"required"`
}

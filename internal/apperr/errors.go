// Package apperr defines sentinel errors shared across HomeworkHub layers.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrMissingParameter = errors.New("missing parameter")
	ErrFeedFetch        = errors.New("feed fetch failed")
	ErrSyncCommit       = errors.New("sync commit failed")
	ErrSyncInProgress   = errors.New("sync already in progress")
	ErrReadOnlyTask     = errors.New("synced task is read-only")
	ErrPermission       = errors.New("permission denied")
)

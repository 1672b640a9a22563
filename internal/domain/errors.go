package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrSyncRunning = errors.New("sync cycle already running")
)

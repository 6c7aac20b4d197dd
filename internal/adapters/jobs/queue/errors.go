package queue

import "errors"

// Sentinel errors for queue operations.
var (
	ErrQueueFull = errors.New("job queue full")
)

package service

import (
	"errors"
)

// Sentinel errors for orchestrator operations.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmptyPopulation = errors.New("backend returned an empty population")
	ErrUnknownJobKind  = errors.New("unknown job kind")
)

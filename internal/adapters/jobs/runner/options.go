// Package runner executes queued jobs against the insight service.
package runner

import (
	"github.com/tribelens/tribe/pkg/logger"
)

// Option applies a configuration option to the SerialRunner.
type Option func(*SerialRunner)

// WithName sets the runner name for identification and logging.
func WithName(name string) Option {
	return func(r *SerialRunner) {
		if name != "" {
			r.name = name
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(logger logger.Logger) Option {
	return func(r *SerialRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

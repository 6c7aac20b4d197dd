// Package runner executes queued jobs against the insight service.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/tribelens/tribe/internal/adapters/jobs/queue"
	"github.com/tribelens/tribe/pkg/logger"
	"github.com/tribelens/tribe/pkg/metrics"
)

// Job abstracts what the runner reads off the queue.
// Using the queue.Job type for consistency.
type Job = queue.Job

// Executor handles a single job.
type Executor interface {
	Execute(ctx context.Context, job Job) error
}

// Queue defines how the runner receives jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Runner drains the queue and hands jobs to the executor.
type Runner interface {
	// Run starts the runner loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the runner.
	// It will finish the job in flight before stopping.
	Shutdown(ctx context.Context) error
}

// SerialRunner implements Runner with a single processing loop.
// Jobs execute strictly in dequeue order, so snapshot publishes that
// result from them stay ordered as well.
type SerialRunner struct {
	queue    Queue
	executor Executor
	name     string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewSerialRunner creates a new runner with configuration options.
func NewSerialRunner(queue Queue, executor Executor, opts ...Option) *SerialRunner {
	r := &SerialRunner{
		queue:    queue,
		executor: executor,
		name:     "runner", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("runner"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	// Set up logger with runner name if not already set
	if r.name != "runner" {
		r.logger = r.logger.Named(r.name)
	}

	return r
}

// Run starts the runner loop.
func (r *SerialRunner) Run(ctx context.Context) {
	defer func() {
		close(r.done)
	}()

	jobChan := r.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, runner should stop
				return
			}

			// Process the job
			if err := r.processJob(ctx, job); err != nil {
				r.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the runner.
func (r *SerialRunner) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(r.shutdown)

	// Wait for runner to finish or context to timeout
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob handles a single job.
func (r *SerialRunner) processJob(ctx context.Context, job Job) error {
	kind := string(job.Kind)

	// Track execution latency per job kind
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordJobLatency(kind, float64(latency))
	}()

	if err := r.executor.Execute(ctx, job); err != nil {
		metrics.RecordJobError(kind)
		metrics.RecordErrorByComponent("runner", "execute_error")
		r.logger.Error(ctx, "job execution failed",
			logger.String("jobID", job.ID),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return fmt.Errorf("failed to execute job %s: %w", job.ID, err)
	}

	return nil
}

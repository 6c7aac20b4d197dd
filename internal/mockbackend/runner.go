// Package mockbackend implements a stand-in analytics backend serving the
// REST contract the service consumes, with failure-injection switches for
// demos and end-to-end exercise of the remote data path.
package mockbackend

import (
	"context"
	"fmt"
	"time"

	"github.com/tribelens/tribe/pkg/logger"
)

// Run generates the backend dataset and serves it until ctx is cancelled.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	if config.Verbose {
		_ = logger.SetLevelString("debug")
	}

	logger.Get().Info(ctx, "starting mock backend",
		logger.String("addr", config.Addr),
		logger.Int("users", config.Users),
		logger.Float64("omitProbability", config.OmitProbability),
		logger.String("latency", config.Latency.String()),
		logger.Bool("failProbe", config.FailProbe),
		logger.String("failEndpoints", config.FailEndpoints),
		logger.Int("failAfter", config.FailAfter))

	// Step 1: Validate configuration
	if err := config.validate(); err != nil {
		return fmt.Errorf("configuration rejected: %w", err)
	}

	// Step 2: Generate the backend dataset
	data := generatePopulation(ctx, config, stats)

	// Step 3: Serve until shutdown
	if err := serve(ctx, config, data, stats); err != nil {
		return fmt.Errorf("serving failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "mock backend stopped")
	return nil
}

// displayFinalStats prints the serving statistics.
func displayFinalStats(stats *Stats) {
	var requestsPerSecond float64
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsServed) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("usersGenerated", stats.UsersGenerated),
		logger.Int("requestsServed", int(stats.RequestsServed)),
		logger.Int("failuresInjected", int(stats.FailuresInjected)),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}

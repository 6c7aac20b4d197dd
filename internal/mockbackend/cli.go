package mockbackend

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tribelens/tribe/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the logger with output to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "mockbackend_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the mock backend.
func ShowHelp() {
	os.Stdout.WriteString(`TRIBE Mock Backend
==================

A stand-in analytics backend implementing the REST contract the TRIBE
service consumes, with failure-injection switches for demos and
end-to-end testing of the remote data path.

Usage:
  go run cmd/mockbackend/main.go [options]

Options:
  -addr string
        Listen address (default ":8000")
  -users int
        Number of users to generate (default 500)
  -seed int
        Sampling seed for the generated dataset (default 0 = time-seeded)
  -omit float
        Probability of omitting optional counters per user (default 0.3)
  -latency duration
        Artificial delay added to every response (default 0s)
  -fail-probe
        Serve 500 on the root probe endpoint
  -fail-endpoints string
        Comma-separated endpoint names that always serve 500
        (probe, users, user, recommendations, segments, cities,
        hourly, weekly, summary)
  -fail-after int
        Serve this many requests, then 500 everything (default 0 = never)
  -log string
        Log file for server output (default: mockbackend_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Serve 500 users on the default address
  go run cmd/mockbackend/main.go

  # Unreachable probe: forces the service into its local fallback
  go run cmd/mockbackend/main.go -fail-probe

  # Healthy probe, failing dataset endpoints
  go run cmd/mockbackend/main.go -fail-endpoints=segments,cities

  # Slow backend with a reproducible dataset
  go run cmd/mockbackend/main.go -latency 500ms -seed 42

  # Serve 20 requests, then fail everything
  go run cmd/mockbackend/main.go -fail-after 20
`)
}

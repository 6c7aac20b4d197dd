package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tribelens/tribe/internal/mockbackend"
)

// Default configuration constants.
const (
	defaultAddr            = ":8000"
	defaultUserCount       = 500
	defaultOmitProbability = 0.3
)

func main() {
	var (
		addr          = flag.String("addr", defaultAddr, "Listen address")
		users         = flag.Int("users", defaultUserCount, "Number of users to generate")
		seed          = flag.Int64("seed", 0, "Sampling seed for the generated dataset (0 = time-seeded)")
		omit          = flag.Float64("omit", defaultOmitProbability, "Probability of omitting optional counters per user")
		latency       = flag.Duration("latency", 0, "Artificial delay added to every response")
		failProbe     = flag.Bool("fail-probe", false, "Serve 500 on the root probe endpoint")
		failEndpoints = flag.String("fail-endpoints", "", "Comma-separated endpoint names that always serve 500")
		failAfter     = flag.Int("fail-after", 0, "Serve this many requests, then 500 everything (0 = never)")
		logFile       = flag.String("log", "", "Log file for server output (default: mockbackend_TIMESTAMP.log)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		mockbackend.ShowHelp()
		return
	}

	// Setup logging
	if err := mockbackend.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create server configuration
	config := &mockbackend.Config{
		Addr:            *addr,
		Users:           *users,
		Seed:            *seed,
		OmitProbability: *omit,
		Latency:         *latency,
		FailProbe:       *failProbe,
		FailEndpoints:   *failEndpoints,
		FailAfter:       *failAfter,
		LogFile:         *logFile,
		Verbose:         *verbose,
	}

	// Run the server
	if err := mockbackend.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Mock backend failed: " + err.Error() + "\n")
		return
	}
}

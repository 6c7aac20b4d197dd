package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"github.com/tribelens/tribe/internal/adapters/http/api"
	"github.com/tribelens/tribe/internal/adapters/http/site"
	"github.com/tribelens/tribe/internal/adapters/http/swagger"
	"github.com/tribelens/tribe/internal/adapters/remote"
	app "github.com/tribelens/tribe/internal/app"
	"github.com/tribelens/tribe/internal/config"
	"github.com/tribelens/tribe/internal/domain/model"
	"github.com/tribelens/tribe/pkg/logger"
	"github.com/tribelens/tribe/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Load .env if present. Real environment variables win over file entries.
	_ = godotenv.Load()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Backend fetcher behind a circuit breaker. The startup probe decides the
	// data source; the breaker guards refresh traffic after that.
	client := remote.NewClient(cfg.BackendURL,
		remote.WithProbeTimeout(cfg.ProbeTimeout()),
		remote.WithRequestTimeout(cfg.RequestTimeout()),
	)
	fetcher := remote.NewBreaker(client,
		remote.WithFailureRatio(cfg.BreakerFailureRatio),
		remote.WithMinRequests(uint32(cfg.BreakerMinRequests)),
		remote.WithOpenTimeout(cfg.BreakerOpenTimeout()),
	)

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithFetcher(fetcher),
		app.WithPopulationSize(cfg.PopulationSize),
		app.WithRecommendationCount(cfg.RecommendationCount),
		app.WithQueueSize(cfg.JobQueueSize),
		app.WithSynthSeed(cfg.SynthSeed),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// Schedule periodic snapshot refreshes when configured. Each run re-probes
	// the backend, so a recovered backend flips the service back to remote data.
	if cfg.RefreshIntervalS > 0 {
		scheduler := gocron.NewScheduler(time.UTC)
		_, err := scheduler.Every(cfg.RefreshInterval()).Do(func() {
			// A full queue means a refresh is already pending; skip this run.
			if err := svc.Refresh(ctx); err != nil {
				loggerInstance.Warn(ctx, "scheduled refresh skipped", logger.Error(err))
			}
		})
		if err != nil {
			loggerInstance.Error(ctx, "failed to schedule periodic refresh", logger.Error(err))
		} else {
			scheduler.StartAsync()
			defer scheduler.Stop()
			loggerInstance.Info(ctx, "periodic refresh scheduled", logger.Duration("interval", cfg.RefreshInterval()))
		}
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register the dashboard under / and the API reference under /api-docs
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxUserLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("source", string(svc.Source())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// Update GC pause time
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueDepth(queueLen)
	}

	if version, ok := stats["snapshotVersion"].(uint64); ok {
		metrics.UpdateSnapshotVersion(version)
	}

	if source, ok := stats["source"].(string); ok {
		metrics.UpdateSourceState(source == string(model.SourceRemote))
	}
}

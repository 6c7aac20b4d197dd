// Package config defines process configuration for the insight service.
//
// Configuration is layered: compiled-in defaults, then an optional YAML
// file named by TRIBE_CONFIG, then TRIBE_-prefixed environment variables.
// Later layers win. Load performs the layering and validation; New returns
// the defaults only.
package config

import (
	"context"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BackendURL is the base URL of the analytics backend.
	BackendURL string `koanf:"backend_url"`

	// ProbeTimeoutMS bounds the backend reachability probe.
	ProbeTimeoutMS int `koanf:"probe_timeout_ms"`

	// RequestTimeoutMS bounds individual backend fetches.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// PopulationSize sets how many users a generated population holds.
	PopulationSize int `koanf:"population_size"`

	// RecommendationCount sets how many recommendations a selection yields.
	RecommendationCount int `koanf:"recommendation_count"`

	// MaxUserLimit caps GET /api/users?limit.
	MaxUserLimit int `koanf:"max_user_limit"`

	// SynthSeed seeds synthetic generation. Zero derives the seed from the clock.
	SynthSeed int64 `koanf:"synth_seed"`

	// JobQueueSize bounds the in-memory insight job queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// RefreshIntervalS schedules periodic snapshot refreshes. Zero disables them.
	RefreshIntervalS int `koanf:"refresh_interval_s"`

	// BreakerFailureRatio is the failure ratio at which the backend breaker opens.
	BreakerFailureRatio float64 `koanf:"breaker_failure_ratio"`

	// BreakerMinRequests is the minimum sample size before the breaker may trip.
	BreakerMinRequests int `koanf:"breaker_min_requests"`

	// BreakerOpenTimeoutS is how long the breaker stays open before half-open probes.
	BreakerOpenTimeoutS int `koanf:"breaker_open_timeout_s"`
}

// New returns a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		BackendURL:          "http://localhost:8000",
		ProbeTimeoutMS:      3000,
		RequestTimeoutMS:    10000,
		PopulationSize:      500,
		RecommendationCount: 10,
		MaxUserLimit:        1000,
		SynthSeed:           0,
		JobQueueSize:        64,
		RefreshIntervalS:    0,
		BreakerFailureRatio: 0.6,
		BreakerMinRequests:  10,
		BreakerOpenTimeoutS: 60,
	}
}

// ProbeTimeout returns the reachability probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// RequestTimeout returns the backend fetch timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// RefreshInterval returns the periodic refresh interval. Zero means disabled.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalS) * time.Second
}

// BreakerOpenTimeout returns how long the breaker stays open after tripping.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenTimeoutS) * time.Second
}

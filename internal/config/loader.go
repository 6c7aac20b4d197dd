package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if TRIBE_CONFIG is set
//  3. env (prefix TRIBE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TRIBE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: TRIBE_ADDR, TRIBE_POPULATION_SIZE, ...
	// Map env keys like TRIBE_POPULATION_SIZE -> population_size (flat keys)
	// Preserve underscores to match the koanf tags on the struct.
	envProvider := env.Provider("TRIBE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tribe_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy so defaults survive for unset keys.
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects values that would wedge startup or the job loop.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.BackendURL == "":
		return fmt.Errorf("%w: backend_url must not be empty", ErrInvalidConfig)
	case c.ProbeTimeoutMS <= 0:
		return fmt.Errorf("%w: probe_timeout_ms must be positive", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.PopulationSize <= 0:
		return fmt.Errorf("%w: population_size must be positive", ErrInvalidConfig)
	case c.RecommendationCount <= 0:
		return fmt.Errorf("%w: recommendation_count must be positive", ErrInvalidConfig)
	case c.MaxUserLimit <= 0:
		return fmt.Errorf("%w: max_user_limit must be positive", ErrInvalidConfig)
	case c.JobQueueSize <= 0:
		return fmt.Errorf("%w: job_queue_size must be positive", ErrInvalidConfig)
	case c.RefreshIntervalS < 0:
		return fmt.Errorf("%w: refresh_interval_s must not be negative", ErrInvalidConfig)
	case c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1:
		return fmt.Errorf("%w: breaker_failure_ratio must be in (0, 1]", ErrInvalidConfig)
	case c.BreakerMinRequests <= 0:
		return fmt.Errorf("%w: breaker_min_requests must be positive", ErrInvalidConfig)
	case c.BreakerOpenTimeoutS <= 0:
		return fmt.Errorf("%w: breaker_open_timeout_s must be positive", ErrInvalidConfig)
	}
	return nil
}

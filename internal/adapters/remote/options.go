// Package remote fetches analytics data from the backend REST service.
package remote

import (
	"net/http"
	"time"

	"github.com/tribelens/tribe/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithRequestTimeout sets the timeout for fetch requests.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

// WithProbeTimeout bounds the reachability probe.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.probeTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the fetch transport entirely.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(logger logger.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// breakerConfig holds circuit breaker tunables.
type breakerConfig struct {
	failureRatio float64
	minRequests  uint32
	openTimeout  time.Duration
}

// BreakerOption applies a configuration option to the Breaker.
type BreakerOption func(*breakerConfig)

// WithFailureRatio sets the failure ratio at which the breaker opens.
func WithFailureRatio(ratio float64) BreakerOption {
	return func(cfg *breakerConfig) {
		if ratio > 0 && ratio <= 1 {
			cfg.failureRatio = ratio
		}
	}
}

// WithMinRequests sets the minimum request count before the breaker can trip.
func WithMinRequests(n uint32) BreakerOption {
	return func(cfg *breakerConfig) {
		if n > 0 {
			cfg.minRequests = n
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing again.
func WithOpenTimeout(timeout time.Duration) BreakerOption {
	return func(cfg *breakerConfig) {
		if timeout > 0 {
			cfg.openTimeout = timeout
		}
	}
}

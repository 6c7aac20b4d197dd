package remote

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tribelens/tribe/internal/domain/model"
	"github.com/tribelens/tribe/pkg/logger"
	"github.com/tribelens/tribe/pkg/metrics"
)

// Default breaker configuration constants.
const (
	defaultFailureRatio = 0.6
	defaultMinRequests  = 10
	defaultOpenTimeout  = 60 * time.Second
	halfOpenMaxRequests = 3
)

// Breaker wraps a Fetcher with a circuit breaker so a flapping backend stops
// absorbing a full request timeout on every cycle. The probe is passed
// through untouched; reachability checks must keep working while the
// breaker is open.
type Breaker struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[any]

	// Logging
	logger logger.Logger
}

// NewBreaker creates a circuit breaker around next with configuration options.
func NewBreaker(next Fetcher, opts ...BreakerOption) *Breaker {
	cfg := &breakerConfig{
		failureRatio: defaultFailureRatio,
		minRequests:  defaultMinRequests,
		openTimeout:  defaultOpenTimeout,
	}

	// Apply all options
	for _, opt := range opts {
		opt(cfg)
	}

	b := &Breaker{
		next:   next,
		logger: logger.Get().Named("breaker"),
	}

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: halfOpenMaxRequests,
		Timeout:     cfg.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.minRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(stateToFloat(to))
			b.logger.Info(context.Background(), "breaker state changed",
				logger.String("name", name),
				logger.String("from", stateToString(from)),
				logger.String("to", stateToString(to)),
			)
		},
	})

	metrics.UpdateBreakerState(stateToFloat(gobreaker.StateClosed))

	return b
}

// Probe passes through to the wrapped fetcher.
func (b *Breaker) Probe(ctx context.Context) bool {
	return b.next.Probe(ctx)
}

// State reports the current breaker state as a label.
func (b *Breaker) State() string {
	return stateToString(b.cb.State())
}

// FetchUsers retrieves users through the breaker.
func (b *Breaker) FetchUsers(ctx context.Context, limit int) ([]model.User, error) {
	return execute[[]model.User](b, func() (any, error) {
		return b.next.FetchUsers(ctx, limit)
	})
}

// FetchRecommendations retrieves recommendations through the breaker.
func (b *Breaker) FetchRecommendations(ctx context.Context, userID string, n int) ([]model.Recommendation, error) {
	return execute[[]model.Recommendation](b, func() (any, error) {
		return b.next.FetchRecommendations(ctx, userID, n)
	})
}

// FetchSegments retrieves the segment table through the breaker.
func (b *Breaker) FetchSegments(ctx context.Context) ([]model.SegmentStat, error) {
	return execute[[]model.SegmentStat](b, func() (any, error) {
		return b.next.FetchSegments(ctx)
	})
}

// FetchCities retrieves the city distribution through the breaker.
func (b *Breaker) FetchCities(ctx context.Context) ([]model.CityCount, error) {
	return execute[[]model.CityCount](b, func() (any, error) {
		return b.next.FetchCities(ctx)
	})
}

// FetchHourly retrieves the hourly curve through the breaker.
func (b *Breaker) FetchHourly(ctx context.Context) ([]model.HourlyPoint, error) {
	return execute[[]model.HourlyPoint](b, func() (any, error) {
		return b.next.FetchHourly(ctx)
	})
}

// FetchWeekly retrieves the weekly trend through the breaker.
func (b *Breaker) FetchWeekly(ctx context.Context) ([]model.WeeklyPoint, error) {
	return execute[[]model.WeeklyPoint](b, func() (any, error) {
		return b.next.FetchWeekly(ctx)
	})
}

// execute runs fn through the circuit breaker and type-casts the result.
func execute[T any](b *Breaker, fn func() (any, error)) (T, error) {
	var zero T

	result, err := b.cb.Execute(fn)
	if err != nil {
		return zero, err
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts breaker state to a numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts breaker state to a string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Package remote fetches analytics data from the backend REST service and
// normalizes it into the canonical model shapes.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/tribelens/tribe/internal/domain/model"
	"github.com/tribelens/tribe/pkg/logger"
	"github.com/tribelens/tribe/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultRequestTimeout = 10 * time.Second
	defaultProbeTimeout   = 3 * time.Second
	maxErrorBodySize      = 64 * 1024 // cap on response bytes kept for error reporting
)

// Fetcher is the read surface the orchestrator consumes. Implemented by
// Client and by Breaker, which wraps a Client.
type Fetcher interface {
	// Probe reports whether the backend answers on its root endpoint.
	// It never returns an error; any failure means unreachable.
	Probe(ctx context.Context) bool

	FetchUsers(ctx context.Context, limit int) ([]model.User, error)
	FetchRecommendations(ctx context.Context, userID string, n int) ([]model.Recommendation, error)
	FetchSegments(ctx context.Context) ([]model.SegmentStat, error)
	FetchCities(ctx context.Context) ([]model.CityCount, error)
	FetchHourly(ctx context.Context) ([]model.HourlyPoint, error)
	FetchWeekly(ctx context.Context) ([]model.WeeklyPoint, error)
}

// Client implements Fetcher against the backend REST contract.
type Client struct {
	baseURL        string
	requestTimeout time.Duration
	probeTimeout   time.Duration
	client         *http.Client
	probeClient    *http.Client

	// Logging
	logger logger.Logger
}

// NewClient creates a new backend client with configuration options.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        baseURL,
		requestTimeout: defaultRequestTimeout,
		probeTimeout:   defaultProbeTimeout,
		logger:         logger.Get().Named("remote"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: c.requestTimeout}
	}
	if c.probeClient == nil {
		c.probeClient = &http.Client{Timeout: c.probeTimeout}
	}

	return c
}

// Probe reports whether the backend answers on its root endpoint. Any 2xx
// response counts as reachable; transport failures, timeouts and error
// statuses all resolve to false rather than an error.
func (c *Client) Probe(ctx context.Context) bool {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordProbeLatency(float64(latency))
	}()

	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/", http.NoBody)
	if err != nil {
		metrics.RecordProbeResult(false)
		return false
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "probe failed", logger.Error(err))
		metrics.RecordProbeResult(false)
		return false
	}
	defer resp.Body.Close()

	reachable := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	metrics.RecordProbeResult(reachable)
	return reachable
}

// FetchUsers retrieves up to limit users from the backend.
func (c *Client) FetchUsers(ctx context.Context, limit int) ([]model.User, error) {
	var dtos []userDTO
	path := fmt.Sprintf("/users?limit=%d", limit)
	if err := c.makeRequest(ctx, "users", path, &dtos); err != nil {
		return nil, err
	}
	return mapUsers(dtos), nil
}

// FetchRecommendations retrieves up to n recommendations for userID.
func (c *Client) FetchRecommendations(ctx context.Context, userID string, n int) ([]model.Recommendation, error) {
	var dtos []recommendationDTO
	path := fmt.Sprintf("/recommendations/%s?n=%d", url.PathEscape(userID), n)
	if err := c.makeRequest(ctx, "recommendations", path, &dtos); err != nil {
		return nil, err
	}
	return mapRecommendations(dtos), nil
}

// FetchSegments retrieves the segment aggregate table.
func (c *Client) FetchSegments(ctx context.Context) ([]model.SegmentStat, error) {
	var dtos []segmentDTO
	if err := c.makeRequest(ctx, "segments", "/segments", &dtos); err != nil {
		return nil, err
	}
	return mapSegments(dtos), nil
}

// FetchCities retrieves the city distribution.
func (c *Client) FetchCities(ctx context.Context) ([]model.CityCount, error) {
	var dtos []cityDTO
	if err := c.makeRequest(ctx, "cities", "/cities", &dtos); err != nil {
		return nil, err
	}
	return mapCities(dtos), nil
}

// FetchHourly retrieves the 24-point engagement curve.
func (c *Client) FetchHourly(ctx context.Context) ([]model.HourlyPoint, error) {
	var dtos []hourlyDTO
	if err := c.makeRequest(ctx, "hourly", "/engagement/hourly", &dtos); err != nil {
		return nil, err
	}
	return mapHourly(dtos), nil
}

// FetchWeekly retrieves the Mon..Sun trend.
func (c *Client) FetchWeekly(ctx context.Context) ([]model.WeeklyPoint, error) {
	var dtos []weeklyDTO
	if err := c.makeRequest(ctx, "weekly", "/trends/weekly", &dtos); err != nil {
		return nil, err
	}
	return mapWeekly(dtos), nil
}

// makeRequest issues a GET against path and decodes the JSON response into
// out. Non-2xx statuses become a *StatusError carrying a truncated body.
func (c *Client) makeRequest(ctx context.Context, endpoint, path string, out interface{}) error {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordFetchLatency(endpoint, float64(latency))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		metrics.RecordFetchError(endpoint)
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordFetchError(endpoint)
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordFetchError(endpoint)
		return &StatusError{
			Endpoint: endpoint,
			Code:     resp.StatusCode,
			Body:     string(readBodyForError(resp.Body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordFetchError(endpoint)
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return nil
}

// readBodyForError reads at most maxErrorBodySize bytes for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// Package service provides the data source orchestrator that implements
// the dependencies required by the HTTP API. It decides between the remote
// backend and local synthesis, owns the published snapshot, and serializes
// every dataset mutation through a single-runner job queue.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tribelens/tribe/internal/adapters/jobs/queue"
	"github.com/tribelens/tribe/internal/adapters/jobs/runner"
	"github.com/tribelens/tribe/internal/adapters/remote"
	"github.com/tribelens/tribe/internal/adapters/repository"
	"github.com/tribelens/tribe/internal/domain/approx"
	"github.com/tribelens/tribe/internal/domain/guard"
	"github.com/tribelens/tribe/internal/domain/model"
	"github.com/tribelens/tribe/internal/domain/synth"
	"github.com/tribelens/tribe/pkg/logger"
	"github.com/tribelens/tribe/pkg/metrics"
)

// Default orchestrator configuration constants.
const (
	defaultPopulationSize      = 500
	defaultRecommendationCount = 10
	defaultQueueSize           = 64
	shutdownTimeout            = 5 * time.Second
)

// Sequencer scopes. Refresh and selection supersede independently: a newer
// selection invalidates older pending selections without touching a pending
// refresh, and vice versa.
const (
	scopeRefresh = "refresh"
	scopeSelect  = "select"
)

// Service orchestrates the two data paths behind one façade.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	fetcher      remote.Fetcher
	synthesizer  *synth.Synthesizer
	approximator *approx.Approximator
	jobQueue     queue.Queue
	jobRunner    *runner.SerialRunner
	seq          guard.Sequencer

	// Configuration
	populationSize      int
	recommendationCount int
	queueSize           int
	synthSeed           int64

	// State
	source    model.Source
	started   bool
	startedAt time.Time

	// enqueueMu serializes token issue and enqueue so a rejected request can
	// retract its token without invalidating accepted pending work.
	enqueueMu sync.Mutex

	// Subscribers receive every published snapshot.
	subMu       sync.Mutex
	subscribers map[chan<- *model.Snapshot]struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the remote backend fetcher. Without one the service runs
// purely on local synthesis.
func WithFetcher(f remote.Fetcher) Option {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithPopulationSize sets how many users a generated population holds.
func WithPopulationSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.populationSize = n
		}
	}
}

// WithRecommendationCount sets how many recommendations a selection yields.
func WithRecommendationCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recommendationCount = n
		}
	}
}

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithSynthSeed seeds the synthesizer and approximator for reproducible
// local datasets. Zero keeps the time-based seed.
func WithSynthSeed(seed int64) Option {
	return func(s *Service) {
		s.synthSeed = seed
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		populationSize:      defaultPopulationSize,
		recommendationCount: defaultRecommendationCount,
		queueSize:           defaultQueueSize,
		source:              model.SourceLocal,
		subscribers:         make(map[chan<- *model.Snapshot]struct{}),
		logger:              nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the components, acquires the initial dataset, and starts
// the job runner. The first snapshot is published before Start returns, so
// the HTTP layer never observes an empty store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting insight service...")

	// Initialize components
	s.store = repository.NewSnapshotStore()
	s.seq = guard.NewSequencer()

	var synthOpts []synth.Option
	var approxOpts []approx.Option
	if s.synthSeed != 0 {
		synthOpts = append(synthOpts, synth.WithSeed(s.synthSeed))
		approxOpts = append(approxOpts, approx.WithSeed(s.synthSeed))
	}
	s.synthesizer = synth.New(synthOpts...)
	s.approximator = approx.New(approxOpts...)

	s.jobQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.jobRunner = runner.NewSerialRunner(s.jobQueue, s)

	// Acquire and publish the initial dataset before taking traffic.
	snap := s.buildDataset(ctx)
	if _, err := s.publish(ctx, snap); err != nil {
		return fmt.Errorf("failed to publish initial snapshot: %w", err)
	}
	s.source = snap.Source

	go s.jobRunner.Run(ctx)

	s.started = true
	s.startedAt = time.Now().UTC()
	s.logger.Info(ctx, "insight service started",
		logger.String("source", string(snap.Source)),
		logger.Int("population", len(snap.Users)),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service. The mutex is released before
// waiting on the runner: an in-flight job may need it to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	jobRunner := s.jobRunner
	jobQueue := s.jobQueue
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping insight service...")

	// Stop the runner first so no job is mid-publish, then close the queue.
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if jobRunner != nil {
		if err := jobRunner.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "runner shutdown incomplete", logger.Error(err))
		}
	}
	if jobQueue != nil {
		_ = jobQueue.Close()
	}

	s.logger.Info(ctx, "insight service stopped")
}

// Snapshot returns the current published snapshot. Never nil.
func (s *Service) Snapshot(ctx context.Context) *model.Snapshot {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return model.EmptySnapshot()
	}
	return store.Current(ctx)
}

// User looks up a user in the current snapshot by id.
func (s *Service) User(ctx context.Context, id string) (model.User, bool) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return model.User{}, false
	}
	return store.User(ctx, id)
}

// Source returns the active data source.
func (s *Service) Source() model.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.source
}

// SelectUser enqueues a selection job for id. The existence check runs
// synchronously so callers get an immediate not-found; the recomputation
// itself is serialized through the job queue.
func (s *Service) SelectUser(ctx context.Context, id string) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if _, ok := s.User(ctx, id); !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}

	s.enqueueMu.Lock()
	defer s.enqueueMu.Unlock()

	token := s.seq.Next(ctx, scopeSelect)
	if !s.jobQueue.Enqueue(ctx, queue.NewJob(queue.KindSelect, id, token)) {
		s.seq.Rollback(ctx, scopeSelect, token)
		return queue.ErrQueueFull
	}
	return nil
}

// Refresh enqueues a full dataset refresh. The sequence re-probes the
// backend, so the service may flip between remote and local mode here.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	s.enqueueMu.Lock()
	defer s.enqueueMu.Unlock()

	token := s.seq.Next(ctx, scopeRefresh)
	if !s.jobQueue.Enqueue(ctx, queue.NewJob(queue.KindRefresh, "", token)) {
		s.seq.Rollback(ctx, scopeRefresh, token)
		return queue.ErrQueueFull
	}
	return nil
}

// Recommendations returns recommendations for id. The stored list is served
// when id is the current selection; any other user gets a list computed from
// the snapshot population on the spot, without publishing anything.
func (s *Service) Recommendations(ctx context.Context, id string, n int) ([]model.Recommendation, error) {
	if n <= 0 {
		n = s.recommendationCount
	}

	snap := s.Snapshot(ctx)
	target, ok := snap.UserByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}

	if id == snap.SelectedUserID {
		if n < len(snap.Recommendations) {
			return snap.Recommendations[:n], nil
		}
		return snap.Recommendations, nil
	}

	recs := approx.Recommendations(target, snap.Users, n)
	metrics.RecordRecommendationsComputed("local")
	return recs, nil
}

// Subscribe registers ch to receive every published snapshot. The returned
// function removes the registration. Sends never block: a subscriber that
// cannot keep up misses intermediate snapshots instead of stalling publishes.
func (s *Service) Subscribe(ch chan<- *model.Snapshot) func() {
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, ch)
		s.subMu.Unlock()
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":             s.started,
		"source":              string(s.source),
		"populationSize":      s.populationSize,
		"recommendationCount": s.recommendationCount,
		"queueSize":           s.queueSize,
	}

	if s.started {
		ctx := context.Background()
		stats["population"] = s.store.Count()
		stats["snapshotVersion"] = s.store.Version()
		stats["queueLength"] = s.jobQueue.Len(ctx)
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())

		if breaker, ok := s.fetcher.(interface{ State() string }); ok {
			stats["breakerState"] = breaker.State()
		}

		// Update metrics
		metrics.UpdatePopulationSize(s.store.Count())
	}

	return stats
}

// Execute implements the runner's executor: it dispatches queued jobs to the
// refresh and selection paths. Superseded tokens are dropped before any work.
func (s *Service) Execute(ctx context.Context, job runner.Job) error {
	scope := scopeForKind(job.Kind)
	if !s.seq.Valid(ctx, scope, job.Token) {
		s.logger.Debug(ctx, "dropping superseded job",
			logger.String("jobID", job.ID),
			logger.String("kind", string(job.Kind)),
			logger.Uint64("token", job.Token),
		)
		return nil
	}

	switch job.Kind {
	case queue.KindRefresh:
		return s.executeRefresh(ctx, job)
	case queue.KindSelect:
		return s.executeSelect(ctx, job)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}
}

// executeRefresh rebuilds the dataset through the full acquisition sequence
// and publishes it, unless a newer refresh was requested meanwhile.
func (s *Service) executeRefresh(ctx context.Context, job runner.Job) error {
	snap := s.buildDataset(ctx)

	// The sequence may have taken long enough for another refresh to be
	// requested; publishing now would clobber the newer job's result.
	if !s.seq.Valid(ctx, scopeRefresh, job.Token) {
		return nil
	}

	version, err := s.publish(ctx, snap)
	if err != nil {
		return fmt.Errorf("failed to publish refreshed snapshot: %w", err)
	}

	s.mu.Lock()
	s.source = snap.Source
	s.mu.Unlock()

	metrics.RecordRefresh(string(snap.Source))
	s.logger.Info(ctx, "dataset refreshed",
		logger.String("source", string(snap.Source)),
		logger.Uint64("version", version),
		logger.Int("population", len(snap.Users)),
	)
	return nil
}

// executeSelect recomputes recommendations for the requested user and
// publishes a snapshot derived from the current one with the new selection.
func (s *Service) executeSelect(ctx context.Context, job runner.Job) error {
	base := s.store.Current(ctx)

	target, ok := base.UserByID(job.UserID)
	if !ok {
		// The population was replaced between enqueue and execute.
		return fmt.Errorf("%w: %s", ErrUserNotFound, job.UserID)
	}

	recs := s.recommendationsFor(ctx, target, base.Users)

	if !s.seq.Valid(ctx, scopeSelect, job.Token) {
		return nil
	}

	next := base.WithSelection(base.Version, job.UserID, recs)
	version, err := s.publish(ctx, next)
	if err != nil {
		if errors.Is(err, repository.ErrStaleSnapshot) {
			// A refresh published a newer dataset while we were computing.
			return nil
		}
		return fmt.Errorf("failed to publish selection snapshot: %w", err)
	}

	metrics.RecordSelection()
	s.logger.Debug(ctx, "selection published",
		logger.String("userID", job.UserID),
		logger.Uint64("version", version),
		logger.Int("recommendations", len(recs)),
	)
	return nil
}

// buildDataset runs the full acquisition sequence and returns a complete
// snapshot: remote when the backend answers the probe and every fetch
// succeeds, local otherwise. Used for startup and refresh alike.
func (s *Service) buildDataset(ctx context.Context) *model.Snapshot {
	if s.fetcher != nil && s.fetcher.Probe(ctx) {
		snap, err := s.remoteDataset(ctx)
		if err == nil {
			return snap
		}

		// Any failure after a successful probe abandons all partial remote
		// data and runs the full local sequence. No re-probe.
		s.logger.Warn(ctx, "remote dataset failed, falling back to local synthesis", logger.Error(err))
		metrics.RecordSessionFallback()
		return s.localDataset()
	}

	if s.fetcher != nil {
		s.logger.Info(ctx, "backend unreachable, using local synthesis")
		metrics.RecordSessionFallback()
	}
	return s.localDataset()
}

// remoteDataset assembles a snapshot from the backend: users first, then the
// aggregates, then recommendations for the initial selection. Any error
// aborts the whole assembly.
func (s *Service) remoteDataset(ctx context.Context) (*model.Snapshot, error) {
	users, err := s.fetcher.FetchUsers(ctx, s.populationSize)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrEmptyPopulation
	}

	segments, err := s.fetcher.FetchSegments(ctx)
	if err != nil {
		return nil, err
	}
	cities, err := s.fetcher.FetchCities(ctx)
	if err != nil {
		return nil, err
	}
	hourly, err := s.fetcher.FetchHourly(ctx)
	if err != nil {
		return nil, err
	}
	weekly, err := s.fetcher.FetchWeekly(ctx)
	if err != nil {
		return nil, err
	}

	selected := users[0]
	recs, err := s.fetcher.FetchRecommendations(ctx, selected.UserID, s.recommendationCount)
	if err != nil {
		return nil, err
	}
	metrics.RecordRecommendationsComputed("remote")

	return &model.Snapshot{
		Source:          model.SourceRemote,
		Users:           users,
		SelectedUserID:  selected.UserID,
		Recommendations: recs,
		Segments:        segments,
		Cities:          cities,
		Hourly:          hourly,
		Weekly:          weekly,
	}, nil
}

// localDataset assembles a snapshot from synthesis and approximation. It
// cannot fail; this is what makes the fallback unconditional.
func (s *Service) localDataset() *model.Snapshot {
	users := s.synthesizer.Generate(s.populationSize)

	snap := &model.Snapshot{
		Source:          model.SourceLocal,
		Users:           users,
		Recommendations: []model.Recommendation{},
		Segments:        approx.SegmentStats(users),
		Cities:          approx.CityDistribution(users),
		Hourly:          s.approximator.HourlyEngagement(),
		Weekly:          s.approximator.WeeklyTrend(users),
	}

	if len(users) > 0 {
		snap.SelectedUserID = users[0].UserID
		snap.Recommendations = approx.Recommendations(users[0], users, s.recommendationCount)
		metrics.RecordRecommendationsComputed("local")
	}
	return snap
}

// recommendationsFor computes recommendations for target. In remote mode the
// backend is asked first; a failure there falls back to the local similarity
// path without leaving remote mode.
func (s *Service) recommendationsFor(ctx context.Context, target model.User, population []model.User) []model.Recommendation {
	if s.Source().Remote() && s.fetcher != nil {
		recs, err := s.fetcher.FetchRecommendations(ctx, target.UserID, s.recommendationCount)
		if err == nil {
			metrics.RecordRecommendationsComputed("remote")
			return recs
		}

		s.logger.Warn(ctx, "remote recommendations failed, computing locally",
			logger.String("userID", target.UserID),
			logger.Error(err),
		)
		metrics.RecordRecommendationFallback()
	}

	recs := approx.Recommendations(target, population, s.recommendationCount)
	metrics.RecordRecommendationsComputed("local")
	return recs
}

// publish stores snap, updates the source gauge, and fans the stored
// snapshot out to subscribers.
func (s *Service) publish(ctx context.Context, snap *model.Snapshot) (uint64, error) {
	version, err := s.store.Publish(ctx, snap)
	if err != nil {
		return 0, err
	}

	metrics.UpdateSourceState(snap.Source.Remote())
	s.broadcast(snap)
	return version, nil
}

// broadcast fans snap out to all subscribers without blocking.
func (s *Service) broadcast(snap *model.Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// scopeForKind maps a job kind to its sequencer scope.
func scopeForKind(kind queue.Kind) string {
	if kind == queue.KindSelect {
		return scopeSelect
	}
	return scopeRefresh
}

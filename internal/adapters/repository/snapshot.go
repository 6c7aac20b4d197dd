package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tribelens/tribe/internal/domain/model"
	"github.com/tribelens/tribe/pkg/metrics"
)

// snapshotState pairs a published snapshot with its lookup index.
type snapshotState struct {
	snap  *model.Snapshot
	index map[string]int
}

// SnapshotStore implements Store with a lock-free read path: the current
// state hangs off an atomic pointer and is replaced wholesale on publish.
// Writers serialize through a mutex.
type SnapshotStore struct {
	mu      sync.Mutex
	state   atomic.Pointer[snapshotState]
	version atomic.Uint64
}

// NewSnapshotStore creates a store primed with the canonical empty snapshot.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.state.Store(&snapshotState{
		snap:  model.EmptySnapshot(),
		index: make(map[string]int),
	})
	return s
}

// Publish implements Store.Publish.
func (s *SnapshotStore) Publish(ctx context.Context, snap *model.Snapshot) (uint64, error) {
	if snap == nil {
		return 0, ErrNilSnapshot
	}

	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.version.Load()
	if snap.Version != 0 && snap.Version < current {
		metrics.RecordSnapshotStale()
		return 0, ErrStaleSnapshot
	}

	next := current + 1
	snap.Version = next
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now().UTC()
	}

	index := make(map[string]int, len(snap.Users))
	for i := range snap.Users {
		index[snap.Users[i].UserID] = i
	}

	s.state.Store(&snapshotState{snap: snap, index: index})
	s.version.Store(next)

	metrics.RecordSnapshotPublish()
	metrics.RecordSnapshotRebuildDuration(float64(time.Since(start).Milliseconds()))
	metrics.UpdateSnapshotVersion(next)
	metrics.UpdatePopulationSize(len(snap.Users))

	return next, nil
}

// Current implements Store.Current.
func (s *SnapshotStore) Current(ctx context.Context) *model.Snapshot {
	return s.state.Load().snap
}

// User implements Store.User with an O(1) index lookup.
func (s *SnapshotStore) User(ctx context.Context, id string) (model.User, bool) {
	st := s.state.Load()
	i, ok := st.index[id]
	if !ok {
		return model.User{}, false
	}
	return st.snap.Users[i], true
}

// Version implements Store.Version.
func (s *SnapshotStore) Version() uint64 {
	return s.version.Load()
}

// Count implements Store.Count.
func (s *SnapshotStore) Count() int {
	return len(s.state.Load().snap.Users)
}

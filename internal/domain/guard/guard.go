// Package guard defines the interface for stale-result rejection.
package guard

import (
	"context"
	"sync"
)

// Sequencer issues monotonically increasing tokens per scope and validates
// them at commit time. Results computed under an older token must be
// discarded: drawing a new token for a scope invalidates every earlier one.
type Sequencer interface {
	// Next issues a new token for scope, invalidating all earlier tokens.
	// Tokens start at 1; zero is never a valid token.
	Next(ctx context.Context, scope string) uint64

	// Current returns the latest token issued for scope, or 0 if none.
	Current(ctx context.Context, scope string) uint64

	// Valid reports whether token is still the latest issued for scope.
	Valid(ctx context.Context, scope string, token uint64) bool

	// Rollback retracts token if it is still the latest for scope, restoring
	// the previous token's validity. It undoes a reservation whose work was
	// never accepted. Reports whether the retraction happened.
	Rollback(ctx context.Context, scope string, token uint64) bool

	// Scopes returns the number of scopes with at least one issued token.
	Scopes() int
}

// inMemorySequencer implements Sequencer using a mutex-guarded counter map.
// Scopes are created lazily on first Next and never evicted; the set of
// scopes is small and fixed by the callers (dataset plus one per selection).
type inMemorySequencer struct {
	mu     sync.RWMutex
	latest map[string]uint64
}

// NewSequencer creates a new in-memory sequencer.
func NewSequencer() Sequencer {
	return &inMemorySequencer{
		latest: make(map[string]uint64),
	}
}

// Next issues a new token for scope, invalidating all earlier tokens.
func (s *inMemorySequencer) Next(ctx context.Context, scope string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[scope]++
	return s.latest[scope]
}

// Current returns the latest token issued for scope, or 0 if none.
func (s *inMemorySequencer) Current(ctx context.Context, scope string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest[scope]
}

// Valid reports whether token is still the latest issued for scope.
func (s *inMemorySequencer) Valid(ctx context.Context, scope string, token uint64) bool {
	if token == 0 {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest[scope] == token
}

// Rollback retracts token if it is still the latest for scope.
func (s *inMemorySequencer) Rollback(ctx context.Context, scope string, token uint64) bool {
	if token == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest[scope] != token {
		return false
	}
	s.latest[scope] = token - 1
	return true
}

// Scopes returns the number of scopes with at least one issued token.
func (s *inMemorySequencer) Scopes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.latest)
}

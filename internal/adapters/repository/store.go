// Package repository defines the snapshot store interface and errors.
package repository

import (
	"context"

	"github.com/tribelens/tribe/internal/domain/model"
)

// Store provides atomic access to the published dataset snapshot.
type Store interface {
	// Publish atomically replaces the current snapshot and returns the
	// version assigned to it. The store takes ownership of snap; callers
	// must not mutate it afterwards. A snapshot derived from a version
	// below the published one is refused with ErrStaleSnapshot.
	Publish(ctx context.Context, snap *model.Snapshot) (uint64, error)

	// Current returns the latest published snapshot. Never nil; an empty
	// store yields the canonical empty snapshot.
	Current(ctx context.Context) *model.Snapshot

	// User looks up a user by id in the current snapshot.
	User(ctx context.Context, id string) (model.User, bool)

	// Version returns the version of the current snapshot, 0 before the
	// first publish.
	Version() uint64

	// Count returns the population size of the current snapshot.
	Count() int
}

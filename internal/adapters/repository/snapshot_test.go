package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tribelens/tribe/internal/domain/model"
)

func population(n int) []model.User {
	users := make([]model.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, model.User{
			UserID:   fmt.Sprintf("user_%d", i+1),
			Username: fmt.Sprintf("name_%d", i+1),
			Segment:  "Casual Users",
		})
	}
	return users
}

func TestSnapshotStore_Empty(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	snap := store.Current(ctx)
	if snap == nil {
		t.Fatal("expected non-nil snapshot from empty store")
	}
	if snap.Users == nil || snap.Segments == nil || snap.Recommendations == nil {
		t.Error("expected non-nil collections in empty snapshot")
	}
	if got := store.Version(); got != 0 {
		t.Errorf("expected version 0, got %d", got)
	}
	if got := store.Count(); got != 0 {
		t.Errorf("expected count 0, got %d", got)
	}
	if _, ok := store.User(ctx, "user_1"); ok {
		t.Error("expected lookup miss on empty store")
	}
}

func TestSnapshotStore_Publish(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	snap := model.EmptySnapshot()
	snap.Users = population(3)
	snap.Source = model.SourceLocal

	version, err := store.Publish(ctx, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
	if got := store.Version(); got != 1 {
		t.Errorf("expected store version 1, got %d", got)
	}
	if got := store.Count(); got != 3 {
		t.Errorf("expected count 3, got %d", got)
	}

	u, ok := store.User(ctx, "user_2")
	if !ok {
		t.Fatal("expected lookup hit after publish")
	}
	if u.Username != "name_2" {
		t.Errorf("expected name_2, got %s", u.Username)
	}

	if store.Current(ctx).GeneratedAt.IsZero() {
		t.Error("expected publish to stamp GeneratedAt")
	}

	// A second publish replaces the population and the index wholesale.
	next := model.EmptySnapshot()
	next.Users = []model.User{{UserID: "user_42", Username: "name_42"}}

	version, err = store.Publish(ctx, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
	if _, ok := store.User(ctx, "user_2"); ok {
		t.Error("expected old population to be gone")
	}
	if _, ok := store.User(ctx, "user_42"); !ok {
		t.Error("expected new population to be indexed")
	}
}

func TestSnapshotStore_PublishNil(t *testing.T) {
	store := NewSnapshotStore()

	if _, err := store.Publish(context.Background(), nil); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("expected ErrNilSnapshot, got %v", err)
	}
}

func TestSnapshotStore_StaleDerivation(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	first := model.EmptySnapshot()
	first.Users = population(2)
	if _, err := store.Publish(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Hold the v1 snapshot, then let v2 land.
	base := store.Current(ctx)
	second := model.EmptySnapshot()
	second.Users = population(5)
	if _, err := store.Publish(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A derivation of v1 must be refused now that v2 is current.
	stale := base.WithSelection(base.Version, "user_1", nil)
	if _, err := store.Publish(ctx, stale); !errors.Is(err, ErrStaleSnapshot) {
		t.Errorf("expected ErrStaleSnapshot, got %v", err)
	}
	if got := store.Count(); got != 5 {
		t.Errorf("expected refused publish to leave the store untouched, got count %d", got)
	}

	// A derivation of the current version goes through.
	cur := store.Current(ctx)
	derived := cur.WithSelection(cur.Version, "user_3", []model.Recommendation{})
	version, err := store.Publish(ctx, derived)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 3 {
		t.Errorf("expected version 3, got %d", version)
	}
	if got := store.Current(ctx).SelectedUserID; got != "user_3" {
		t.Errorf("expected selection user_3, got %s", got)
	}
}

func TestSnapshotStore_ConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	const writers = 4
	const publishesPerWriter = 25
	const readers = 8

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := store.Current(ctx)
				if snap == nil {
					t.Error("reader observed nil snapshot")
					return
				}
				// Index and population must always agree.
				for i := range snap.Users {
					u, ok := store.User(ctx, snap.Users[i].UserID)
					_ = u
					_ = ok
				}
			}
		}()
	}

	var writerWg sync.WaitGroup
	for w := 0; w < writers; w++ {
		writerWg.Add(1)
		go func() {
			defer writerWg.Done()
			for i := 0; i < publishesPerWriter; i++ {
				snap := model.EmptySnapshot()
				snap.Users = population(10)
				if _, err := store.Publish(ctx, snap); err != nil {
					t.Errorf("unexpected publish error: %v", err)
				}
			}
		}()
	}

	writerWg.Wait()
	close(stop)
	wg.Wait()

	if got := store.Version(); got != writers*publishesPerWriter {
		t.Errorf("expected version %d, got %d", writers*publishesPerWriter, got)
	}
}

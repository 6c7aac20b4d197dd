package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/tribelens/tribe/internal/domain/model"
)

func benchmarkSnapshot(n int) *model.Snapshot {
	snap := model.EmptySnapshot()
	snap.Users = population(n)
	return snap
}

func BenchmarkSnapshotStore_Publish(b *testing.B) {
	ctx := context.Background()
	for _, size := range []int{100, 500, 2000} {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			store := NewSnapshotStore()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := store.Publish(ctx, benchmarkSnapshot(size)); err != nil {
					b.Fatalf("publish failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkSnapshotStore_Current(b *testing.B) {
	ctx := context.Background()
	store := NewSnapshotStore()
	if _, err := store.Publish(ctx, benchmarkSnapshot(500)); err != nil {
		b.Fatalf("publish failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if snap := store.Current(ctx); snap == nil {
			b.Fatal("nil snapshot")
		}
	}
}

func BenchmarkSnapshotStore_User(b *testing.B) {
	ctx := context.Background()
	store := NewSnapshotStore()
	if _, err := store.Publish(ctx, benchmarkSnapshot(500)); err != nil {
		b.Fatalf("publish failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := store.User(ctx, "user_250"); !ok {
			b.Fatal("lookup miss")
		}
	}
}

func BenchmarkSnapshotStore_ParallelReads(b *testing.B) {
	ctx := context.Background()
	store := NewSnapshotStore()
	if _, err := store.Publish(ctx, benchmarkSnapshot(500)); err != nil {
		b.Fatalf("publish failed: %v", err)
	}

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			snap := store.Current(ctx)
			if len(snap.Users) != 500 {
				b.Error("unexpected population size")
			}
		}
	})
}

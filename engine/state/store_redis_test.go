package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisTestStore(t *testing.T, opts ...StoreOption) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, opts...)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newRedisTestStore(t)
	ctx := context.Background()

	st, err := store.Get(ctx, "cust-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Stage != StageIdle || st.Version != 0 {
		t.Fatalf("fresh state should be idle at version 0, got %+v", st)
	}

	st.Stage = StageAwaitingSlot
	st.Slot = "product"
	st.SetSlotValue("product", "Widget")
	st.MarkProcessed("msg-001")
	if err := store.CompareAndSwap(ctx, st); err != nil {
		t.Fatalf("cas: %v", err)
	}
	if st.Version != 1 {
		t.Fatalf("cas must bump version, got %d", st.Version)
	}

	got, err := store.Get(ctx, "cust-1")
	if err != nil {
		t.Fatalf("get after cas: %v", err)
	}
	if got.Stage != StageAwaitingSlot || got.Slot != "product" || got.Draft["product"] != "Widget" {
		t.Fatalf("loaded snapshot wrong: %+v", got)
	}
	if got.LastMessageID != "msg-001" || got.Version != 1 {
		t.Fatalf("watermark or version lost: %+v", got)
	}
}

func TestRedisStoreVersionConflict(t *testing.T) {
	t.Parallel()

	store := newRedisTestStore(t)
	ctx := context.Background()

	first, _ := store.Get(ctx, "cust-1")
	second := first.Clone()

	if err := store.CompareAndSwap(ctx, first); err != nil {
		t.Fatalf("first cas: %v", err)
	}
	if err := store.CompareAndSwap(ctx, second); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// Reload and retry wins.
	fresh, err := store.Get(ctx, "cust-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := store.CompareAndSwap(ctx, fresh); err != nil {
		t.Fatalf("retry cas: %v", err)
	}
	if fresh.Version != 2 {
		t.Fatalf("expected version 2 after retry, got %d", fresh.Version)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	t.Parallel()

	store := newRedisTestStore(t)
	ctx := context.Background()

	st, _ := store.Get(ctx, "cust-1")
	if err := store.CompareAndSwap(ctx, st); err != nil {
		t.Fatalf("cas: %v", err)
	}
	if err := store.Delete(ctx, "cust-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := store.Get(ctx, "cust-1")
	if got.Version != 0 {
		t.Fatal("deleted customer should start over at version 0")
	}
}

func TestRedisStoreOptions(t *testing.T) {
	t.Parallel()

	store := newRedisTestStore(t, WithKeyPrefix("dlg:"), WithTTL(time.Hour))
	ctx := context.Background()

	st, _ := store.Get(ctx, "cust-1")
	if err := store.CompareAndSwap(ctx, st); err != nil {
		t.Fatalf("cas: %v", err)
	}

	got, err := store.Get(ctx, "cust-1")
	if err != nil {
		t.Fatalf("get with prefix: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}
}

func TestRedisStoreRejectsEmptyCustomer(t *testing.T) {
	t.Parallel()

	store := newRedisTestStore(t)
	if _, err := store.Get(context.Background(), "  "); !errors.Is(err, ErrInvalidCustomer) {
		t.Fatalf("expected ErrInvalidCustomer, got %v", err)
	}
}

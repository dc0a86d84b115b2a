package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreGetFresh(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	st, err := store.Get(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Stage != StageIdle || st.Version != 0 {
		t.Fatalf("fresh state should be idle at version 0, got %+v", st)
	}

	if _, err := store.Get(context.Background(), ""); !errors.Is(err, ErrInvalidCustomer) {
		t.Fatalf("expected ErrInvalidCustomer, got %v", err)
	}
}

func TestMemoryStoreCompareAndSwap(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	st, err := store.Get(ctx, "cust-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	st.Stage = StageAwaitingSlot
	st.Slot = "product"
	if err := store.CompareAndSwap(ctx, st); err != nil {
		t.Fatalf("first cas: %v", err)
	}
	if st.Version != 1 {
		t.Fatalf("cas must bump version, got %d", st.Version)
	}

	// A snapshot still at version 0 lost the race.
	stale := NewDialogueState("cust-1", time.Now())
	if err := store.CompareAndSwap(ctx, stale); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, err := store.Get(ctx, "cust-1")
	if err != nil {
		t.Fatalf("get after cas: %v", err)
	}
	if got.Stage != StageAwaitingSlot || got.Slot != "product" || got.Version != 1 {
		t.Fatalf("stored snapshot wrong: %+v", got)
	}
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	st, _ := store.Get(ctx, "cust-1")
	st.SetSlotValue("product", "Widget")
	if err := store.CompareAndSwap(ctx, st); err != nil {
		t.Fatalf("cas: %v", err)
	}

	// Mutating the written snapshot must not reach the store.
	st.Draft["product"] = "Gadget"
	got, _ := store.Get(ctx, "cust-1")
	if got.Draft["product"] != "Widget" {
		t.Fatal("store handed out a shared draft map")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
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

package state

import (
	"fmt"
	"testing"
	"time"
)

func TestStageTerminal(t *testing.T) {
	t.Parallel()

	for _, stage := range []Stage{StageIdle, StageAwaitingSlot, StageConfirming} {
		if stage.Terminal() {
			t.Fatalf("%s should not be terminal", stage)
		}
	}
	for _, stage := range []Stage{StageCompleted, StageCancelled} {
		if !stage.Terminal() {
			t.Fatalf("%s should be terminal", stage)
		}
	}
}

func TestSeenWatermark(t *testing.T) {
	t.Parallel()

	st := NewDialogueState("cust-1", time.Now())
	if st.Seen("msg-001") {
		t.Fatal("fresh state must not report any message as seen")
	}

	st.MarkProcessed("msg-005")
	cases := []struct {
		id   string
		seen bool
	}{
		{id: "msg-005", seen: true},
		{id: "msg-004", seen: true},
		{id: "msg-001", seen: true},
		{id: "msg-006", seen: false},
		{id: "msg-010", seen: false},
		// A longer id orders after a shorter one.
		{id: "msg-0006", seen: false},
		{id: "", seen: false},
	}
	for _, tc := range cases {
		if got := st.Seen(tc.id); got != tc.seen {
			t.Fatalf("Seen(%q) = %v, want %v", tc.id, got, tc.seen)
		}
	}
}

func TestSeenExactMatchesOnlyProcessedIDs(t *testing.T) {
	t.Parallel()

	st := NewDialogueState("cust-1", time.Now())
	st.MarkProcessed("SMff1f2e3d4c5b6a79ff1f2e3d4c5b6a79")

	if !st.SeenExact("SMff1f2e3d4c5b6a79ff1f2e3d4c5b6a79") {
		t.Fatal("processed id must be reported as seen")
	}
	// A fresh id that sorts below the watermark is still fresh.
	if st.SeenExact("SM0a1b2c3d4e5f60710a1b2c3d4e5f6071") {
		t.Fatal("unprocessed id must not be reported as seen")
	}
	if st.SeenExact("") {
		t.Fatal("empty id is never seen")
	}
}

func TestRecentMessageIDTailIsBounded(t *testing.T) {
	t.Parallel()

	st := NewDialogueState("cust-1", time.Now())
	for i := 0; i < recentMessageIDCap+10; i++ {
		st.MarkProcessed(fmt.Sprintf("msg-%03d", i))
	}

	if len(st.RecentMessageIDs) != recentMessageIDCap {
		t.Fatalf("tail grew past the cap: %d", len(st.RecentMessageIDs))
	}
	if st.SeenExact("msg-000") {
		t.Fatal("evicted id must no longer be reported as seen")
	}
	if !st.SeenExact(fmt.Sprintf("msg-%03d", recentMessageIDCap+9)) {
		t.Fatal("newest id must stay in the tail")
	}

	// Redelivering a retained id does not grow the tail.
	before := len(st.RecentMessageIDs)
	st.MarkProcessed(fmt.Sprintf("msg-%03d", recentMessageIDCap+9))
	if len(st.RecentMessageIDs) != before {
		t.Fatalf("duplicate mark grew the tail: %d", len(st.RecentMessageIDs))
	}
}

func TestMarkProcessedNeverRegresses(t *testing.T) {
	t.Parallel()

	st := NewDialogueState("cust-1", time.Now())
	st.MarkProcessed("msg-009")
	st.MarkProcessed("msg-003")
	if st.LastMessageID != "msg-009" {
		t.Fatalf("watermark regressed to %q", st.LastMessageID)
	}
	st.MarkProcessed("msg-010")
	if st.LastMessageID != "msg-010" {
		t.Fatalf("watermark did not advance, got %q", st.LastMessageID)
	}
}

func TestResetKeepsWatermarkAndVersion(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewDialogueState("cust-1", now)
	st.Stage = StageAwaitingSlot
	st.Slot = "quantity"
	st.SetSlotValue("product", "Widget")
	st.Retries = 2
	st.Version = 7
	st.MarkProcessed("msg-042")

	st.Reset(now.Add(time.Minute))

	if st.Stage != StageIdle || st.Slot != "" || st.Retries != 0 || len(st.Draft) != 0 {
		t.Fatalf("reset left residue: %+v", st)
	}
	if st.LastMessageID != "msg-042" {
		t.Fatal("reset must keep the dedup watermark")
	}
	if st.Version != 7 {
		t.Fatal("reset must not touch the version")
	}
}

func TestExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewDialogueState("cust-1", now)

	if st.Expired(now.Add(29*time.Minute), 30*time.Minute) {
		t.Fatal("state expired before the timeout")
	}
	if !st.Expired(now.Add(31*time.Minute), 30*time.Minute) {
		t.Fatal("state should be expired past the timeout")
	}
	if st.Expired(now.Add(24*time.Hour), 0) {
		t.Fatal("zero timeout disables expiry")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	now := time.Now()

	st := NewDialogueState("cust-1", now)
	if err := st.Validate(); err != nil {
		t.Fatalf("fresh state should validate: %v", err)
	}

	st.Stage = StageAwaitingSlot
	if err := st.Validate(); err == nil {
		t.Fatal("awaiting_slot without a slot cursor must fail")
	}
	st.Slot = "product"
	if err := st.Validate(); err != nil {
		t.Fatalf("awaiting_slot with cursor should validate: %v", err)
	}

	st.Stage = StageConfirming
	if err := st.Validate(); err == nil {
		t.Fatal("non-awaiting stage with slot cursor must fail")
	}

	st.Slot = ""
	st.Stage = Stage("weird")
	if err := st.Validate(); err == nil {
		t.Fatal("unknown stage must fail")
	}

	var nilState *DialogueState
	if err := nilState.Validate(); err == nil {
		t.Fatal("nil state must fail validation")
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	st := NewDialogueState("cust-1", time.Now())
	st.SetSlotValue("product", "Widget")

	clone := st.Clone()
	clone.SetSlotValue("product", "Gadget")

	if st.Draft["product"] != "Widget" {
		t.Fatal("mutating the clone leaked into the original")
	}

	st.MarkProcessed("msg-001")
	clone = st.Clone()
	clone.MarkProcessed("msg-002")
	if st.SeenExact("msg-002") {
		t.Fatal("clone's recent-id tail leaked into the original")
	}
}

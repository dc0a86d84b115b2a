package intent

import (
	"testing"

	statex "github.com/kornthana/orderdesk-agent/engine/state"
)

func TestClassifyControlKeywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		text  string
		stage statex.Stage
		want  Intent
	}{
		{name: "cancel wins anywhere", text: "please cancel this", stage: statex.StageAwaitingSlot, want: IntentCancel},
		{name: "cancel beats order keyword", text: "cancel my order", stage: statex.StageIdle, want: IntentCancel},
		{name: "confirm keyword", text: "Confirm!", stage: statex.StageConfirming, want: IntentConfirm},
		{name: "affirmation while confirming", text: "yes", stage: statex.StageConfirming, want: IntentConfirm},
		{name: "affirmation while idle is not confirm", text: "yes", stage: statex.StageIdle, want: IntentUnknown},
		{name: "start order phrase", text: "I want to place an order", stage: statex.StageIdle, want: IntentStartOrder},
		{name: "buy keyword", text: "buy a widget", stage: statex.StageIdle, want: IntentStartOrder},
		{name: "status keyword", text: "track my package", stage: statex.StageIdle, want: IntentOrderStatus},
		{name: "order id implies status", text: "where is ORD-1A2B3C4D", stage: statex.StageIdle, want: IntentOrderStatus},
		{name: "inquiry keyword", text: "what are your hours", stage: statex.StageIdle, want: IntentInquiry},
		{name: "greeting", text: "hey there", stage: statex.StageIdle, want: IntentGreeting},
		{name: "greeting phrase", text: "good morning", stage: statex.StageIdle, want: IntentGreeting},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.text, tc.stage); got != tc.want {
				t.Fatalf("Classify(%q, %s) = %s, want %s", tc.text, tc.stage, got, tc.want)
			}
		})
	}
}

func TestClassifyStageAware(t *testing.T) {
	t.Parallel()

	// Same text, different stage, different intent.
	if got := Classify("2", statex.StageAwaitingSlot); got != IntentSlotValue {
		t.Fatalf("expected slot value while awaiting slot, got %s", got)
	}
	if got := Classify("2", statex.StageIdle); got != IntentUnknown {
		t.Fatalf("expected unknown while idle, got %s", got)
	}
	if got := Classify("12 Main St", statex.StageAwaitingSlot); got != IntentSlotValue {
		t.Fatalf("expected slot value for free text answer, got %s", got)
	}
}

func TestClassifyEmpty(t *testing.T) {
	t.Parallel()

	if got := Classify("   ", statex.StageAwaitingSlot); got != IntentUnknown {
		t.Fatalf("expected unknown for blank text, got %s", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()

	first := Classify("I want to order a widget", statex.StageIdle)
	for i := 0; i < 10; i++ {
		if got := Classify("I want to order a widget", statex.StageIdle); got != first {
			t.Fatalf("classification not deterministic: %s then %s", first, got)
		}
	}
}

func TestExtractOrderID(t *testing.T) {
	t.Parallel()

	if got := ExtractOrderID("is ord-9f3a21bc shipped yet?"); got != "ORD-9F3A21BC" {
		t.Fatalf("unexpected order id %q", got)
	}
	if got := ExtractOrderID("no reference here"); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

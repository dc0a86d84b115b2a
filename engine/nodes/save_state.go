package conversationnode

import (
	"context"
	"fmt"

	statex "github.com/kornthana/orderdesk-agent/engine/state"
)

// SaveState advances the dedup watermark and commits the transition
// through the store's compare-and-swap. Dropped messages write nothing.
// A version conflict propagates so the caller can replay the whole
// pipeline against a fresh snapshot.
func SaveState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: state not loaded", ErrIncompleteState)
	}
	if in.Dropped {
		return in, nil
	}

	st := in.State
	st.MarkProcessed(in.Message.MessageID)
	st.Touch(in.Now)
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}
	if err := store.CompareAndSwap(ctx, st); err != nil {
		return nil, err
	}
	return in, nil
}

package conversationnode

import (
	"context"
	"fmt"
	"time"

	statex "github.com/kornthana/orderdesk-agent/engine/state"
)

func LoadState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", ErrIncompleteState)
	}

	st, err := store.Get(ctx, in.Message.CustomerID)
	if err != nil {
		return nil, err
	}
	st.EnsureDraft()
	in.State = st
	return in, nil
}

// ResetStale normalizes the loaded state before classification: a
// terminal stage from the previous dialogue, or a draft idle past the
// timeout, starts the customer over from idle. Stale drafts are
// abandoned, never silently resumed.
func ResetStale(in *GraphState, idleTimeout time.Duration) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: state not loaded", ErrIncompleteState)
	}
	if in.Dropped {
		return in, nil
	}

	st := in.State
	if st.Stage.Terminal() || st.Expired(in.Now, idleTimeout) {
		st.Reset(in.Now)
	}
	return in, nil
}

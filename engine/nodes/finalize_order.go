package conversationnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
	dialoguex "github.com/kornthana/orderdesk-agent/engine/dialogue"
	orderx "github.com/kornthana/orderdesk-agent/engine/order"
)

// FinalizeOrder runs the assembler when the transition asked for a
// submission. The stage only moves to completed on an accepted order; a
// transient persistence failure keeps the confirmation pending with the
// draft intact, and a validation verdict reopens the offending slot.
func FinalizeOrder(ctx context.Context, in *GraphState, assembler *orderx.Assembler, machine *dialoguex.Machine) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: state not loaded", ErrIncompleteState)
	}
	if in.Dropped || !in.Outcome.Submit {
		return in, nil
	}

	ord, err := assembler.Finalize(ctx, in.State.CustomerID, in.Message.MessageID, in.State.Draft)
	switch {
	case err == nil:
		in.Order = ord
		in.Outcome = machine.ResolveCompleted(in.State, ord.ID)
	case errors.Is(err, contractx.ErrTransient):
		in.Outcome = machine.ResolveDeferred(in.State)
	default:
		var verdict *orderx.ValidationError
		if !errors.As(err, &verdict) {
			return nil, err
		}
		in.Outcome = machine.ResolveRejected(in.State, verdict.Slot, verdict.Message)
	}
	return in, nil
}

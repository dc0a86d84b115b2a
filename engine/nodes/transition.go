package conversationnode

import (
	"context"
	"fmt"

	dialoguex "github.com/kornthana/orderdesk-agent/engine/dialogue"
)

func Transition(ctx context.Context, in *GraphState, machine *dialoguex.Machine) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: state not loaded", ErrIncompleteState)
	}
	if in.Dropped {
		return in, nil
	}

	outcome, err := machine.Step(ctx, in.State, in.Intent, in.Message.Text)
	if err != nil {
		return nil, err
	}
	in.Outcome = outcome
	return in, nil
}

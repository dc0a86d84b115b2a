package conversationnode

import (
	"fmt"

	intentx "github.com/kornthana/orderdesk-agent/engine/intent"
)

func ClassifyIntent(in *GraphState) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: state not loaded", ErrIncompleteState)
	}
	if in.Dropped {
		return in, nil
	}

	in.Intent = intentx.Classify(in.Message.Text, in.State.Stage)
	return in, nil
}

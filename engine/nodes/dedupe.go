package conversationnode

import "fmt"

// Dedupe flags re-delivered messages. The watermark and recent-id tail
// live inside DialogueState, so the drop decision commits (or not)
// atomically with the transition's compare-and-swap. Dropped messages
// get no reply.
//
// orderedIDs selects the check: per-customer monotonic ids drop
// anything at or below the watermark; unordered ids (random provider
// sids) drop only exact matches against the recent tail.
func Dedupe(in *GraphState, orderedIDs bool) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: state not loaded", ErrIncompleteState)
	}
	if orderedIDs {
		in.Dropped = in.State.Seen(in.Message.MessageID)
	} else {
		in.Dropped = in.State.SeenExact(in.Message.MessageID)
	}
	return in, nil
}

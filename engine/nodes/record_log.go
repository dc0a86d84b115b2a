package conversationnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

// RecordConversation appends the inbound message to the conversation
// history once its transition has committed. Best effort: history is
// for audit and hand-off, not correctness.
func RecordConversation(ctx context.Context, in *GraphState, history contractx.ConversationLog) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", ErrIncompleteState)
	}
	if in.Dropped || history == nil {
		return in, nil
	}

	err := history.Record(ctx, contractx.LogEntry{
		CustomerID: in.Message.CustomerID,
		Direction:  contractx.DirectionIncoming,
		Body:       in.Message.Text,
		Intent:     string(in.Intent),
		At:         in.Now,
	})
	if err != nil {
		log.Warn().Err(err).Str("customer_id", in.Message.CustomerID).Msg("conversation log append failed")
	}
	return in, nil
}

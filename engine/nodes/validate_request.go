// Package conversationnode holds the per-message pipeline steps the
// conversation engine composes into its handle graph.
package conversationnode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
	dialoguex "github.com/kornthana/orderdesk-agent/engine/dialogue"
	intentx "github.com/kornthana/orderdesk-agent/engine/intent"
	statex "github.com/kornthana/orderdesk-agent/engine/state"
)

var (
	ErrInvalidMessage  = errors.New("message text is empty")
	ErrInvalidSender   = errors.New("sender id is empty")
	ErrInvalidMsgID    = errors.New("message id is empty")
	ErrIncompleteState = errors.New("graph state is incomplete")
)

type GraphInput struct {
	Message contractx.InboundMessage
}

type GraphOutput struct {
	Reply  contractx.OutboundReply
	Intent intentx.Intent
}

// GraphState is threaded through every node of one transition attempt.
// Dropped short-circuits the rest of the pipeline once the deduplicator
// recognizes a re-delivery.
type GraphState struct {
	Message contractx.InboundMessage
	Now     time.Time

	State   *statex.DialogueState
	Dropped bool

	Intent  intentx.Intent
	Outcome dialoguex.Outcome
	Order   *contractx.Order
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	msg := in.Message
	msg.CustomerID = strings.TrimSpace(msg.CustomerID)
	msg.MessageID = strings.TrimSpace(msg.MessageID)
	msg.Text = strings.TrimSpace(msg.Text)

	if msg.CustomerID == "" {
		return nil, ErrInvalidSender
	}
	if msg.MessageID == "" {
		return nil, ErrInvalidMsgID
	}
	if msg.Text == "" {
		return nil, ErrInvalidMessage
	}

	now := nowFn().UTC()
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = now
	}

	return &GraphState{
		Message: msg,
		Now:     now,
	}, nil
}

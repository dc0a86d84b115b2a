package conversationnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

// EnsureCustomer creates the customer record on first contact and keeps
// the display name current. Repository failures are logged and do not
// block the dialogue.
func EnsureCustomer(ctx context.Context, in *GraphState, customers contractx.CustomerRepository) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", ErrIncompleteState)
	}
	if in.Dropped || customers == nil {
		return in, nil
	}

	err := customers.Upsert(ctx, &contractx.Customer{
		ID:        in.Message.CustomerID,
		Name:      in.Message.SenderName,
		UpdatedAt: in.Now,
	})
	if err != nil {
		log.Warn().Err(err).Str("customer_id", in.Message.CustomerID).Msg("customer upsert failed")
	}
	return in, nil
}

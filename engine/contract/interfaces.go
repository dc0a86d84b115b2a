package contract

import "context"

// Transport sends replies back over the chat channel. Failures are
// retryable by the caller with backoff and are never fatal to the
// dialogue itself.
type Transport interface {
	Send(ctx context.Context, customerID string, text string) error
}

// Catalog resolves a product name to a catalog entry. Unknown products
// return ErrProductNotFound; anything else is a transport-level error.
type Catalog interface {
	Lookup(ctx context.Context, name string) (Product, error)
}

// OrderRepository persists finalized orders. Unavailability must be
// reported as an error wrapping ErrTransient so the engine keeps the
// draft and retries on the customer's next message.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	// Find returns nil, nil for an unknown order id.
	Find(ctx context.Context, orderID string) (*Order, error)
}

// CustomerRepository keeps customer records current. Upsert creates the
// customer on first contact and refreshes the display name afterwards.
type CustomerRepository interface {
	Upsert(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, customerID string) (*Customer, error)
}

// ConversationLog records message traffic for audit and hand-off.
// Logging failures are non-fatal; callers log and move on.
type ConversationLog interface {
	Record(ctx context.Context, entry LogEntry) error
}

// KnowledgeBase answers routine inquiries. Lookup returns ok=false on a
// miss; the state machine then falls back to its generic help reply.
type KnowledgeBase interface {
	Lookup(text string) (string, bool)
}

package contract

import "time"

// InboundMessage is one message delivered by the chat transport.
// MessageID is transport-assigned and monotonically increasing per
// customer; delivery is at-least-once and unordered, so the engine
// dedupes on it before doing anything else.
type InboundMessage struct {
	MessageID  string    `json:"message_id"`
	CustomerID string    `json:"customer_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// OutboundReply is the engine's answer to one inbound message.
// Dropped is set when the message was a re-delivery and no reply
// must be sent.
type OutboundReply struct {
	CustomerID string `json:"customer_id"`
	Text       string `json:"text,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
	Dropped    bool   `json:"dropped,omitempty"`
}

// Customer is the persisted customer record, keyed by the stable
// chat-channel identifier (phone number). Created on first contact,
// updated on profile-relevant messages, never deleted by the engine.
type Customer struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Order is the finalized, immutable submission produced by the order
// assembler. Corrections are new orders, never mutations.
type Order struct {
	ID         string            `json:"id"`
	CustomerID string            `json:"customer_id"`
	Product    string            `json:"product"`
	Quantity   int               `json:"quantity"`
	Address    string            `json:"address"`
	Slots      map[string]string `json:"slots,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Product is one catalog entry returned by the catalog collaborator.
type Product struct {
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents,omitempty"`
	InStock    bool   `json:"in_stock"`
}

// LogDirection tags a conversation-log row.
type LogDirection string

const (
	DirectionIncoming LogDirection = "incoming"
	DirectionOutgoing LogDirection = "outgoing"
)

// LogEntry is one row of the conversation history.
type LogEntry struct {
	CustomerID string       `json:"customer_id"`
	Direction  LogDirection `json:"direction"`
	Body       string       `json:"body"`
	Intent     string       `json:"intent,omitempty"`
	At         time.Time    `json:"at"`
}

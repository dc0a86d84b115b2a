// Package storage persists customers, orders, and conversation history
// in Postgres via bun, with in-memory fallbacks for tests and
// single-node setups without a database.
package storage

import (
	"time"

	"github.com/uptrace/bun"
)

type CustomerModel struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID        string            `bun:"id,pk"`
	Name      string            `bun:"name"`
	Metadata  map[string]string `bun:"metadata,type:jsonb"`
	CreatedAt time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type OrderModel struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID         string            `bun:"id,pk"`
	CustomerID string            `bun:"customer_id,notnull"`
	Product    string            `bun:"product,notnull"`
	Quantity   int               `bun:"quantity,notnull"`
	Address    string            `bun:"address"`
	Slots      map[string]string `bun:"slots,type:jsonb"`
	Status     string            `bun:"status,notnull,default:'pending'"`
	CreatedAt  time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type ConversationModel struct {
	bun.BaseModel `bun:"table:conversations,alias:cv"`

	ID         int64     `bun:"id,pk,autoincrement"`
	CustomerID string    `bun:"customer_id,notnull"`
	Direction  string    `bun:"direction,notnull"`
	Body       string    `bun:"body"`
	Intent     string    `bun:"intent"`
	At         time.Time `bun:"at,nullzero,notnull,default:current_timestamp"`
}

type ProductModel struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	Name       string `bun:"name,pk"`
	PriceCents int    `bun:"price_cents"`
	InStock    bool   `bun:"in_stock,notnull,default:true"`
}

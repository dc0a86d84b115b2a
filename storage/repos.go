package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

// CustomerRepo implements contract.CustomerRepository on Postgres.
type CustomerRepo struct {
	db *bun.DB
}

func NewCustomerRepo(db *bun.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

func (r *CustomerRepo) Upsert(ctx context.Context, customer *contractx.Customer) error {
	if customer == nil || customer.ID == "" {
		return fmt.Errorf("%w: customer id is empty", contractx.ErrValidation)
	}
	now := time.Now().UTC()
	model := &CustomerModel{
		ID:        customer.ID,
		Name:      customer.Name,
		Metadata:  customer.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert customer %s: %w", customer.ID, err)
	}
	return nil
}

func (r *CustomerRepo) Get(ctx context.Context, customerID string) (*contractx.Customer, error) {
	model := new(CustomerModel)
	err := r.db.NewSelect().Model(model).Where("id = ?", customerID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", customerID, err)
	}
	return &contractx.Customer{
		ID:        model.ID,
		Name:      model.Name,
		Metadata:  model.Metadata,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

// OrderRepo implements contract.OrderRepository on Postgres. Write
// failures wrap ErrTransient so a draft survives a database outage.
type OrderRepo struct {
	db *bun.DB
}

func NewOrderRepo(db *bun.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Create(ctx context.Context, order *contractx.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("%w: order id is empty", contractx.ErrValidation)
	}
	model := &OrderModel{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		Product:    order.Product,
		Quantity:   order.Quantity,
		Address:    order.Address,
		Slots:      order.Slots,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
	}
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("%w: insert order %s: %v", contractx.ErrTransient, order.ID, err)
	}
	return nil
}

func (r *OrderRepo) Find(ctx context.Context, orderID string) (*contractx.Order, error) {
	model := new(OrderModel)
	err := r.db.NewSelect().Model(model).Where("id = ?", strings.ToUpper(orderID)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}
	return &contractx.Order{
		ID:         model.ID,
		CustomerID: model.CustomerID,
		Product:    model.Product,
		Quantity:   model.Quantity,
		Address:    model.Address,
		Slots:      model.Slots,
		Status:     model.Status,
		CreatedAt:  model.CreatedAt,
	}, nil
}

// ConversationRepo implements contract.ConversationLog on Postgres.
type ConversationRepo struct {
	db *bun.DB
}

func NewConversationRepo(db *bun.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Record(ctx context.Context, entry contractx.LogEntry) error {
	model := &ConversationModel{
		CustomerID: entry.CustomerID,
		Direction:  string(entry.Direction),
		Body:       entry.Body,
		Intent:     entry.Intent,
		At:         entry.At,
	}
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("record conversation for %s: %w", entry.CustomerID, err)
	}
	return nil
}

// Recent returns the latest entries for a customer, newest first.
func (r *ConversationRepo) Recent(ctx context.Context, customerID string, limit int) ([]contractx.LogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var models []ConversationModel
	err := r.db.NewSelect().
		Model(&models).
		Where("customer_id = ?", customerID).
		Order("at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversation for %s: %w", customerID, err)
	}
	entries := make([]contractx.LogEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, contractx.LogEntry{
			CustomerID: m.CustomerID,
			Direction:  contractx.LogDirection(m.Direction),
			Body:       m.Body,
			Intent:     m.Intent,
			At:         m.At,
		})
	}
	return entries, nil
}

// SeedProducts upserts the configured catalog into the products table
// so DBCatalog serves the same set a static deployment would.
func SeedProducts(ctx context.Context, db *bun.DB, products []contractx.Product) error {
	for _, p := range products {
		model := &ProductModel{
			Name:       p.Name,
			PriceCents: p.PriceCents,
			InStock:    p.InStock,
		}
		_, err := db.NewInsert().
			Model(model).
			On("CONFLICT (name) DO UPDATE").
			Set("price_cents = EXCLUDED.price_cents").
			Set("in_stock = EXCLUDED.in_stock").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.Name, err)
		}
	}
	return nil
}

// DBCatalog implements contract.Catalog against the products table.
type DBCatalog struct {
	db *bun.DB
}

func NewDBCatalog(db *bun.DB) *DBCatalog {
	return &DBCatalog{db: db}
}

func (c *DBCatalog) Lookup(ctx context.Context, name string) (contractx.Product, error) {
	model := new(ProductModel)
	err := c.db.NewSelect().
		Model(model).
		Where("lower(name) = lower(?)", strings.TrimSpace(name)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.Product{}, fmt.Errorf("%w: %s", contractx.ErrProductNotFound, name)
	}
	if err != nil {
		return contractx.Product{}, fmt.Errorf("%w: lookup product %s: %v", contractx.ErrTransient, name, err)
	}
	return contractx.Product{
		Name:       model.Name,
		PriceCents: model.PriceCents,
		InStock:    model.InStock,
	}, nil
}

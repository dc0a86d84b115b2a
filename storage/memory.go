package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

// MemoryCustomers is an in-process CustomerRepository for deployments
// without a database and for tests.
type MemoryCustomers struct {
	mu        sync.RWMutex
	customers map[string]contractx.Customer
}

func NewMemoryCustomers() *MemoryCustomers {
	return &MemoryCustomers{customers: make(map[string]contractx.Customer)}
}

func (m *MemoryCustomers) Upsert(_ context.Context, customer *contractx.Customer) error {
	if customer == nil || customer.ID == "" {
		return fmt.Errorf("%w: customer id is empty", contractx.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := m.customers[customer.ID]
	if !ok {
		existing = contractx.Customer{ID: customer.ID, CreatedAt: now}
	}
	if customer.Name != "" {
		existing.Name = customer.Name
	}
	if customer.Metadata != nil {
		existing.Metadata = customer.Metadata
	}
	existing.UpdatedAt = now
	m.customers[customer.ID] = existing
	return nil
}

func (m *MemoryCustomers) Get(_ context.Context, customerID string) (*contractx.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[customerID]
	if !ok {
		return nil, nil
	}
	out := c
	return &out, nil
}

// MemoryOrders is an in-process OrderRepository.
type MemoryOrders struct {
	mu     sync.RWMutex
	orders map[string]contractx.Order
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{orders: make(map[string]contractx.Order)}
}

func (m *MemoryOrders) Create(_ context.Context, order *contractx.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("%w: order id is empty", contractx.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return fmt.Errorf("%w: order %s already exists", contractx.ErrValidation, order.ID)
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *MemoryOrders) Find(_ context.Context, orderID string) (*contractx.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[strings.ToUpper(orderID)]
	if !ok {
		return nil, nil
	}
	out := o
	return &out, nil
}

// MemoryLog is an in-process ConversationLog that keeps a bounded
// per-customer tail.
type MemoryLog struct {
	mu      sync.Mutex
	entries map[string][]contractx.LogEntry
	limit   int
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make(map[string][]contractx.LogEntry), limit: 200}
}

func (m *MemoryLog) Record(_ context.Context, entry contractx.LogEntry) error {
	if entry.CustomerID == "" {
		return fmt.Errorf("%w: log entry without customer id", contractx.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tail := append(m.entries[entry.CustomerID], entry)
	if len(tail) > m.limit {
		tail = tail[len(tail)-m.limit:]
	}
	m.entries[entry.CustomerID] = tail
	return nil
}

// Recent returns the latest entries for a customer, newest first.
func (m *MemoryLog) Recent(_ context.Context, customerID string, limit int) ([]contractx.LogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tail := m.entries[customerID]
	if len(tail) > limit {
		tail = tail[len(tail)-limit:]
	}
	out := make([]contractx.LogEntry, 0, len(tail))
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out, nil
}

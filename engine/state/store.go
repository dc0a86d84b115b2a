package state

import (
	"context"
	"sync"
	"time"
)

// Store is the session persistence contract used by the conversation
// engine. Get never fails with not-found: a customer without state gets
// a fresh idle snapshot at version zero. CompareAndSwap writes the
// snapshot only if the stored version still equals st.Version, bumping
// st.Version by one on success; a lost race returns ErrVersionConflict
// and the caller recomputes the whole transition.
type Store interface {
	Get(ctx context.Context, customerID string) (*DialogueState, error)
	CompareAndSwap(ctx context.Context, st *DialogueState) error
	Delete(ctx context.Context, customerID string) error
}

// MemoryStore keeps dialogue state in process memory. It backs tests and
// single-node deployments without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*DialogueState
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*DialogueState),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, customerID string) (*DialogueState, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomer
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.sessions[customerID]; ok {
		return st.Clone(), nil
	}
	return NewDialogueState(customerID, m.now()), nil
}

func (m *MemoryStore) CompareAndSwap(ctx context.Context, st *DialogueState) error {
	if st == nil {
		return ErrNilState
	}
	if st.CustomerID == "" {
		return ErrInvalidCustomer
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var stored int64
	if cur, ok := m.sessions[st.CustomerID]; ok {
		stored = cur.Version
	}
	if stored != st.Version {
		return ErrVersionConflict
	}

	st.Version++
	m.sessions[st.CustomerID] = st.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, customerID string) error {
	if customerID == "" {
		return ErrInvalidCustomer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, customerID)
	return nil
}

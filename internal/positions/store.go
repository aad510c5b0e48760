// Package positions tracks order-backed positions from creation through
// fill. Positions live in memory keyed by decision id, with a secondary
// index on broker order id for reconciliation.
package positions

import (
	"sync"

	"github.com/alphastack/backend/internal/contracts"
)

// Store is the in-memory position registry
type Store struct {
	mu        sync.RWMutex
	byID      map[string]*contracts.Position
	byOrderID map[string]string // order id → position id
}

func NewStore() *Store {
	return &Store{
		byID:      make(map[string]*contracts.Position),
		byOrderID: make(map[string]string),
	}
}

// Put registers or replaces a position
func (s *Store) Put(p contracts.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[p.ID]; ok && existing.OrderID != p.OrderID {
		delete(s.byOrderID, existing.OrderID)
	}

	cp := p
	s.byID[p.ID] = &cp
	if p.OrderID != "" {
		s.byOrderID[p.OrderID] = p.ID
	}
}

// Get returns a position by id
func (s *Store) Get(id string) (contracts.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return contracts.Position{}, false
	}
	return *p, true
}

// GetByOrderID returns the position backing a broker order
func (s *Store) GetByOrderID(orderID string) (contracts.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOrderID[orderID]
	if !ok {
		return contracts.Position{}, false
	}
	return *s.byID[id], true
}

// All returns every tracked position
func (s *Store) All() []contracts.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.Position, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, *p)
	}
	return out
}

// update applies fn to the position backing orderID under the write lock
func (s *Store) update(orderID string, fn func(*contracts.Position)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byOrderID[orderID]
	if !ok {
		return false
	}
	fn(s.byID[id])
	return true
}

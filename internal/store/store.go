// Package store owns the in-memory order collection. IDs are assigned
// sequentially from 1 and never reused; orders are never deleted.
package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"printforge/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

// Journal receives a best-effort copy of every store mutation. Errors are
// logged, never surfaced; the in-memory collection stays authoritative.
type Journal interface {
	AppendOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, id int64, status models.Status) error
}

// Store holds all orders for the process lifetime. A single mutex
// serializes id assignment, appends and status writes; reads copy orders
// out so callers never observe a torn Order.
type Store struct {
	mu      sync.Mutex
	orders  []*models.Order
	nextID  int64
	journal Journal
	now     func() time.Time
}

// New creates an empty store. journal may be nil.
func New(journal Journal) *Store {
	return &Store{
		nextID:  1,
		journal: journal,
		now:     time.Now,
	}
}

// Insert assigns the next id, stamps the current time, sets the order
// pending and appends it. The returned Order is a copy.
func (s *Store) Insert(ctx context.Context, draft models.OrderDraft) models.Order {
	s.mu.Lock()
	order := &models.Order{
		ID:              s.nextID,
		CustomerName:    draft.CustomerName,
		FileName:        draft.FileName,
		FileSizeBytes:   draft.FileSizeBytes,
		SpecialRequests: draft.SpecialRequests,
		Analysis:        draft.Analysis,
		Pricing:         draft.Pricing,
		Status:          models.StatusPending,
		CreatedAt:       s.now(),
	}
	s.nextID++
	s.orders = append(s.orders, order)
	stored := *order
	s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.AppendOrder(ctx, &stored); err != nil {
			log.Printf("journal append for order %d failed: %v", stored.ID, err)
		}
	}
	return stored
}

// Get returns a copy of the order with the given id.
func (s *Store) Get(id int64) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.findLocked(id)
	if order == nil {
		return models.Order{}, ErrOrderNotFound
	}
	return *order, nil
}

// UpdateStatus overwrites an order's status. It only checks the value is
// a known status; transition rules live in the lifecycle package.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Order, error) {
	return s.UpdateStatusIf(ctx, id, status, nil)
}

// UpdateStatusIf overwrites an order's status after check approves the
// current one. check runs under the store mutex, so the decision and the
// write are one atomic step. A nil check always approves.
func (s *Store) UpdateStatusIf(ctx context.Context, id int64, status models.Status, check func(current models.Status) error) (models.Order, error) {
	if !models.ValidStatus(status) {
		return models.Order{}, ErrInvalidStatus
	}

	s.mu.Lock()
	order := s.findLocked(id)
	if order == nil {
		s.mu.Unlock()
		return models.Order{}, ErrOrderNotFound
	}
	if check != nil {
		if err := check(order.Status); err != nil {
			s.mu.Unlock()
			return models.Order{}, err
		}
	}
	order.Status = status
	updated := *order
	s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.UpdateOrderStatus(ctx, id, status); err != nil {
			log.Printf("journal status update for order %d failed: %v", id, err)
		}
	}
	return updated, nil
}

// List returns copies of all orders in insertion order.
func (s *Store) List() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, *order)
	}
	return out
}

// Recent returns up to n orders, most recently inserted first.
func (s *Store) Recent(n int) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n > len(s.orders) {
		n = len(s.orders)
	}
	out := make([]models.Order, 0, n)
	for i := len(s.orders) - 1; i >= len(s.orders)-n; i-- {
		out = append(out, *s.orders[i])
	}
	return out
}

func (s *Store) findLocked(id int64) *models.Order {
	idx := id - 1
	if idx < 0 || idx >= int64(len(s.orders)) {
		return nil
	}
	// ids are dense so the slice index is the lookup
	return s.orders[idx]
}

// Package lifecycle enforces order status transitions and produces the
// shop's aggregate reporting.
package lifecycle

import (
	"context"
	"errors"

	"printforge/internal/models"
	"printforge/internal/pricing"
	"printforge/internal/store"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// recentOrderCount is how many orders the dashboard shows.
const recentOrderCount = 5

// Stats summarizes all orders regardless of status.
type Stats struct {
	TotalOrders     int     `json:"total_orders"`
	PendingOrders   int     `json:"pending_orders"`
	CompletedOrders int     `json:"completed_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// Tracker applies transition rules on top of a store.
type Tracker struct {
	store *store.Store
}

func NewTracker(s *store.Store) *Tracker {
	return &Tracker{store: s}
}

// Transition moves an order to a new status. Self-transitions are
// idempotent; illegal transitions leave the order unchanged and return
// ErrInvalidTransition. The rule check and the write happen under the
// store mutex, so two racing transitions can never both win.
func (t *Tracker) Transition(ctx context.Context, id int64, next models.Status) (models.Order, error) {
	if !models.ValidStatus(next) {
		return models.Order{}, store.ErrInvalidStatus
	}
	return t.store.UpdateStatusIf(ctx, id, next, func(current models.Status) error {
		if !models.CanTransition(current, next) {
			return ErrInvalidTransition
		}
		return nil
	})
}

// Stats scans all orders and derives the dashboard counters. Revenue sums
// every order's total price regardless of status.
func (t *Tracker) Stats() Stats {
	orders := t.store.List()
	stats := Stats{TotalOrders: len(orders)}
	revenue := 0.0
	for _, order := range orders {
		switch order.Status {
		case models.StatusPending:
			stats.PendingOrders++
		case models.StatusCompleted:
			stats.CompletedOrders++
		}
		revenue += order.Pricing.TotalPrice
	}
	stats.TotalRevenue = pricing.Round2(revenue)
	return stats
}

// RecentOrders returns the most recently inserted orders, newest first.
func (t *Tracker) RecentOrders() []models.Order {
	return t.store.Recent(recentOrderCount)
}

// Package snapshot keeps the latest live orders and tables in memory for
// read paths, refreshed whenever the store reports a change.
package snapshot

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pizzaflow/internal/database"
	"pizzaflow/internal/events"
	"pizzaflow/internal/model"
)

// Source is the store the snapshot reads from.
type Source interface {
	ListOrders(ctx context.Context, f database.OrderFilter) ([]model.Order, error)
	ListTables(ctx context.Context) ([]model.Table, error)
}

type Snapshot struct {
	src    Source
	logger *zerolog.Logger

	mu          sync.RWMutex
	orders      []model.Order
	tables      []model.Table
	refreshedAt time.Time
}

func New(src Source, logger *zerolog.Logger) *Snapshot {
	return &Snapshot{src: src, logger: logger}
}

// Refresh reloads live orders and active tables from the source.
func (s *Snapshot) Refresh(ctx context.Context) error {
	orders, err := s.src.ListOrders(ctx, database.OrderFilter{})
	if err != nil {
		return fmt.Errorf("refresh orders: %w", err)
	}
	tables, err := s.src.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("refresh tables: %w", err)
	}

	s.mu.Lock()
	s.orders = orders
	s.tables = tables
	s.refreshedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Orders returns a copy of the live orders.
func (s *Snapshot) Orders() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders)
}

// Tables returns a copy of the active tables.
func (s *Snapshot) Tables() []model.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tables)
}

func (s *Snapshot) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Run refreshes on every order or table event until ctx is done. Bursts of
// events collapse into one refresh.
func (s *Snapshot) Run(ctx context.Context, bus *events.EventBus) {
	ch := bus.SubscribeChan(1, events.OrderCreated, events.OrderUpdated, events.OrderDeleted, events.TablesChanged)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("snapshot refresh failed")
			}
		}
	}
}

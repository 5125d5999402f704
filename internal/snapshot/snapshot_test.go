package snapshot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzaflow/internal/database"
	"pizzaflow/internal/events"
	"pizzaflow/internal/model"
)

type fakeSource struct {
	mu     sync.Mutex
	orders []model.Order
	tables []model.Table
	err    error
	calls  int
}

func (f *fakeSource) ListOrders(_ context.Context, _ database.OrderFilter) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]model.Order(nil), f.orders...), f.err
}

func (f *fakeSource) ListTables(context.Context) ([]model.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Table(nil), f.tables...), nil
}

func (f *fakeSource) set(orders []model.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
}

func TestSnapshot_Refresh(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{{ID: "a"}},
		tables: []model.Table{{ID: 1, Capacity: 4}},
	}
	logger := zerolog.New(io.Discard)
	s := New(src, &logger)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, s.Orders(), 1)
	assert.Len(t, s.Tables(), 1)
	assert.False(t, s.RefreshedAt().IsZero())

	// callers get copies
	orders := s.Orders()
	orders[0].ID = "changed"
	assert.Equal(t, "a", s.Orders()[0].ID)

	src.err = errors.New("db down")
	assert.Error(t, s.Refresh(context.Background()))
	assert.Equal(t, "a", s.Orders()[0].ID, "failed refresh keeps the previous state")
}

func TestSnapshot_RunRefreshesOnEvents(t *testing.T) {
	src := &fakeSource{}
	logger := zerolog.New(io.Discard)
	s := New(src, &logger)
	bus := events.NewEventBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx, bus)
		close(done)
	}()

	src.set([]model.Order{{ID: "new"}})
	assert.Eventually(t, func() bool {
		_ = bus.Publish(events.NewOrderEvent(events.OrderCreated, "new", "2024-06-10", "20:00"))
		return len(s.Orders()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

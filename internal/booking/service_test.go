package booking

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pizzaflow/internal/availability"
	"pizzaflow/internal/database"
	"pizzaflow/internal/events"
	"pizzaflow/internal/guard"
	"pizzaflow/internal/model"
	"pizzaflow/internal/overbooking"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateOrder(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockStore) GetOrder(ctx context.Context, id string) (model.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Order), args.Error(1)
}
func (m *mockStore) UpdateOrder(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockStore) DeleteOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockStore) ListOrders(ctx context.Context, f database.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.Order), args.Error(1)
}
func (m *mockStore) ListTables(ctx context.Context) ([]model.Table, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Table), args.Error(1)
}
func (m *mockStore) SetTableStatus(ctx context.Context, id int, status model.TableStatus) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *mockStore) RecordAudit(ctx context.Context, e model.AuditEntry) error {
	return m.Called(ctx, e).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) ForcedOverride(ctx context.Context, o model.Order, d overbooking.Decision) error {
	return m.Called(ctx, o, d).Error(0)
}
func (m *mockNotifier) PendingOrder(ctx context.Context, o model.Order) error {
	return m.Called(ctx, o).Error(0)
}

type staticCalendar struct {
	cal *model.Calendar
}

func (s staticCalendar) Calendar() *model.Calendar { return s.cal }

func testCalendar() *model.Calendar {
	return &model.Calendar{
		Weekly: []model.DayConfig{{Day: "monday", Shifts: []model.Shift{
			{Enabled: true, Open: "12:00", Close: "14:00"},
			{Enabled: true, Open: "19:00", Close: "22:00"},
		}}},
		SlotStepMinutes: 15,
		MaxKitchenLoad:  10,
		MaxFutureDays:   60,
		TablePolicy:     model.BoundedDurationPolicy{Minutes: 120},
	}
}

var floor = []model.Table{{ID: 1, Capacity: 4}, {ID: 2, Capacity: 2}}

type fixture struct {
	svc      *Service
	store    *mockStore
	notifier *mockNotifier
	bus      *events.EventBus
	locker   *guard.Locker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC))
}

func newFixtureAt(t *testing.T, now time.Time) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	store := new(mockStore)
	store.On("RecordAudit", mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier := new(mockNotifier)
	bus := events.NewEventBus()
	locker := guard.NewLocal(guard.Options{Wait: 20 * time.Millisecond, Retry: 5 * time.Millisecond}, &logger)
	clock := func() time.Time { return now }

	return &fixture{
		svc:      NewService(store, staticCalendar{testCalendar()}, locker, bus, notifier, clock, &logger),
		store:    store,
		notifier: notifier,
		bus:      bus,
		locker:   locker,
	}
}

func pizzas(n int) []model.OrderItem {
	items := make([]model.OrderItem, n)
	for i := range items {
		items[i] = model.OrderItem{Name: "Margherita", Category: model.KitchenCategory}
	}
	return items
}

func takeaway(id string, n int) model.Order {
	return model.Order{ID: id, Type: model.OrderTakeaway, Date: "2024-06-10", Time: "19:30", Items: pizzas(n), IsAccepted: true, Version: 1}
}

func TestSubmitOrder_StaffCreatesAcceptedOrder(t *testing.T) {
	f := newFixture(t)
	received := f.bus.SubscribeChan(1, events.OrderCreated)

	f.store.On("ListOrders", mock.Anything, database.OrderFilter{}).Return([]model.Order{takeaway("a", 4)}, nil)
	f.store.On("CreateOrder", mock.Anything, mock.AnythingOfType("*model.Order")).Return(nil).Once()

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		Order: model.Order{Type: model.OrderTakeaway, Date: "2024-06-10", Time: "19:30", Items: pizzas(3), TableIDs: []int{1}},
		Flow:  overbooking.FlowStaff,
		Actor: "mario",
	})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.NotEmpty(t, res.Order.ID)
	assert.True(t, res.Order.IsAccepted)
	assert.Equal(t, "mario", res.Order.CreatedBy)
	assert.Nil(t, res.Order.TableIDs)
	assert.Equal(t, overbooking.VerdictAllow, res.Decision.Verdict)
	assert.Equal(t, 7, res.Decision.Projected)

	select {
	case e := <-received:
		p, err := e.DecodeOrder()
		require.NoError(t, err)
		assert.Equal(t, res.Order.ID, p.OrderID)
	default:
		t.Fatal("expected order.created event")
	}
	f.store.AssertExpectations(t)
	f.notifier.AssertNotCalled(t, "PendingOrder", mock.Anything, mock.Anything)
}

func TestSubmitOrder_PublicOrderIsPending(t *testing.T) {
	f := newFixture(t)
	f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{}, nil)
	f.store.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifier.On("PendingOrder", mock.Anything, mock.MatchedBy(func(o model.Order) bool { return o.IsPending() })).Return(nil).Once()

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		Order: model.Order{Type: model.OrderDelivery, Date: "2024-06-10", Time: "12:15", Items: pizzas(2)},
	})
	require.NoError(t, err)
	assert.False(t, res.Order.IsAccepted)
	f.notifier.AssertExpectations(t)
}

func TestSubmitOrder_Overbooking(t *testing.T) {
	existing := []model.Order{takeaway("a", 8)}
	req := func(flow overbooking.Flow, force bool) SubmitRequest {
		return SubmitRequest{
			Order: model.Order{Type: model.OrderTakeaway, Date: "2024-06-10", Time: "19:30", Items: pizzas(3)},
			Flow:  flow,
			Force: force,
			Actor: "luigi",
		}
	}

	t.Run("public is full", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return(existing, nil)

		_, err := f.svc.SubmitOrder(context.Background(), req(overbooking.FlowPublic, true))
		var oe *OverbookingError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, overbooking.VerdictFull, oe.Decision.Verdict)
		assert.False(t, oe.NeedsConfirmation())
		f.store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("staff must confirm", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return(existing, nil)

		_, err := f.svc.SubmitOrder(context.Background(), req(overbooking.FlowStaff, false))
		var oe *OverbookingError
		require.ErrorAs(t, err, &oe)
		assert.True(t, oe.NeedsConfirmation())
		assert.Equal(t, 11, oe.Decision.Projected)
		f.store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("staff forces", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return(existing, nil)
		f.store.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()
		f.notifier.On("ForcedOverride", mock.Anything, mock.Anything, mock.MatchedBy(func(d overbooking.Decision) bool {
			return d.Verdict == overbooking.VerdictForced && d.Projected == 11
		})).Return(errors.New("telegram down")).Once()

		res, err := f.svc.SubmitOrder(context.Background(), req(overbooking.FlowStaff, true))
		require.NoError(t, err)
		assert.True(t, res.Decision.Overbooked)
		f.notifier.AssertExpectations(t)
		f.store.AssertCalled(t, "RecordAudit", mock.Anything, mock.MatchedBy(func(e model.AuditEntry) bool {
			return e.Action == "overbooking_forced" && e.Actor == "luigi" && e.Details == "11/10 kitchen items at 19:30"
		}))
	})

	t.Run("at capacity is allowed", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{takeaway("a", 7)}, nil)
		f.store.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()
		f.notifier.On("PendingOrder", mock.Anything, mock.Anything).Return(nil)

		res, err := f.svc.SubmitOrder(context.Background(), req(overbooking.FlowPublic, false))
		require.NoError(t, err)
		assert.Equal(t, 10, res.Decision.Projected)
		assert.False(t, res.Decision.Overbooked)
	})
}

func TestSubmitOrder_EditExcludesItself(t *testing.T) {
	f := newFixture(t)
	stored := takeaway("a", 9)
	f.store.On("GetOrder", mock.Anything, "a").Return(stored, nil)
	f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{stored}, nil)
	f.store.On("UpdateOrder", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.ID == "a" && o.Version == 1 && o.IsAccepted
	})).Return(nil).Once()

	edit := takeaway("a", 10)
	edit.Version = 0
	edit.IsAccepted = false
	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: edit, Flow: overbooking.FlowStaff})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 10, res.Decision.Projected)
	f.store.AssertExpectations(t)
}

func TestSubmitOrder_EditRunningOrder(t *testing.T) {
	ctx := context.Background()
	during := time.Date(2024, 6, 10, 19, 20, 0, 0, time.UTC)

	t.Run("items of a started slot", func(t *testing.T) {
		f := newFixtureAt(t, during)
		stored := takeaway("o1", 2)
		stored.Time = "19:00"
		f.store.On("GetOrder", mock.Anything, "o1").Return(stored, nil)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{stored}, nil)
		f.store.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil).Once()

		edit := stored
		edit.Items = pizzas(5)
		res, err := f.svc.SubmitOrder(ctx, SubmitRequest{Order: edit, Flow: overbooking.FlowStaff, Actor: "anna"})
		require.NoError(t, err)
		assert.Equal(t, 5, res.Decision.Projected)
		f.store.AssertExpectations(t)
	})

	t.Run("order of an earlier day", func(t *testing.T) {
		f := newFixtureAt(t, during)
		stored := takeaway("o0", 2)
		stored.Date = "2024-06-03"
		f.store.On("GetOrder", mock.Anything, "o0").Return(stored, nil)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{stored}, nil)
		f.store.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil).Once()

		edit := stored
		edit.Notes = "paid cash"
		_, err := f.svc.SubmitOrder(ctx, SubmitRequest{Order: edit, Flow: overbooking.FlowStaff})
		require.NoError(t, err)
	})

	t.Run("moving to a past slot is refused", func(t *testing.T) {
		f := newFixtureAt(t, during)
		stored := takeaway("o1", 2)
		f.store.On("GetOrder", mock.Anything, "o1").Return(stored, nil)

		edit := stored
		edit.Time = "19:15"
		_, err := f.svc.SubmitOrder(ctx, SubmitRequest{Order: edit, Flow: overbooking.FlowStaff})
		var ue *UnavailableError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, availability.ReasonSlotUnavailable, ue.Reason)
		f.store.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
	})

	t.Run("seated table still checks conflicts", func(t *testing.T) {
		f := newFixtureAt(t, during)
		other := model.Order{ID: "t1", Type: model.OrderTable, Date: "2024-06-10", Time: "19:00", TableIDs: []int{1}, DurationMinutes: 120, IsAccepted: true, Version: 1}
		stored := model.Order{ID: "t2", Type: model.OrderTable, Date: "2024-06-10", Time: "19:00", TableIDs: []int{2}, DurationMinutes: 120, Pax: 2, IsAccepted: true, Version: 1}
		f.store.On("GetOrder", mock.Anything, "t2").Return(stored, nil)
		f.store.On("ListTables", mock.Anything).Return(floor, nil)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{other, stored}, nil)

		edit := stored
		edit.TableIDs = []int{1, 2}
		edit.Pax = 6
		_, err := f.svc.SubmitOrder(ctx, SubmitRequest{Order: edit, Flow: overbooking.FlowStaff})
		var ce *TableConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "t1", ce.Conflicts[0].ID)
		f.store.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
	})
}

func TestSubmitOrder_StaffEditAcceptsPending(t *testing.T) {
	f := newFixture(t)
	stored := takeaway("p", 2)
	stored.IsAccepted = false
	f.store.On("GetOrder", mock.Anything, "p").Return(stored, nil)
	f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{stored}, nil)
	f.store.On("UpdateOrder", mock.Anything, mock.MatchedBy(func(o *model.Order) bool { return o.IsAccepted })).Return(nil).Once()

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: stored, Flow: overbooking.FlowStaff, Actor: "anna"})
	require.NoError(t, err)
	assert.True(t, res.Order.IsAccepted)
	f.store.AssertCalled(t, "RecordAudit", mock.Anything, mock.MatchedBy(func(e model.AuditEntry) bool {
		return e.Action == "accept" && e.OrderID == "p" && e.Actor == "anna"
	}))
}

func TestSubmitOrder_RecheckUnderLock(t *testing.T) {
	ctx := context.Background()

	t.Run("table taken between the reads", func(t *testing.T) {
		f := newFixture(t)
		booked := model.Order{ID: "t1", Type: model.OrderTable, Date: "2024-06-10", Time: "19:00", TableIDs: []int{1}, DurationMinutes: 120}
		f.store.On("ListTables", mock.Anything).Return(floor, nil)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{}, nil).Once()
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{booked}, nil).Once()

		order := model.Order{Type: model.OrderTable, Date: "2024-06-10", Time: "19:30", TableIDs: []int{1}, Pax: 2}
		_, err := f.svc.SubmitOrder(ctx, SubmitRequest{Order: order, Flow: overbooking.FlowStaff})
		var ce *TableConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "t1", ce.Conflicts[0].ID)
		f.store.AssertNumberOfCalls(t, "ListOrders", 2)
		f.store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("slot filled between the reads", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{}, nil).Once()
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{takeaway("a", 8)}, nil).Once()

		order := model.Order{Type: model.OrderTakeaway, Date: "2024-06-10", Time: "19:30", Items: pizzas(3)}
		_, err := f.svc.SubmitOrder(ctx, SubmitRequest{Order: order, Flow: overbooking.FlowPublic})
		var oe *OverbookingError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, overbooking.VerdictFull, oe.Decision.Verdict)
		assert.Equal(t, 11, oe.Decision.Projected)
		f.store.AssertNumberOfCalls(t, "ListOrders", 2)
		f.store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "PendingOrder", mock.Anything, mock.Anything)
	})
}

func TestSubmitOrder_EditStaleVersion(t *testing.T) {
	f := newFixture(t)
	stored := takeaway("a", 1)
	stored.Version = 3
	f.store.On("GetOrder", mock.Anything, "a").Return(stored, nil)
	f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{stored}, nil)
	f.store.On("UpdateOrder", mock.Anything, mock.Anything).Return(database.ErrConcurrentModification)

	edit := takeaway("a", 2)
	edit.Version = 2
	_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: edit, Flow: overbooking.FlowStaff})
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestSubmitOrder_Tables(t *testing.T) {
	booked := model.Order{ID: "t1", Type: model.OrderTable, Date: "2024-06-10", Time: "19:00", TableIDs: []int{1}, DurationMinutes: 120, Pax: 4}
	table := func(clock string, ids ...int) model.Order {
		return model.Order{Type: model.OrderTable, Date: "2024-06-10", Time: clock, TableIDs: ids, Pax: 2}
	}

	t.Run("conflict", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListTables", mock.Anything).Return(floor, nil)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{booked}, nil)

		_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: table("20:45", 1, 2), Flow: overbooking.FlowStaff})
		var ce *TableConflictError
		require.ErrorAs(t, err, &ce)
		require.Len(t, ce.Conflicts, 1)
		assert.Equal(t, "t1", ce.Conflicts[0].ID)
	})

	t.Run("back to back with duration snapshot", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListTables", mock.Anything).Return(floor, nil)
		f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{booked}, nil)
		f.store.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()

		res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: table("21:00", 1), Flow: overbooking.FlowStaff})
		require.NoError(t, err)
		assert.Equal(t, 120, res.Order.DurationMinutes)
	})

	t.Run("not enough seats", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListTables", mock.Anything).Return(floor, nil)
		o := table("12:00", 2)
		o.Pax = 5

		_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: o, Flow: overbooking.FlowStaff})
		var ue *UnavailableError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, availability.ReasonTablesFull, ue.Reason)
	})

	t.Run("unknown table", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListTables", mock.Anything).Return(floor, nil)

		_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: table("12:00", 9), Flow: overbooking.FlowStaff})
		assert.ErrorIs(t, err, ErrUnknownTable)
	})
}

func TestSubmitOrder_Unavailable(t *testing.T) {
	tests := []struct {
		name  string
		order model.Order
		want  availability.Reason
	}{
		{"no service", model.Order{Date: "2024-06-10", Time: "12:00"}, availability.ReasonSelectService},
		{"past date", model.Order{Type: model.OrderTakeaway, Date: "2024-06-03", Time: "12:00"}, availability.ReasonPastDate},
		{"closed", model.Order{Type: model.OrderTakeaway, Date: "2024-06-11", Time: "12:00"}, availability.ReasonClosed},
		{"off grid", model.Order{Type: model.OrderTakeaway, Date: "2024-06-10", Time: "15:00"}, availability.ReasonSlotUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: tt.order})
			var ue *UnavailableError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.want, ue.Reason)
		})
	}
}

func TestSubmitOrder_InvalidTime(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		Order: model.Order{Type: model.OrderTakeaway, Date: "2024-06-10", Time: "7pm"},
	})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestSubmitOrder_Busy(t *testing.T) {
	f := newFixture(t)
	f.store.On("ListOrders", mock.Anything, mock.Anything).Return([]model.Order{}, nil)

	lease, err := f.locker.Acquire(context.Background(), guard.SlotKey("2024-06-10", "19:30"))
	require.NoError(t, err)
	defer lease.Release(context.Background())

	_, err = f.svc.SubmitOrder(context.Background(), SubmitRequest{Order: takeaway("", 1), Flow: overbooking.FlowStaff})
	assert.ErrorIs(t, err, ErrBusy)
	f.store.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestStaffDecisions(t *testing.T) {
	ctx := context.Background()
	pending := takeaway("p", 1)
	pending.IsAccepted = false

	t.Run("accept", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetOrder", ctx, "p").Return(pending, nil)
		f.store.On("UpdateOrder", ctx, mock.MatchedBy(func(o *model.Order) bool { return o.IsAccepted })).Return(nil).Once()

		o, err := f.svc.AcceptOrder(ctx, "p", "anna")
		require.NoError(t, err)
		assert.True(t, o.IsAccepted)
		f.store.AssertExpectations(t)
	})

	t.Run("accept twice is a no-op", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetOrder", ctx, "a").Return(takeaway("a", 1), nil)

		_, err := f.svc.AcceptOrder(ctx, "a", "anna")
		require.NoError(t, err)
		f.store.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
	})

	t.Run("archive", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetOrder", ctx, "a").Return(takeaway("a", 1), nil)
		f.store.On("UpdateOrder", ctx, mock.MatchedBy(func(o *model.Order) bool { return o.IsArchived })).Return(nil).Once()

		o, err := f.svc.ArchiveOrder(ctx, "a", "anna")
		require.NoError(t, err)
		assert.True(t, o.IsArchived)
	})

	t.Run("reject pending", func(t *testing.T) {
		f := newFixture(t)
		deleted := f.bus.SubscribeChan(1, events.OrderDeleted)
		f.store.On("GetOrder", ctx, "p").Return(pending, nil)
		f.store.On("DeleteOrder", ctx, "p").Return(nil).Once()

		require.NoError(t, f.svc.RejectOrder(ctx, "p", "anna"))
		assert.Len(t, deleted, 1)
	})

	t.Run("reject accepted", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetOrder", ctx, "a").Return(takeaway("a", 1), nil)

		assert.ErrorIs(t, f.svc.RejectOrder(ctx, "a", "anna"), ErrNotPending)
		f.store.AssertNotCalled(t, "DeleteOrder", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetOrder", ctx, "x").Return(model.Order{}, database.ErrOrderNotFound)

		_, err := f.svc.ArchiveOrder(ctx, "x", "anna")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestSetTableStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("records and publishes", func(t *testing.T) {
		f := newFixture(t)
		ch := f.bus.SubscribeChan(1, events.TablesChanged)
		f.store.On("SetTableStatus", mock.Anything, 2, model.TableBilling).Return(nil).Once()

		require.NoError(t, f.svc.SetTableStatus(ctx, 2, model.TableBilling, "anna"))
		require.Len(t, ch, 1)
		f.store.AssertCalled(t, "RecordAudit", mock.Anything, mock.MatchedBy(func(e model.AuditEntry) bool {
			return e.Action == "table_status" && e.Details == "T2 billing" && e.Actor == "anna"
		}))
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.svc.SetTableStatus(ctx, 2, "dirty", "anna"), ErrInvalidOrder)
		f.store.AssertNotCalled(t, "SetTableStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown table", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("SetTableStatus", mock.Anything, 9, model.TableFree).Return(ErrTableNotFound).Once()
		assert.ErrorIs(t, f.svc.SetTableStatus(ctx, 9, model.TableFree, "anna"), ErrTableNotFound)
	})
}

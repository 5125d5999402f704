// Package booking commits orders against the calendar, kitchen capacity
// and table occupancy, and applies staff decisions to pending orders.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pizzaflow/internal/availability"
	"pizzaflow/internal/database"
	"pizzaflow/internal/events"
	"pizzaflow/internal/guard"
	"pizzaflow/internal/load"
	"pizzaflow/internal/metrics"
	"pizzaflow/internal/model"
	"pizzaflow/internal/overbooking"
	"pizzaflow/internal/slots"
	"pizzaflow/internal/tables"
	"pizzaflow/internal/timeutil"
)

// Store persists orders and reads the floor.
type Store interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (model.Order, error)
	UpdateOrder(ctx context.Context, o *model.Order) error
	DeleteOrder(ctx context.Context, id string) error
	ListOrders(ctx context.Context, f database.OrderFilter) ([]model.Order, error)
	ListTables(ctx context.Context) ([]model.Table, error)
	SetTableStatus(ctx context.Context, id int, status model.TableStatus) error
	RecordAudit(ctx context.Context, e model.AuditEntry) error
}

// Notifier alerts managers.
type Notifier interface {
	ForcedOverride(ctx context.Context, o model.Order, d overbooking.Decision) error
	PendingOrder(ctx context.Context, o model.Order) error
}

// CalendarSource yields the calendar in force.
type CalendarSource interface {
	Calendar() *model.Calendar
}

type Service struct {
	store    Store
	calendar CalendarSource
	locker   *guard.Locker
	bus      *events.EventBus
	notifier Notifier
	clock    timeutil.Clock
	logger   *zerolog.Logger
}

func NewService(store Store, calendar CalendarSource, locker *guard.Locker, bus *events.EventBus, notifier Notifier, clock timeutil.Clock, logger *zerolog.Logger) *Service {
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &Service{
		store:    store,
		calendar: calendar,
		locker:   locker,
		bus:      bus,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// SubmitRequest is a new order, or an edit when Order.ID is set. Force
// confirms a staff overbooking after a VerdictConfirm.
type SubmitRequest struct {
	Order model.Order
	Flow  overbooking.Flow
	Force bool
	Actor string
}

// Result is a committed order and the capacity decision it passed.
type Result struct {
	Order    model.Order
	Decision overbooking.Decision
	Created  bool
}

// SubmitOrder validates and commits an order. The capacity and table
// checks run twice: once on a plain read to fail fast, then again under
// the guard lease on a fresh read right before the write.
func (s *Service) SubmitOrder(ctx context.Context, req SubmitRequest) (*Result, error) {
	res, err := s.submit(ctx, req)
	if err != nil {
		reason := rejectionReason(err)
		metrics.IncOrderRejected(reason)
		s.logger.Info().Err(err).Str("reason", reason).Str("flow", req.Flow.String()).
			Str("date", req.Order.Date).Str("time", req.Order.Time).Msg("order refused")
		return nil, err
	}
	return res, nil
}

func (s *Service) submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	now := s.clock()
	today := timeutil.Today(now)
	cal := s.calendar.Calendar()

	o, current, err := s.prepare(ctx, req, cal, now)
	if err != nil {
		return nil, err
	}
	created := current == nil

	// An edit that keeps the slot of the stored order is not re-booked:
	// a running or past order can still change its items or tables.
	if created || !sameSlot(o, *current) {
		if ds := availability.CheckDateStatus(cal, o.Date, o.Type, today); !ds.Available {
			return nil, &UnavailableError{Reason: ds.Reason}
		}
		if !slots.Contains(slots.Bookable(cal, o.Date, o.Type, now), o.Time) {
			return nil, &UnavailableError{Reason: availability.ReasonSlotUnavailable}
		}
	}
	if err := s.checkSeats(ctx, o); err != nil {
		return nil, err
	}

	orders, err := s.store.ListOrders(ctx, database.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if _, err := evaluate(cal, o, req, today, orders); err != nil {
		return nil, err
	}

	start := time.Now()
	lease, err := s.locker.Acquire(ctx, lockKeys(o)...)
	metrics.ObserveGuardWait(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	defer lease.Release(context.WithoutCancel(ctx))
	s.logger.Debug().Strs("keys", lease.Keys()).Str("order_id", o.ID).Msg("booking lock held")

	orders, err = s.store.ListOrders(ctx, database.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	decision, err := evaluate(cal, o, req, today, orders)
	if err != nil {
		return nil, err
	}

	eventType := events.OrderUpdated
	if created {
		eventType = events.OrderCreated
		if err := s.store.CreateOrder(ctx, &o); err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
	} else if err := s.store.UpdateOrder(ctx, &o); err != nil {
		return nil, fmt.Errorf("update order %s: %w", o.ID, err)
	}

	s.publish(eventType, o)
	metrics.IncOrderSubmitted(string(o.Type), req.Flow.String())
	if decision.Overbooked {
		metrics.IncOverbooking(decision.Verdict.String())
	}
	s.logger.Info().Str("order_id", o.ID).Str("type", string(o.Type)).Str("date", o.Date).Str("time", o.Time).
		Str("flow", req.Flow.String()).Str("verdict", decision.Verdict.String()).Bool("created", created).Msg("order committed")

	if !created && o.IsAccepted && !current.IsAccepted {
		s.audit(ctx, o, "accept", req.Actor, "accepted on edit")
		metrics.IncStaffDecision("accept")
	}
	s.notify(ctx, o, decision, req)
	return &Result{Order: o, Decision: decision, Created: created}, nil
}

func sameSlot(o, stored model.Order) bool {
	return o.Date == stored.Date && o.Time == stored.Time && o.Type == stored.Type
}

// prepare normalizes the request into the order to write and returns the
// stored order for edits, nil for new orders. Edits keep identity,
// lifecycle flags and duration snapshot of the stored order; a staff edit
// of a pending order accepts it.
func (s *Service) prepare(ctx context.Context, req SubmitRequest, cal *model.Calendar, now time.Time) (model.Order, *model.Order, error) {
	o := model.Document{Order: req.Order}.Normalize()
	if o.Type != model.OrderTable {
		o.TableIDs = nil
		o.DurationMinutes = 0
	}

	if !o.Type.Valid() {
		return o, nil, &UnavailableError{Reason: availability.ReasonSelectService}
	}
	if _, err := timeutil.ParseDate(o.Date); err != nil {
		return o, nil, fmt.Errorf("%w: date %q", ErrInvalidOrder, o.Date)
	}
	if !timeutil.IsClock(o.Time) {
		return o, nil, fmt.Errorf("%w: time %q", ErrInvalidOrder, o.Time)
	}
	if o.Type == model.OrderTable && len(o.TableIDs) == 0 {
		return o, nil, fmt.Errorf("%w: table order without tables", ErrInvalidOrder)
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
		o.CreatedAt = now
		o.CreatedBy = req.Actor
		o.IsAccepted = req.Flow == overbooking.FlowStaff
		o.IsArchived = false
		if o.Type == model.OrderTable {
			o.DurationMinutes = cal.BookingDuration()
		}
		return o, nil, nil
	}

	current, err := s.store.GetOrder(ctx, o.ID)
	if err != nil {
		return o, nil, fmt.Errorf("load order %s: %w", o.ID, err)
	}
	if current.IsArchived {
		return o, nil, ErrArchived
	}
	if o.Version == 0 {
		o.Version = current.Version
	}
	o.CreatedAt = current.CreatedAt
	o.CreatedBy = current.CreatedBy
	o.IsAccepted = current.IsAccepted || req.Flow == overbooking.FlowStaff
	o.IsArchived = false
	if o.Type == model.OrderTable {
		o.DurationMinutes = current.DurationMinutes
		if current.Type != model.OrderTable || o.DurationMinutes <= 0 {
			o.DurationMinutes = cal.BookingDuration()
		}
	}
	return o, &current, nil
}

// checkSeats verifies the requested tables exist and together seat the party.
func (s *Service) checkSeats(ctx context.Context, o model.Order) error {
	if o.Type != model.OrderTable {
		return nil
	}
	floor, err := s.store.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	seats := 0
	for _, id := range o.TableIDs {
		found := false
		for _, t := range floor {
			if t.ID == id {
				seats += t.Capacity
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %d", ErrUnknownTable, id)
		}
	}
	if o.Pax > seats {
		return &UnavailableError{Reason: availability.ReasonTablesFull}
	}
	return nil
}

// evaluate runs the table or kitchen check for o against orders. The
// order itself is excluded so an edit never collides with its old version.
func evaluate(cal *model.Calendar, o model.Order, req SubmitRequest, today string, orders []model.Order) (overbooking.Decision, error) {
	if o.Type == model.OrderTable {
		if conflicts := tables.Conflicts(o, orders, cal.Policy()); len(conflicts) > 0 {
			return overbooking.Decision{}, &TableConflictError{Tables: o.TableIDs, Conflicts: conflicts}
		}
		return overbooking.Evaluate(overbooking.Input{OrderType: o.Type, Capacity: cal.MaxKitchenLoad}), nil
	}

	d := overbooking.Evaluate(overbooking.Input{
		OrderType: o.Type,
		Existing:  load.SlotLoad(orders, o.Date, o.Time, load.ExcludeOrder(o.ID), load.AsOf(today)),
		Incoming:  load.IncomingLoad(o.Items),
		Capacity:  cal.MaxKitchenLoad,
		Flow:      req.Flow,
		Force:     req.Force,
	})
	if !d.Commit() {
		return d, &OverbookingError{Decision: d}
	}
	return d, nil
}

func lockKeys(o model.Order) []string {
	if o.Type != model.OrderTable {
		return []string{guard.SlotKey(o.Date, o.Time)}
	}
	keys := make([]string, 0, len(o.TableIDs))
	for _, id := range o.TableIDs {
		keys = append(keys, guard.TableKey(o.Date, id))
	}
	return keys
}

func (s *Service) notify(ctx context.Context, o model.Order, d overbooking.Decision, req SubmitRequest) {
	var err error
	switch {
	case d.Verdict == overbooking.VerdictForced:
		s.logger.Warn().Str("order_id", o.ID).Str("actor", req.Actor).Int("projected", d.Projected).
			Int("capacity", d.Capacity).Msg("overbooking forced")
		s.audit(ctx, o, "overbooking_forced", req.Actor, fmt.Sprintf("%d/%d kitchen items at %s", d.Projected, d.Capacity, o.Time))
		err = s.notifier.ForcedOverride(ctx, o, d)
	case req.Flow == overbooking.FlowPublic && o.IsPending():
		err = s.notifier.PendingOrder(ctx, o)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("failed to notify managers")
	}
}

func (s *Service) audit(ctx context.Context, o model.Order, action, actor, details string) {
	err := s.store.RecordAudit(ctx, model.AuditEntry{
		Action:    action,
		OrderID:   o.ID,
		OrderDate: o.Date,
		Actor:     actor,
		Details:   details,
		CreatedAt: s.clock(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID).Str("action", action).Msg("failed to record audit entry")
	}
}

func (s *Service) publish(eventType string, o model.Order) {
	if err := s.bus.Publish(events.NewOrderEvent(eventType, o.ID, o.Date, o.Time)); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Str("order_id", o.ID).Msg("event handler failed")
	}
}

// AcceptOrder marks a pending order as accepted. Accepting twice is a no-op.
func (s *Service) AcceptOrder(ctx context.Context, id, actor string) (model.Order, error) {
	return s.decide(ctx, id, actor, "accept", func(o *model.Order) (bool, error) {
		if o.IsArchived {
			return false, ErrArchived
		}
		if o.IsAccepted {
			return false, nil
		}
		o.IsAccepted = true
		return true, nil
	})
}

// ArchiveOrder completes an order. Archived orders stop counting for load
// and table conflicts.
func (s *Service) ArchiveOrder(ctx context.Context, id, actor string) (model.Order, error) {
	return s.decide(ctx, id, actor, "archive", func(o *model.Order) (bool, error) {
		if o.IsArchived {
			return false, nil
		}
		o.IsArchived = true
		return true, nil
	})
}

func (s *Service) decide(ctx context.Context, id, actor, decision string, apply func(*model.Order) (bool, error)) (model.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("load order %s: %w", id, err)
	}
	changed, err := apply(&o)
	if err != nil || !changed {
		return o, err
	}
	if err := s.store.UpdateOrder(ctx, &o); err != nil {
		return model.Order{}, fmt.Errorf("%s order %s: %w", decision, id, err)
	}

	s.publish(events.OrderUpdated, o)
	s.audit(ctx, o, decision, actor, "")
	metrics.IncStaffDecision(decision)
	s.logger.Info().Str("order_id", id).Str("actor", actor).Str("decision", decision).Msg("staff decision applied")
	return o, nil
}

// RejectOrder deletes an order that is still pending.
func (s *Service) RejectOrder(ctx context.Context, id, actor string) error {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("load order %s: %w", id, err)
	}
	if !o.IsPending() {
		return ErrNotPending
	}
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("delete order %s: %w", id, err)
	}

	s.publish(events.OrderDeleted, o)
	s.audit(ctx, o, "reject", actor, "")
	metrics.IncStaffDecision("reject")
	s.logger.Info().Str("order_id", id).Str("actor", actor).Str("decision", "reject").Msg("staff decision applied")
	return nil
}

// SetTableStatus records the floor state of a table. Floor state does not
// take part in conflict detection.
func (s *Service) SetTableStatus(ctx context.Context, id int, status model.TableStatus, actor string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: table status %q", ErrInvalidOrder, status)
	}
	if err := s.store.SetTableStatus(ctx, id, status); err != nil {
		return err
	}
	if err := s.bus.Publish(events.Event{Type: events.TablesChanged}); err != nil {
		s.logger.Error().Err(err).Str("event", events.TablesChanged).Msg("event handler failed")
	}
	s.audit(ctx, model.Order{Date: timeutil.Today(s.clock())}, "table_status", actor, fmt.Sprintf("T%d %s", id, status))
	s.logger.Info().Int("table_id", id).Str("status", string(status)).Str("actor", actor).Msg("table status changed")
	return nil
}

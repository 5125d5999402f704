package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pizzaflow/internal/model"
	"pizzaflow/internal/timeutil"
)

// PendingSource lists live orders.
type PendingSource interface {
	Orders() []model.Order
}

// PendingNotifier is the subset of a notifier the reminder uses.
type PendingNotifier interface {
	PendingOrder(ctx context.Context, o model.Order) error
}

// ReminderConfig holds configuration for the pending order reminder.
type ReminderConfig struct {
	// After is how long an order may wait for acceptance before managers
	// are reminded.
	After time.Duration
	// CheckInterval is how often pending orders are scanned.
	CheckInterval time.Duration
}

func (c ReminderConfig) withDefaults() ReminderConfig {
	if c.After <= 0 {
		c.After = 10 * time.Minute
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Minute
	}
	return c
}

// PendingReminder reminds managers once about each order left pending
// for longer than the configured wait.
type PendingReminder struct {
	config   ReminderConfig
	source   PendingSource
	notifier PendingNotifier
	clock    timeutil.Clock
	logger   *zerolog.Logger

	mu       sync.Mutex
	reminded map[string]bool
}

func NewPendingReminder(config ReminderConfig, source PendingSource, notifier PendingNotifier, clock timeutil.Clock, logger *zerolog.Logger) *PendingReminder {
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &PendingReminder{
		config:   config.withDefaults(),
		source:   source,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		reminded: make(map[string]bool),
	}
}

// Start runs the scan loop until ctx is done.
func (r *PendingReminder) Start(ctx context.Context) {
	r.logger.Info().Dur("after", r.config.After).Dur("interval", r.config.CheckInterval).Msg("pending order reminder started")

	ticker := time.NewTicker(r.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}

// Check sends reminders for overdue pending orders and returns how many
// were sent. Orders that failed to send are retried on the next scan.
func (r *PendingReminder) Check(ctx context.Context) int {
	now := r.clock()
	live := make(map[string]bool)
	sent := 0

	for _, o := range r.source.Orders() {
		if !o.IsPending() {
			continue
		}
		live[o.ID] = true
		if o.CreatedAt.IsZero() || now.Sub(o.CreatedAt) < r.config.After {
			continue
		}

		r.mu.Lock()
		done := r.reminded[o.ID]
		r.mu.Unlock()
		if done {
			continue
		}

		if ctx.Err() != nil {
			return sent
		}
		if err := r.notifier.PendingOrder(ctx, o); err != nil {
			r.logger.Warn().Err(err).Str("order_id", o.ID).Msg("pending reminder failed")
			continue
		}
		r.mu.Lock()
		r.reminded[o.ID] = true
		r.mu.Unlock()
		sent++
	}

	// forget orders that were accepted, rejected or archived
	r.mu.Lock()
	for id := range r.reminded {
		if !live[id] {
			delete(r.reminded, id)
		}
	}
	r.mu.Unlock()

	if sent > 0 {
		r.logger.Info().Int("sent", sent).Msg("pending order reminders sent")
	}
	return sent
}

// Package guard serializes the check-and-write step of bookings that
// touch the same slot or table.
package guard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrBusy is returned when a key stays locked for longer than the wait budget.
var ErrBusy = errors.New("booking in progress, retry")

const keyPrefix = "pizzaflow:lock:"

// SlotKey locks the kitchen capacity of one slot.
func SlotKey(date, clock string) string {
	return keyPrefix + "slot:" + date + ":" + clock
}

// TableKey locks one table for a date.
func TableKey(date string, tableID int) string {
	return keyPrefix + "table:" + date + ":" + strconv.Itoa(tableID)
}

// Options tune lock behaviour. TTL bounds how long a crashed holder keeps
// a key, Wait how long Acquire keeps retrying. Zero values take defaults.
type Options struct {
	TTL   time.Duration
	Wait  time.Duration
	Retry time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 5 * time.Second
	}
	if o.Wait <= 0 {
		o.Wait = 2 * time.Second
	}
	if o.Retry <= 0 {
		o.Retry = 25 * time.Millisecond
	}
	return o
}

type backend interface {
	tryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	unlock(ctx context.Context, key, token string) error
	name() string
}

// Locker acquires sets of keys with all-or-nothing semantics.
type Locker struct {
	b      backend
	opts   Options
	logger *zerolog.Logger
}

// Lease is a set of held keys.
type Lease struct {
	l     *Locker
	keys  []string
	token string
}

// Acquire locks every key, waiting up to the configured budget. Keys are
// taken in sorted order so overlapping requests cannot deadlock.
func (l *Locker) Acquire(ctx context.Context, keys ...string) (*Lease, error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	lease := &Lease{l: l, token: uuid.NewString()}
	deadline := time.Now().Add(l.opts.Wait)

	for _, key := range sorted {
		if err := l.acquireOne(ctx, key, lease.token, deadline); err != nil {
			lease.Release(context.WithoutCancel(ctx))
			return nil, err
		}
		lease.keys = append(lease.keys, key)
	}
	return lease, nil
}

func (l *Locker) acquireOne(ctx context.Context, key, token string, deadline time.Time) error {
	for {
		ok, err := l.b.tryLock(ctx, key, token, l.opts.TTL)
		if err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrBusy
		}

		timer := time.NewTimer(l.opts.Retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release frees the held keys. Keys that expired and were taken by
// another holder are left alone.
func (le *Lease) Release(ctx context.Context) {
	if le == nil {
		return
	}
	for i := len(le.keys) - 1; i >= 0; i-- {
		if err := le.l.b.unlock(ctx, le.keys[i], le.token); err != nil && le.l.logger != nil {
			le.l.logger.Warn().Err(err).Str("key", le.keys[i]).Str("backend", le.l.b.name()).Msg("failed to release lock")
		}
	}
	le.keys = nil
}

// Keys returns the held keys.
func (le *Lease) Keys() []string {
	return slices.Clone(le.keys)
}

// Backend names the lock store for logs and health output.
func (l *Locker) Backend() string {
	return l.b.name()
}

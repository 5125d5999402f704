// Package tables decides whether a table is free for a booking under the
// active table policy.
package tables

import (
	"pizzaflow/internal/model"
	"pizzaflow/internal/timeutil"
)

// HasConflict reports whether a live order other than the candidate
// already holds tableID on date in a way the policy considers overlapping.
//
// OpenPolicy blocks the table for the whole shift of start. The other
// policies compare half-open intervals [start, start+duration).
// Callers editing an order filter it out with ExcludeOrder first.
func HasConflict(tableID int, date, start string, duration int, orders []model.Order, policy model.TablePolicy) bool {
	return firstConflict(tableID, date, start, duration, orders, policy) != nil
}

func firstConflict(tableID int, date, start string, duration int, orders []model.Order, policy model.TablePolicy) *model.Order {
	overlaps := overlapFunc(policy, start, duration)
	for i := range orders {
		if holds(&orders[i], tableID, date) && overlaps(&orders[i]) {
			return &orders[i]
		}
	}
	return nil
}

func holds(o *model.Order, tableID int, date string) bool {
	return !o.IsArchived && o.Date == date && o.UsesTable(tableID)
}

func overlapFunc(policy model.TablePolicy, start string, duration int) func(*model.Order) bool {
	switch policy.(type) {
	case nil, model.OpenPolicy:
		shift := timeutil.ShiftOf(start)
		return func(o *model.Order) bool {
			return timeutil.ShiftOf(o.Time) == shift
		}
	case model.FixedTurnsPolicy, model.BoundedDurationPolicy:
		return intervalOverlap(start, duration)
	default:
		// Unknown policies hold the table for the whole day.
		return func(*model.Order) bool { return true }
	}
}

func intervalOverlap(start string, duration int) func(*model.Order) bool {
	startA := timeutil.TimeToMinutes(start)
	endA := startA + duration
	return func(o *model.Order) bool {
		startB := timeutil.TimeToMinutes(o.Time)
		endB := startB + o.EffectiveDuration()
		return startA < endB && endA > startB
	}
}

// AvailableTables returns the tables seating pax that are free for a
// default-length window starting at start. Input order is kept.
func AvailableTables(date, start string, pax int, tables []model.Table, orders []model.Order, policy model.TablePolicy) []model.Table {
	var free []model.Table
	for _, t := range tables {
		if t.Capacity < pax {
			continue
		}
		if HasConflict(t.ID, date, start, model.DefaultTableDuration, orders, policy) {
			continue
		}
		free = append(free, t)
	}
	return free
}

// ExcludeOrder returns orders without the one identified by id.
// The input slice is not modified.
func ExcludeOrder(orders []model.Order, id string) []model.Order {
	if id == "" {
		return orders
	}
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}

// Conflicts returns the live orders colliding with candidate on any of
// its tables, each listed once. candidate itself is skipped by ID.
func Conflicts(candidate model.Order, orders []model.Order, policy model.TablePolicy) []model.Order {
	overlaps := overlapFunc(policy, candidate.Time, candidate.EffectiveDuration())
	var out []model.Order
	for i := range orders {
		o := &orders[i]
		if candidate.ID != "" && o.ID == candidate.ID {
			continue
		}
		for _, tableID := range candidate.TableIDs {
			if holds(o, tableID, candidate.Date) && overlaps(o) {
				out = append(out, *o)
				break
			}
		}
	}
	return out
}

// Window returns the minutes an order occupies its tables for display.
// shiftWide is true under OpenPolicy, where the table is held until the
// shift ends regardless of end.
func Window(order model.Order, policy model.TablePolicy) (start, end int, shiftWide bool) {
	start = timeutil.TimeToMinutes(order.Time)
	end = start + order.EffectiveDuration()
	_, shiftWide = policy.(model.OpenPolicy)
	return start, end, shiftWide || policy == nil
}

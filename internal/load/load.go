// Package load accounts kitchen demand committed against a slot.
package load

import (
	"pizzaflow/internal/model"
)

type options struct {
	excludeID string
	today     string
}

// Option adjusts a load computation.
type Option func(*options)

// ExcludeOrder leaves the order with id out of the sum, so an order being
// edited does not count against itself.
func ExcludeOrder(id string) Option {
	return func(o *options) { o.excludeID = id }
}

// AsOf sets today's date. Orders without a date count only when the
// requested date is today.
func AsOf(today string) Option {
	return func(o *options) { o.today = today }
}

// SlotLoad sums kitchen-bound items of live orders at date and slot.
// It keeps no state and reads every order on each call.
func SlotLoad(orders []model.Order, date, slot string, opts ...Option) int {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	total := 0
	for i := range orders {
		order := &orders[i]
		if !matches(order, date, slot, &o) {
			continue
		}
		total += order.KitchenLoad()
	}
	return total
}

func matches(order *model.Order, date, slot string, o *options) bool {
	if order.IsArchived || order.Time != slot {
		return false
	}
	if o.excludeID != "" && order.ID == o.excludeID {
		return false
	}
	if order.Date == date {
		return true
	}
	return order.Date == "" && o.today != "" && date == o.today
}

// IncomingLoad counts the kitchen-bound items of a cart.
func IncomingLoad(items []model.OrderItem) int {
	return model.CountKitchenBound(items)
}

// ShiftLoad returns the load of each slot plus their sum.
func ShiftLoad(orders []model.Order, date string, slots []string, opts ...Option) (map[string]int, int) {
	perSlot := make(map[string]int, len(slots))
	total := 0
	for _, s := range slots {
		n := SlotLoad(orders, date, s, opts...)
		perSlot[s] = n
		total += n
	}
	return perSlot, total
}

// Package schedule resolves the weekly template of a calendar for a date.
package schedule

import (
	"pizzaflow/internal/model"
	"pizzaflow/internal/timeutil"
)

// ResolveDay returns the day template for date. A weekday without a
// template, or an unparsable date, is reported as not found.
func ResolveDay(cal *model.Calendar, date string) (model.DayConfig, bool) {
	name := timeutil.DayName(date)
	if name == "" {
		return model.DayConfig{}, false
	}
	return cal.Day(name)
}

// ActiveShifts returns the enabled shifts of date in template order.
func ActiveShifts(cal *model.Calendar, date string) []model.Shift {
	day, ok := ResolveDay(cal, date)
	if !ok {
		return nil
	}
	var active []model.Shift
	for i, s := range day.Shifts {
		if i >= model.MaxShiftsPerDay {
			break
		}
		if s.Enabled {
			active = append(active, s)
		}
	}
	return active
}

// IsServiceOfferedOnDate reports whether any enabled shift of date serves orderType.
func IsServiceOfferedOnDate(cal *model.Calendar, date string, orderType model.OrderType) bool {
	for _, s := range ActiveShifts(cal, date) {
		if s.Offers(orderType) {
			return true
		}
	}
	return false
}

// ShiftAt returns the shift a clock time belongs to: index 0 for lunch,
// index 1 for dinner.
func ShiftAt(day model.DayConfig, clock string) (model.Shift, bool) {
	idx := 0
	if timeutil.ShiftOf(clock) == timeutil.Dinner {
		idx = 1
	}
	if idx >= len(day.Shifts) {
		return model.Shift{}, false
	}
	return day.Shifts[idx], true
}

// ServicesForClock returns the services of the shift clock belongs to.
// A nil result means the shift does not restrict order types.
func ServicesForClock(day model.DayConfig, clock string) *model.ServiceAvailability {
	s, ok := ShiftAt(day, clock)
	if !ok {
		return nil
	}
	return s.Services
}

// OffersAt reports whether the shift clock belongs to serves orderType.
// Missing service flags are permissive.
func OffersAt(day model.DayConfig, clock string, orderType model.OrderType) bool {
	services := ServicesForClock(day, clock)
	return services == nil || services.Offers(orderType)
}

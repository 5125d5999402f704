// Package slots enumerates the bookable clock times of a date.
package slots

import (
	"slices"
	"time"

	"pizzaflow/internal/model"
	"pizzaflow/internal/schedule"
	"pizzaflow/internal/timeutil"
)

// Generate returns the slots of date, sorted by minute of day with no
// duplicates. Closures and the holiday range yield no slots. Each enabled
// shift is walked from open to close at the calendar step; a close earlier
// than open continues past midnight and the emitted times wrap.
func Generate(cal *model.Calendar, date string) []string {
	if cal.IsExceptionalClosure(date) || cal.InHoliday(date) {
		return nil
	}

	day, ok := schedule.ResolveDay(cal, date)
	if !ok {
		return nil
	}

	step := cal.Step()
	var minutes []int
	for i, s := range day.Shifts {
		if i >= model.MaxShiftsPerDay {
			break
		}
		if !s.Enabled {
			continue
		}
		minutes = appendShift(minutes, s, step)
	}
	if len(minutes) == 0 {
		return nil
	}

	slices.Sort(minutes)
	minutes = slices.Compact(minutes)

	result := make([]string, len(minutes))
	for i, m := range minutes {
		result[i] = timeutil.MinutesToTime(m)
	}
	return result
}

func appendShift(dst []int, s model.Shift, step int) []int {
	if s.Open == "" || s.Close == "" {
		return dst
	}
	current := timeutil.TimeToMinutes(s.Open)
	finish := timeutil.TimeToMinutes(s.Close)
	if finish < current {
		finish += timeutil.MinutesPerDay
	}
	for ; current < finish; current += step {
		dst = append(dst, current%timeutil.MinutesPerDay)
	}
	return dst
}

// Bookable narrows the generated slots of date to those an order of
// orderType can pick at now:
//   - table orders under fixed turns only see configured turns that are also generated slots
//   - each slot must belong to a shift that serves orderType
//   - when date is today, slots before the current minute are dropped
func Bookable(cal *model.Calendar, date string, orderType model.OrderType, now time.Time) []string {
	raw := Generate(cal, date)
	if len(raw) == 0 {
		return nil
	}

	candidates := raw
	if orderType == model.OrderTable {
		if p, ok := cal.Policy().(model.FixedTurnsPolicy); ok {
			candidates = fixedTurns(p.Turns, raw)
		}
	}

	day, hasDay := schedule.ResolveDay(cal, date)
	isToday := date == timeutil.Today(now)
	current := timeutil.MinuteOfDay(now)

	var result []string
	for _, slot := range candidates {
		if hasDay && orderType.Valid() && !schedule.OffersAt(day, slot, orderType) {
			continue
		}
		if isToday && timeutil.TimeToMinutes(slot) < current {
			continue
		}
		result = append(result, slot)
	}
	return result
}

// fixedTurns keeps the configured turn order and drops turns the day does not generate.
func fixedTurns(turns, raw []string) []string {
	var out []string
	for _, turn := range turns {
		if slices.Contains(raw, turn) && !slices.Contains(out, turn) {
			out = append(out, turn)
		}
	}
	return out
}

// SplitByShift partitions slots at the dinner cutoff, keeping their order.
func SplitByShift(slots []string) (lunch, dinner []string) {
	for _, s := range slots {
		if timeutil.ShiftOf(s) == timeutil.Lunch {
			lunch = append(lunch, s)
		} else {
			dinner = append(dinner, s)
		}
	}
	return lunch, dinner
}

// Contains reports whether slot is one of slots.
func Contains(slots []string, slot string) bool {
	return slices.Contains(slots, slot)
}

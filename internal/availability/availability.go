// Package availability answers whether an order type can be booked on a
// date and, more finely, at a slot.
package availability

import (
	"errors"
	"time"

	"pizzaflow/internal/load"
	"pizzaflow/internal/model"
	"pizzaflow/internal/overbooking"
	"pizzaflow/internal/schedule"
	"pizzaflow/internal/slots"
	"pizzaflow/internal/tables"
	"pizzaflow/internal/timeutil"
)

// MaxRangeDays bounds DateRange.
const MaxRangeDays = 90

var (
	ErrInvalidRange  = errors.New("invalid date range")
	ErrRangeTooLarge = errors.New("date range too large")
)

// DateStatus is the coarse verdict for a date.
type DateStatus struct {
	Available bool   `json:"available"`
	Reason    Reason `json:"reason,omitempty"`
}

func unavailable(r Reason) DateStatus {
	return DateStatus{Reason: r}
}

// CheckDateStatus reports whether the shop is open for orderType on date.
// Checks run in a fixed order and the first failure wins, so a past
// closure reads "Past date". Per-slot load and table conflicts are not
// considered here.
func CheckDateStatus(cal *model.Calendar, date string, orderType model.OrderType, today string) DateStatus {
	if !orderType.Valid() {
		return unavailable(ReasonSelectService)
	}
	if date < today {
		return unavailable(ReasonPastDate)
	}
	if orderType == model.OrderTable && cal.MaxFutureDays > 0 {
		if date > timeutil.AddDays(today, cal.MaxFutureDays) {
			return unavailable(ReasonTooFarAhead)
		}
	}
	if cal.IsExceptionalClosure(date) {
		return unavailable(ReasonExceptionalClosure)
	}
	if cal.InHoliday(date) {
		return unavailable(ReasonHoliday)
	}

	day, ok := schedule.ResolveDay(cal, date)
	if !ok || day.Closed() {
		return unavailable(ReasonClosed)
	}
	if !schedule.IsServiceOfferedOnDate(cal, date, orderType) {
		return unavailable(ReasonServiceNotOffered)
	}
	if len(slots.Generate(cal, date)) == 0 {
		return unavailable(ReasonNoSlots)
	}
	return DateStatus{Available: true}
}

// DayStatus pairs a date with its status.
type DayStatus struct {
	Date string `json:"date"`
	DateStatus
}

// DateRange evaluates every date from from to to inclusive.
func DateRange(cal *model.Calendar, from, to string, orderType model.OrderType, today string) ([]DayStatus, error) {
	start, err := timeutil.ParseDate(from)
	if err != nil {
		return nil, ErrInvalidRange
	}
	end, err := timeutil.ParseDate(to)
	if err != nil || end.Before(start) {
		return nil, ErrInvalidRange
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > MaxRangeDays {
		return nil, ErrRangeTooLarge
	}

	out := make([]DayStatus, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(timeutil.DateLayout)
		out = append(out, DayStatus{Date: date, DateStatus: CheckDateStatus(cal, date, orderType, today)})
	}
	return out, nil
}

// SlotQuery is a request to book a specific slot. Incoming is the
// kitchen-bound item count of the cart being placed and ExcludeOrderID
// the order being edited, if any.
type SlotQuery struct {
	Date           string
	Slot           string
	OrderType      model.OrderType
	Pax            int
	Incoming       int
	ExcludeOrderID string
	Flow           overbooking.Flow
	Now            time.Time
}

// SlotStatus is the fine-grained verdict for one slot. Overbookable marks
// a full slot a staff member may still pick.
type SlotStatus struct {
	Slot         string        `json:"time"`
	Available    bool          `json:"available"`
	Reason       Reason        `json:"reason,omitempty"`
	Load         int           `json:"load"`
	Capacity     int           `json:"capacity"`
	Full         bool          `json:"full"`
	Overbookable bool          `json:"overbookable,omitempty"`
	Tables       []model.Table `json:"tables,omitempty"`
}

// CheckSlotStatus composes the date check, slot bookability, table
// availability for table orders and kitchen load for the rest.
func CheckSlotStatus(cal *model.Calendar, q SlotQuery, orders []model.Order, floor []model.Table) SlotStatus {
	st := SlotStatus{Slot: q.Slot}
	today := timeutil.Today(q.Now)

	ds := CheckDateStatus(cal, q.Date, q.OrderType, today)
	if !ds.Available {
		st.Reason = ds.Reason
		return st
	}
	if !slots.Contains(slots.Bookable(cal, q.Date, q.OrderType, q.Now), q.Slot) {
		st.Reason = ReasonSlotUnavailable
		return st
	}
	return evaluateSlot(cal, q, today, orders, floor)
}

func evaluateSlot(cal *model.Calendar, q SlotQuery, today string, orders []model.Order, floor []model.Table) SlotStatus {
	st := SlotStatus{Slot: q.Slot, Available: true}

	if q.OrderType == model.OrderTable {
		if q.Pax <= 0 {
			return st
		}
		free := tables.AvailableTables(q.Date, q.Slot, q.Pax, floor, tables.ExcludeOrder(orders, q.ExcludeOrderID), cal.Policy())
		st.Tables = free
		if len(free) == 0 {
			st.Available = false
			st.Full = true
			st.Reason = ReasonTablesFull
		}
		return st
	}

	st.Load = load.SlotLoad(orders, q.Date, q.Slot, load.ExcludeOrder(q.ExcludeOrderID), load.AsOf(today))
	d := overbooking.Evaluate(overbooking.Input{
		OrderType: q.OrderType,
		Existing:  st.Load,
		Incoming:  q.Incoming,
		Capacity:  cal.MaxKitchenLoad,
		Flow:      q.Flow,
	})
	st.Capacity = d.Capacity
	if d.Overbooked {
		st.Full = true
		st.Reason = ReasonSlotFull
		st.Overbookable = q.Flow == overbooking.FlowStaff
		st.Available = st.Overbookable
	}
	return st
}

// SlotGrid evaluates every bookable slot of a date. It returns nil when
// the date itself is unavailable; check CheckDateStatus for the reason.
func SlotGrid(cal *model.Calendar, q SlotQuery, orders []model.Order, floor []model.Table) []SlotStatus {
	today := timeutil.Today(q.Now)
	if !CheckDateStatus(cal, q.Date, q.OrderType, today).Available {
		return nil
	}
	bookable := slots.Bookable(cal, q.Date, q.OrderType, q.Now)
	out := make([]SlotStatus, 0, len(bookable))
	for _, s := range bookable {
		sq := q
		sq.Slot = s
		out = append(out, evaluateSlot(cal, sq, today, orders, floor))
	}
	return out
}

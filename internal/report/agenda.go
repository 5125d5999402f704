// Package report renders the day's agenda as an Excel workbook for the
// front of house.
package report

import (
	"io"
	"slices"

	"pizzaflow/internal/load"
	"pizzaflow/internal/model"
	"pizzaflow/internal/slots"
	"pizzaflow/internal/tables"
	"pizzaflow/internal/timeutil"
)

// Agenda is the input of an export. Shift is empty for the whole day.
// Orders without a date belong to Today.
type Agenda struct {
	Date     string
	Today    string
	Shift    timeutil.Shift
	Calendar *model.Calendar
	Orders   []model.Order
	Tables   []model.Table
	Audit    []model.AuditEntry
}

// WriteAgenda writes the orders, slot load and table occupancy sheets, plus
// an audit sheet when the agenda carries audit entries.
func WriteAgenda(wr io.Writer, a Agenda) error {
	w := newSheetWriter()
	defer func() { _ = w.close() }()

	orders := a.dayOrders()

	if err := writeOrders(w, orders); err != nil {
		return err
	}
	if err := writeLoad(w, a, orders); err != nil {
		return err
	}
	if err := writeTables(w, a, orders); err != nil {
		return err
	}
	if len(a.Audit) > 0 {
		if err := writeAudit(w, a.Audit); err != nil {
			return err
		}
	}
	return w.save(wr)
}

func (a Agenda) dayOrders() []model.Order {
	var out []model.Order
	for _, o := range a.Orders {
		if o.Date != a.Date && (o.Date != "" || a.Date != a.Today) {
			continue
		}
		if a.Shift != "" && timeutil.ShiftOf(o.Time) != a.Shift {
			continue
		}
		out = append(out, o)
	}
	slices.SortStableFunc(out, func(x, y model.Order) int {
		return timeutil.TimeToMinutes(x.Time) - timeutil.TimeToMinutes(y.Time)
	})
	return out
}

func (a Agenda) inShift(clock string) bool {
	return a.Shift == "" || timeutil.ShiftOf(clock) == a.Shift
}

func status(o model.Order) string {
	switch {
	case o.IsArchived:
		return "archived"
	case o.IsAccepted:
		return "accepted"
	default:
		return "pending"
	}
}

func writeOrders(w *sheetWriter, orders []model.Order) error {
	if err := w.addSheet("Orders"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Time", "Type", "Customer", "Phone", "Pax", "Tables", "Kitchen items", "Status", "Notes"}); err != nil {
		return err
	}
	for _, o := range orders {
		row := []interface{}{
			o.Time, string(o.Type), o.CustomerName, o.CustomerPhone, o.Pax,
			model.TableLabel(o.TableIDs), o.KitchenLoad(), status(o), o.Notes,
		}
		if err := w.writeRow(row); err != nil {
			return err
		}
	}
	return nil
}

func writeLoad(w *sheetWriter, a Agenda, orders []model.Order) error {
	if err := w.addSheet("Kitchen load"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Slot", "Load", "Capacity", "Full"}); err != nil {
		return err
	}

	capacity := a.Calendar.MaxKitchenLoad
	if capacity <= 0 {
		capacity = model.DefaultMaxKitchenLoad
	}
	for _, s := range slots.Generate(a.Calendar, a.Date) {
		if !a.inShift(s) {
			continue
		}
		n := load.SlotLoad(orders, a.Date, s, load.AsOf(a.Today))
		if err := w.writeRow([]interface{}{s, n, capacity, n > capacity}); err != nil {
			return err
		}
	}
	return nil
}

func writeTables(w *sheetWriter, a Agenda, orders []model.Order) error {
	if err := w.addSheet("Tables"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Table", "Capacity", "Order", "Customer", "From", "Until"}); err != nil {
		return err
	}

	policy := a.Calendar.Policy()
	for _, t := range a.Tables {
		for _, o := range orders {
			if o.IsArchived || !o.UsesTable(t.ID) {
				continue
			}
			start, end, shiftWide := tables.Window(o, policy)
			until := timeutil.MinutesToTime(end % timeutil.MinutesPerDay)
			if shiftWide {
				until = "end of " + string(timeutil.ShiftOf(o.Time))
			}
			row := []interface{}{t.Label(), t.Capacity, o.ID, o.CustomerName, timeutil.MinutesToTime(start), until}
			if err := w.writeRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAudit(w *sheetWriter, entries []model.AuditEntry) error {
	if err := w.addSheet("Audit"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"At", "Action", "Order", "Actor", "Details"}); err != nil {
		return err
	}
	for _, e := range entries {
		row := []interface{}{e.CreatedAt.Format("2006-01-02 15:04"), e.Action, e.OrderID, e.Actor, e.Details}
		if err := w.writeRow(row); err != nil {
			return err
		}
	}
	return nil
}

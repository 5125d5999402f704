package booking

import (
	"errors"
	"fmt"

	"pizzaflow/internal/availability"
	"pizzaflow/internal/database"
	"pizzaflow/internal/guard"
	"pizzaflow/internal/model"
	"pizzaflow/internal/overbooking"
)

var (
	ErrOrderNotFound          = database.ErrOrderNotFound
	ErrTableNotFound          = database.ErrTableNotFound
	ErrConcurrentModification = database.ErrConcurrentModification
	ErrBusy                   = guard.ErrBusy
	ErrNotPending             = errors.New("order is not pending")
	ErrArchived               = errors.New("order is archived")
	ErrInvalidOrder           = errors.New("invalid order")
	ErrUnknownTable           = errors.New("unknown table")
)

// UnavailableError is returned when the calendar refuses the date, the
// slot or the seats of an order.
type UnavailableError struct {
	Reason availability.Reason
}

func (e *UnavailableError) Error() string {
	return "unavailable: " + e.Reason.Message()
}

// OverbookingError carries the decision that kept an order out of a full
// slot. A staff client resends with force when NeedsConfirmation is true.
type OverbookingError struct {
	Decision overbooking.Decision
}

func (e *OverbookingError) Error() string {
	return fmt.Sprintf("slot over capacity: %d/%d kitchen items (%s)",
		e.Decision.Projected, e.Decision.Capacity, e.Decision.Verdict)
}

func (e *OverbookingError) NeedsConfirmation() bool {
	return e.Decision.Verdict == overbooking.VerdictConfirm
}

// TableConflictError lists the orders already holding the requested tables.
type TableConflictError struct {
	Tables    []int
	Conflicts []model.Order
}

func (e *TableConflictError) Error() string {
	return fmt.Sprintf("table %s already booked by %d order(s)", model.TableLabel(e.Tables), len(e.Conflicts))
}

// rejectionReason labels a refused submission for metrics.
func rejectionReason(err error) string {
	var (
		unavailable *UnavailableError
		overbooked  *OverbookingError
		conflict    *TableConflictError
	)
	switch {
	case errors.As(err, &unavailable):
		return unavailable.Reason.String()
	case errors.As(err, &overbooked):
		return "overbooking_" + overbooked.Decision.Verdict.String()
	case errors.As(err, &conflict):
		return "table_conflict"
	case errors.Is(err, ErrInvalidOrder), errors.Is(err, ErrUnknownTable):
		return "invalid"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrConcurrentModification):
		return "stale"
	default:
		return "error"
	}
}

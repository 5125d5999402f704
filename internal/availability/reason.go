package availability

import "fmt"

// Reason explains why a date or slot cannot be booked.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSelectService
	ReasonPastDate
	ReasonTooFarAhead
	ReasonExceptionalClosure
	ReasonHoliday
	ReasonClosed
	ReasonServiceNotOffered
	ReasonNoSlots
	ReasonSlotUnavailable
	ReasonTablesFull
	ReasonSlotFull
)

var reasonCodes = map[Reason]string{
	ReasonNone:               "",
	ReasonSelectService:      "select_service",
	ReasonPastDate:           "past_date",
	ReasonTooFarAhead:        "too_far_ahead",
	ReasonExceptionalClosure: "exceptional_closure",
	ReasonHoliday:            "holiday",
	ReasonClosed:             "closed",
	ReasonServiceNotOffered:  "service_not_offered",
	ReasonNoSlots:            "no_slots",
	ReasonSlotUnavailable:    "slot_unavailable",
	ReasonTablesFull:         "tables_full",
	ReasonSlotFull:           "slot_full",
}

var reasonMessages = map[Reason]string{
	ReasonSelectService:      "Select a service",
	ReasonPastDate:           "Past date",
	ReasonTooFarAhead:        "Too far ahead",
	ReasonExceptionalClosure: "Exceptional closure",
	ReasonHoliday:            "Holiday",
	ReasonClosed:             "Closed",
	ReasonServiceNotOffered:  "Service not offered",
	ReasonNoSlots:            "No slots",
	ReasonSlotUnavailable:    "Slot unavailable",
	ReasonTablesFull:         "Tables full",
	ReasonSlotFull:           "Slot full",
}

// String returns the machine-readable code.
func (r Reason) String() string {
	return reasonCodes[r]
}

// Message returns the short text shown to users.
func (r Reason) Message() string {
	return reasonMessages[r]
}

// MarshalText encodes the reason as its code.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a reason code.
func (r *Reason) UnmarshalText(text []byte) error {
	for reason, code := range reasonCodes {
		if code == string(text) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown reason %q", text)
}

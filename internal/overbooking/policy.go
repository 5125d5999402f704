// Package overbooking decides what happens when an order pushes a slot
// past its kitchen capacity.
package overbooking

import (
	"pizzaflow/internal/model"
)

// Flow identifies who is submitting the order.
type Flow int

const (
	// FlowPublic is a customer ordering online. Full slots cannot be overridden.
	FlowPublic Flow = iota
	// FlowStaff is an operator entering an order. Full slots need confirmation.
	FlowStaff
)

func (f Flow) String() string {
	if f == FlowStaff {
		return "staff"
	}
	return "public"
}

// Verdict is the outcome of an overbooking check.
type Verdict int

const (
	// VerdictAllow commits the order; capacity is not exceeded or not relevant.
	VerdictAllow Verdict = iota
	// VerdictConfirm blocks a staff submission until it is resent with force.
	VerdictConfirm
	// VerdictForced commits a staff override past capacity.
	VerdictForced
	// VerdictFull rejects a public submission.
	VerdictFull
)

func (v Verdict) String() string {
	switch v {
	case VerdictConfirm:
		return "confirm"
	case VerdictForced:
		return "forced"
	case VerdictFull:
		return "full"
	default:
		return "allow"
	}
}

// Input describes one submission against a slot. Existing is the slot
// load without the submitted order, Incoming the kitchen-bound item count
// of its cart.
type Input struct {
	OrderType model.OrderType
	Existing  int
	Incoming  int
	Capacity  int
	Flow      Flow
	Force     bool
}

// Decision is the evaluated verdict together with the numbers behind it.
type Decision struct {
	Verdict    Verdict
	Projected  int
	Capacity   int
	Overbooked bool
}

// Commit reports whether the order may be written.
func (d Decision) Commit() bool {
	return d.Verdict == VerdictAllow || d.Verdict == VerdictForced
}

// Evaluate compares existing plus incoming load against capacity. A slot is
// overbooked only when the projection strictly exceeds capacity. Table
// orders are never checked here; seats are governed by table conflicts.
func Evaluate(in Input) Decision {
	capacity := in.Capacity
	if capacity <= 0 {
		capacity = model.DefaultMaxKitchenLoad
	}
	d := Decision{
		Verdict:   VerdictAllow,
		Projected: in.Existing + in.Incoming,
		Capacity:  capacity,
	}
	if in.OrderType == model.OrderTable {
		return d
	}

	d.Overbooked = d.Projected > capacity
	if !d.Overbooked {
		return d
	}

	switch in.Flow {
	case FlowStaff:
		if in.Force {
			d.Verdict = VerdictForced
		} else {
			d.Verdict = VerdictConfirm
		}
	default:
		d.Verdict = VerdictFull
	}
	return d
}

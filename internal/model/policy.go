package model

import "fmt"

// TablePolicy decides how a table booking occupies the table.
// The set of implementations is closed: OpenPolicy, FixedTurnsPolicy and
// BoundedDurationPolicy.
type TablePolicy interface {
	Mode() PolicyMode
	tablePolicy()
}

// PolicyMode is the configuration name of a table policy.
type PolicyMode string

const (
	ModeOpen            PolicyMode = "open"
	ModeFixedTurns      PolicyMode = "fixed_turns"
	ModeBoundedDuration PolicyMode = "bounded_duration"
)

// OpenPolicy holds a table for the whole shift once any order references it.
type OpenPolicy struct{}

// FixedTurnsPolicy restricts table bookings to a whitelist of start times.
type FixedTurnsPolicy struct {
	Turns []string
}

// BoundedDurationPolicy holds a table for Minutes from the booking start.
type BoundedDurationPolicy struct {
	Minutes int
}

func (OpenPolicy) Mode() PolicyMode            { return ModeOpen }
func (FixedTurnsPolicy) Mode() PolicyMode      { return ModeFixedTurns }
func (BoundedDurationPolicy) Mode() PolicyMode { return ModeBoundedDuration }

func (OpenPolicy) tablePolicy()            {}
func (FixedTurnsPolicy) tablePolicy()      {}
func (BoundedDurationPolicy) tablePolicy() {}

// ParsePolicyMode accepts the configuration names and the legacy
// names "libero", "turni" and "durata".
func ParsePolicyMode(s string) (PolicyMode, error) {
	switch s {
	case "", string(ModeOpen), "libero":
		return ModeOpen, nil
	case string(ModeFixedTurns), "turni":
		return ModeFixedTurns, nil
	case string(ModeBoundedDuration), "durata":
		return ModeBoundedDuration, nil
	}
	return "", fmt.Errorf("unknown table policy %q", s)
}

// NewTablePolicy builds the variant for a mode.
func NewTablePolicy(mode PolicyMode, turns []string, minutes int) TablePolicy {
	switch mode {
	case ModeFixedTurns:
		return FixedTurnsPolicy{Turns: append([]string(nil), turns...)}
	case ModeBoundedDuration:
		if minutes <= 0 {
			minutes = DefaultStayMinutes
		}
		return BoundedDurationPolicy{Minutes: minutes}
	default:
		return OpenPolicy{}
	}
}

package model

import (
	"slices"
	"strings"
)

// Defaults applied when configuration leaves a value unset.
const (
	DefaultSlotStep       = 15
	DefaultMaxKitchenLoad = 10
	DefaultMaxFutureDays  = 60
	DefaultStayMinutes    = DefaultTableDuration
	MaxShiftsPerDay       = 2
)

// ServiceAvailability flags which order types a shift serves.
type ServiceAvailability struct {
	Table    bool `json:"table" yaml:"table"`
	Takeaway bool `json:"takeaway" yaml:"takeaway"`
	Delivery bool `json:"delivery" yaml:"delivery"`
}

// Offers reports whether the flag for t is set.
func (s ServiceAvailability) Offers(t OrderType) bool {
	switch t {
	case OrderTable:
		return s.Table
	case OrderTakeaway:
		return s.Takeaway
	case OrderDelivery:
		return s.Delivery
	}
	return false
}

// Shift is one opening window of a day. Close earlier than Open wraps past
// midnight. A nil Services serves every order type.
type Shift struct {
	Enabled  bool                 `json:"enabled"`
	Open     string               `json:"open"`
	Close    string               `json:"close"`
	Services *ServiceAvailability `json:"services,omitempty"`
}

// Offers reports whether an enabled shift serves t. Missing flags are permissive.
func (s Shift) Offers(t OrderType) bool {
	if !s.Enabled {
		return false
	}
	return s.Services == nil || s.Services.Offers(t)
}

// DayConfig is the weekly template for one weekday. Shifts[0] is lunch,
// Shifts[1] dinner.
type DayConfig struct {
	Day    string  `json:"day"`
	Shifts []Shift `json:"shifts"`
}

// Closed reports whether no shift is enabled.
func (d DayConfig) Closed() bool {
	for _, s := range d.Shifts {
		if s.Enabled {
			return false
		}
	}
	return true
}

// Calendar is the business calendar the scheduling core reads.
type Calendar struct {
	Weekly              []DayConfig
	ExceptionalClosures []string
	HolidayStart        string
	HolidayEnd          string
	SlotStepMinutes     int
	MaxKitchenLoad      int
	MaxFutureDays       int
	StayMinutes         int
	TablePolicy         TablePolicy
}

// Day looks up the template for a weekday name, case-insensitively.
func (c *Calendar) Day(name string) (DayConfig, bool) {
	for _, d := range c.Weekly {
		if strings.EqualFold(d.Day, name) {
			return d, true
		}
	}
	return DayConfig{}, false
}

// IsExceptionalClosure reports whether date is an ad-hoc closure.
func (c *Calendar) IsExceptionalClosure(date string) bool {
	return slices.Contains(c.ExceptionalClosures, date)
}

// InHoliday reports whether date falls in the inclusive holiday range.
// The range only applies when both ends are set.
func (c *Calendar) InHoliday(date string) bool {
	if c.HolidayStart == "" || c.HolidayEnd == "" {
		return false
	}
	return date >= c.HolidayStart && date <= c.HolidayEnd
}

// Step returns the slot step, falling back to the default.
func (c *Calendar) Step() int {
	if c.SlotStepMinutes <= 0 {
		return DefaultSlotStep
	}
	return c.SlotStepMinutes
}

// Policy returns the table policy, OpenPolicy when unset.
func (c *Calendar) Policy() TablePolicy {
	if c.TablePolicy == nil {
		return OpenPolicy{}
	}
	return c.TablePolicy
}

// BookingDuration is the occupancy snapshot stored on a new table order.
func (c *Calendar) BookingDuration() int {
	if p, ok := c.Policy().(BoundedDurationPolicy); ok && p.Minutes > 0 {
		return p.Minutes
	}
	if c.StayMinutes > 0 {
		return c.StayMinutes
	}
	return DefaultStayMinutes
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pizzaflow/internal/model"
)

// DefaultFixedTurns are used when fixed turns mode has no turns configured.
var DefaultFixedTurns = []string{"12:30", "14:00", "19:30", "21:30"}

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// ShiftConfig represents one opening window.
type ShiftConfig struct {
	Enabled  bool                       `yaml:"enabled"`
	Open     string                     `yaml:"open"`  // "19:00"
	Close    string                     `yaml:"close"` // "23:30", earlier than open wraps past midnight
	Services *model.ServiceAvailability `yaml:"services,omitempty"`
}

// DayConfig represents the weekly template of one weekday.
type DayConfig struct {
	Day    string       `yaml:"day"` // "monday"
	Lunch  *ShiftConfig `yaml:"lunch,omitempty"`
	Dinner *ShiftConfig `yaml:"dinner,omitempty"`
}

// HolidayConfig is an inclusive closed period.
type HolidayConfig struct {
	Start string `yaml:"start"` // "2026-01-07"
	End   string `yaml:"end"`
}

// TableConfig describes one table of the floor.
type TableConfig struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

// TablesConfig holds the table reservation policy and the floor.
type TablesConfig struct {
	Mode          string        `yaml:"mode"` // open | fixed_turns | bounded_duration
	FixedTurns    []string      `yaml:"fixed_turns"`
	StayMinutes   int           `yaml:"stay_minutes"`
	MaxFutureDays *int          `yaml:"max_future_days"`
	Floor         []TableConfig `yaml:"floor"`
}

// CalendarConfig is the root configuration for calendar.yaml.
type CalendarConfig struct {
	Weekly              []DayConfig   `yaml:"weekly"`
	ExceptionalClosures []string      `yaml:"exceptional_closures"`
	Holiday             HolidayConfig `yaml:"holiday"`
	SlotStepMinutes     int           `yaml:"slot_step_minutes"`
	MaxKitchenLoad      int           `yaml:"max_kitchen_load"`
	Tables              TablesConfig  `yaml:"tables"`
}

// LoadCalendarConfig loads and validates the business calendar from a YAML file.
func LoadCalendarConfig(path string) (*CalendarConfig, error) {
	if path == "" {
		path = "configs/calendar.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar config: %w", err)
	}

	return ParseCalendarConfig(data)
}

// ParseCalendarConfig decodes, validates and completes a calendar document.
func ParseCalendarConfig(data []byte) (*CalendarConfig, error) {
	var cfg CalendarConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse calendar config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate calendar config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *CalendarConfig) Validate() error {
	seen := make(map[string]bool)
	for i, d := range c.Weekly {
		name := strings.ToLower(d.Day)
		if !weekdays[name] {
			return fmt.Errorf("weekly[%d]: unknown day '%s'", i, d.Day)
		}
		if seen[name] {
			return fmt.Errorf("weekly[%d]: duplicate day '%s'", i, d.Day)
		}
		seen[name] = true

		if err := validateShift(d.Lunch, fmt.Sprintf("weekly[%d].lunch", i)); err != nil {
			return err
		}
		if err := validateShift(d.Dinner, fmt.Sprintf("weekly[%d].dinner", i)); err != nil {
			return err
		}
	}

	for i, date := range c.ExceptionalClosures {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("exceptional_closures[%d]: invalid date format '%s', expected YYYY-MM-DD", i, date)
		}
	}

	if err := validateHoliday(c.Holiday); err != nil {
		return err
	}

	if c.SlotStepMinutes < 0 {
		return fmt.Errorf("slot_step_minutes cannot be negative")
	}
	if c.MaxKitchenLoad < 0 {
		return fmt.Errorf("max_kitchen_load cannot be negative")
	}

	return validateTables(&c.Tables)
}

func validateShift(s *ShiftConfig, prefix string) error {
	if s == nil || !s.Enabled {
		return nil
	}
	if _, err := time.Parse("15:04", s.Open); err != nil {
		return fmt.Errorf("%s.open: invalid format '%s', expected HH:MM", prefix, s.Open)
	}
	if _, err := time.Parse("15:04", s.Close); err != nil {
		return fmt.Errorf("%s.close: invalid format '%s', expected HH:MM", prefix, s.Close)
	}
	if s.Open == s.Close {
		return fmt.Errorf("%s: open and close must differ", prefix)
	}
	return nil
}

func validateHoliday(h HolidayConfig) error {
	if h.Start == "" && h.End == "" {
		return nil
	}
	if h.Start == "" || h.End == "" {
		return fmt.Errorf("holiday: both start and end are required")
	}
	start, err := time.Parse("2006-01-02", h.Start)
	if err != nil {
		return fmt.Errorf("holiday.start: invalid date format '%s', expected YYYY-MM-DD", h.Start)
	}
	end, err := time.Parse("2006-01-02", h.End)
	if err != nil {
		return fmt.Errorf("holiday.end: invalid date format '%s', expected YYYY-MM-DD", h.End)
	}
	if end.Before(start) {
		return fmt.Errorf("holiday: end must not be before start")
	}
	return nil
}

func validateTables(t *TablesConfig) error {
	if _, err := model.ParsePolicyMode(t.Mode); err != nil {
		return fmt.Errorf("tables.mode: %w", err)
	}
	for i, turn := range t.FixedTurns {
		if _, err := time.Parse("15:04", turn); err != nil {
			return fmt.Errorf("tables.fixed_turns[%d]: invalid format '%s', expected HH:MM", i, turn)
		}
	}
	if t.StayMinutes < 0 {
		return fmt.Errorf("tables.stay_minutes cannot be negative")
	}
	if t.MaxFutureDays != nil && *t.MaxFutureDays < 0 {
		return fmt.Errorf("tables.max_future_days cannot be negative")
	}

	ids := make(map[int]bool)
	for i, tbl := range t.Floor {
		if tbl.ID <= 0 {
			return fmt.Errorf("tables.floor[%d]: id must be positive, got %d", i, tbl.ID)
		}
		if ids[tbl.ID] {
			return fmt.Errorf("tables.floor[%d]: duplicate id %d", i, tbl.ID)
		}
		ids[tbl.ID] = true
		if tbl.Capacity <= 0 {
			return fmt.Errorf("tables.floor[%d]: capacity must be positive", i)
		}
	}
	return nil
}

// applyDefaults fills values left unset.
func (c *CalendarConfig) applyDefaults() {
	if c.SlotStepMinutes == 0 {
		c.SlotStepMinutes = model.DefaultSlotStep
	}
	if c.MaxKitchenLoad == 0 {
		c.MaxKitchenLoad = model.DefaultMaxKitchenLoad
	}
	if c.Tables.StayMinutes == 0 {
		c.Tables.StayMinutes = model.DefaultStayMinutes
	}
	if c.Tables.MaxFutureDays == nil {
		days := model.DefaultMaxFutureDays
		c.Tables.MaxFutureDays = &days
	}
	mode, _ := model.ParsePolicyMode(c.Tables.Mode)
	if mode == model.ModeFixedTurns && len(c.Tables.FixedTurns) == 0 {
		c.Tables.FixedTurns = append([]string(nil), DefaultFixedTurns...)
	}
}

// ToCalendar converts the document into the calendar the scheduling core reads.
func (c *CalendarConfig) ToCalendar() *model.Calendar {
	mode, _ := model.ParsePolicyMode(c.Tables.Mode)
	cal := &model.Calendar{
		ExceptionalClosures: append([]string(nil), c.ExceptionalClosures...),
		HolidayStart:        c.Holiday.Start,
		HolidayEnd:          c.Holiday.End,
		SlotStepMinutes:     c.SlotStepMinutes,
		MaxKitchenLoad:      c.MaxKitchenLoad,
		StayMinutes:         c.Tables.StayMinutes,
		TablePolicy:         model.NewTablePolicy(mode, c.Tables.FixedTurns, c.Tables.StayMinutes),
	}
	if c.Tables.MaxFutureDays != nil {
		cal.MaxFutureDays = *c.Tables.MaxFutureDays
	}
	for _, d := range c.Weekly {
		cal.Weekly = append(cal.Weekly, model.DayConfig{
			Day:    strings.ToLower(d.Day),
			Shifts: []model.Shift{toShift(d.Lunch), toShift(d.Dinner)},
		})
	}
	return cal
}

func toShift(s *ShiftConfig) model.Shift {
	if s == nil {
		return model.Shift{}
	}
	out := model.Shift{Enabled: s.Enabled, Open: s.Open, Close: s.Close}
	if s.Services != nil {
		services := *s.Services
		out.Services = &services
	}
	return out
}

// Floor returns the configured tables in file order.
func (c *CalendarConfig) Floor() []model.Table {
	out := make([]model.Table, 0, len(c.Tables.Floor))
	for _, t := range c.Tables.Floor {
		out = append(out, model.Table{ID: t.ID, Name: t.Name, Capacity: t.Capacity, Status: model.TableFree})
	}
	return out
}

package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzaflow/internal/model"
)

const sampleCalendar = `
weekly:
  - day: Monday
    lunch:
      enabled: false
      open: "12:00"
      close: "15:00"
    dinner:
      enabled: true
      open: "18:30"
      close: "23:00"
      services:
        table: true
        takeaway: true
        delivery: false
  - day: saturday
    dinner:
      enabled: true
      open: "22:00"
      close: "02:00"
exceptional_closures:
  - "2024-08-15"
holiday:
  start: "2024-01-07"
  end: "2024-01-14"
tables:
  mode: turni
  floor:
    - id: 1
      capacity: 2
    - id: 2
      name: Patio
      capacity: 6
`

func TestParseCalendarConfig(t *testing.T) {
	cfg, err := ParseCalendarConfig([]byte(sampleCalendar))
	require.NoError(t, err)

	assert.Equal(t, model.DefaultSlotStep, cfg.SlotStepMinutes)
	assert.Equal(t, model.DefaultMaxKitchenLoad, cfg.MaxKitchenLoad)
	assert.Equal(t, DefaultFixedTurns, cfg.Tables.FixedTurns)
	require.NotNil(t, cfg.Tables.MaxFutureDays)
	assert.Equal(t, model.DefaultMaxFutureDays, *cfg.Tables.MaxFutureDays)

	cal := cfg.ToCalendar()
	require.Len(t, cal.Weekly, 2)
	assert.Equal(t, "monday", cal.Weekly[0].Day)
	require.Len(t, cal.Weekly[0].Shifts, 2)
	assert.False(t, cal.Weekly[0].Shifts[0].Enabled)
	assert.True(t, cal.Weekly[0].Shifts[1].Offers(model.OrderTable))
	assert.False(t, cal.Weekly[0].Shifts[1].Offers(model.OrderDelivery))
	assert.False(t, cal.Weekly[1].Shifts[0].Enabled, "missing lunch is disabled")
	assert.Equal(t, model.ModeFixedTurns, cal.Policy().Mode())
	assert.True(t, cal.IsExceptionalClosure("2024-08-15"))
	assert.True(t, cal.InHoliday("2024-01-10"))

	floor := cfg.Floor()
	require.Len(t, floor, 2)
	assert.Equal(t, "Patio", floor[1].Label())
	assert.Equal(t, model.TableFree, floor[0].Status)
}

func TestParseCalendarConfig_ZeroHorizonDisablesCheck(t *testing.T) {
	cfg, err := ParseCalendarConfig([]byte("tables:\n  max_future_days: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.ToCalendar().MaxFutureDays)
}

func TestCalendarConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown day", "weekly:\n  - day: funday\n"},
		{"duplicate day", "weekly:\n  - day: monday\n  - day: Monday\n"},
		{"bad clock", "weekly:\n  - day: monday\n    lunch: {enabled: true, open: '25:00', close: '15:00'}\n"},
		{"empty shift window", "weekly:\n  - day: monday\n    lunch: {enabled: true, open: '12:00', close: '12:00'}\n"},
		{"bad closure", "exceptional_closures: ['15/08/2024']\n"},
		{"half holiday", "holiday: {start: '2024-01-01'}\n"},
		{"reversed holiday", "holiday: {start: '2024-01-10', end: '2024-01-01'}\n"},
		{"negative step", "slot_step_minutes: -5\n"},
		{"unknown policy", "tables: {mode: weekly}\n"},
		{"bad turn", "tables: {mode: turni, fixed_turns: ['7pm']}\n"},
		{"duplicate table", "tables: {floor: [{id: 1, capacity: 2}, {id: 1, capacity: 4}]}\n"},
		{"zero capacity", "tables: {floor: [{id: 1, capacity: 0}]}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCalendarConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDisabledShiftSkipsValidation(t *testing.T) {
	_, err := ParseCalendarConfig([]byte("weekly:\n  - day: monday\n    lunch: {enabled: false, open: '', close: ''}\n"))
	assert.NoError(t, err)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("PIZZAFLOW_TEST_KEY", "secret")
	content := "server:\n  staff_api_key: ${PIZZAFLOW_TEST_KEY}\ndatabase:\n  path: " + filepath.Join(dir, "db", "orders.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Server.StaffAPIKey)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.LockTTL())
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "timezone: Mars/Olympus\ndatabase:\n  path: " + filepath.Join(dir, "orders.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestWatchCalendar_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calendar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slot_step_minutes: 15\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zerolog.New(io.Discard)
	updates := make(chan *CalendarConfig, 4)
	err := WatchCalendar(ctx, path, 10*time.Millisecond, &logger, func(c *CalendarConfig) { updates <- c })
	require.NoError(t, err)

	first := <-updates
	assert.Equal(t, 15, first.SlotStepMinutes)

	require.NoError(t, os.WriteFile(path, []byte("slot_step_minutes: 30\n"), 0o644))
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case next := <-updates:
		assert.Equal(t, 30, next.SlotStepMinutes)
	case <-time.After(2 * time.Second):
		t.Fatal("calendar was not reloaded")
	}
}

func TestCalendarWatcher_RejectsInvalidEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slot_step_minutes: 15\n"), 0o644))
	stamp, err := stampOf(path)
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	var got []*CalendarConfig
	w := &calendarWatcher{path: path, seen: stamp, logger: &logger, onUpdate: func(c *CalendarConfig) { got = append(got, c) }}

	assert.False(t, w.poll(), "unchanged file")

	require.NoError(t, os.WriteFile(path, []byte("slot_step_minutes: -5\n"), 0o644))
	assert.False(t, w.poll())
	assert.False(t, w.poll(), "a rejected version is not retried")
	assert.Empty(t, got)

	require.NoError(t, os.WriteFile(path, []byte("slot_step_minutes: 20\n"), 0o644))
	assert.True(t, w.poll())
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].SlotStepMinutes)
}

func TestLive(t *testing.T) {
	cfg, err := ParseCalendarConfig([]byte(sampleCalendar))
	require.NoError(t, err)

	live := NewLive(cfg)
	assert.Len(t, live.Calendar().Weekly, 2)
	assert.Len(t, live.Floor(), 2)

	next, err := ParseCalendarConfig([]byte("slot_step_minutes: 30\n"))
	require.NoError(t, err)
	live.Set(next)
	assert.Equal(t, 30, live.Calendar().SlotStepMinutes)
	assert.Empty(t, live.Floor())

	live.Set(nil)
	assert.Equal(t, 30, live.Calendar().SlotStepMinutes)
}

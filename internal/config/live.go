package config

import (
	"sync"

	"pizzaflow/internal/model"
)

// Live holds the current calendar. Readers get an immutable snapshot;
// Set swaps it atomically on reload.
type Live struct {
	mu  sync.RWMutex
	cfg *CalendarConfig
	cal *model.Calendar
}

func NewLive(cfg *CalendarConfig) *Live {
	l := &Live{}
	l.Set(cfg)
	return l
}

func (l *Live) Set(cfg *CalendarConfig) {
	if cfg == nil {
		return
	}
	cal := cfg.ToCalendar()
	l.mu.Lock()
	l.cfg = cfg
	l.cal = cal
	l.mu.Unlock()
}

// Calendar returns the current calendar. Callers must not modify it.
func (l *Live) Calendar() *model.Calendar {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cal == nil {
		return &model.Calendar{}
	}
	return l.cal
}

// Floor returns the configured tables.
func (l *Live) Floor() []model.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cfg == nil {
		return nil
	}
	return l.cfg.Floor()
}

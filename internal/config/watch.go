package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// fileStamp identifies one version of a file on disk.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, nil
}

type calendarWatcher struct {
	path     string
	seen     fileStamp
	logger   *zerolog.Logger
	onUpdate func(*CalendarConfig)
}

// poll reloads the calendar when the file changed since the last poll.
// An invalid file is reported once and the previous calendar stays in force.
func (w *calendarWatcher) poll() bool {
	stamp, err := stampOf(w.path)
	if err != nil || stamp == w.seen {
		return false
	}
	w.seen = stamp

	cfg, err := LoadCalendarConfig(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("calendar reload rejected")
		return false
	}
	w.logger.Info().Str("path", w.path).Int("days", len(cfg.Weekly)).Msg("calendar reloaded")
	w.onUpdate(cfg)
	return true
}

// WatchCalendar loads the calendar, hands it to onUpdate, then polls the
// file every interval until ctx is done. Only the initial load can fail.
func WatchCalendar(ctx context.Context, path string, interval time.Duration, logger *zerolog.Logger, onUpdate func(*CalendarConfig)) error {
	if path == "" {
		path = "configs/calendar.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if onUpdate == nil {
		onUpdate = func(*CalendarConfig) {}
	}

	stamp, err := stampOf(path)
	if err != nil {
		return err
	}
	cfg, err := LoadCalendarConfig(path)
	if err != nil {
		return err
	}
	onUpdate(cfg)

	w := &calendarWatcher{path: path, seen: stamp, logger: logger, onUpdate: onUpdate}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.poll()
			}
		}
	}()
	return nil
}

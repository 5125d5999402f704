package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pizzaflow/internal/config"
)

const (
	backupPrefix = "pizzaflow_"
	backupSuffix = ".db"
)

// BackupService snapshots the order store on a fixed interval and prunes
// snapshots older than the retention window.
type BackupService struct {
	db       *DB
	dir      string
	enabled  bool
	keep     time.Duration
	interval time.Duration
	logger   *zerolog.Logger
}

func NewBackupService(db *DB, cfg config.BackupConfig, interval time.Duration, logger *zerolog.Logger) *BackupService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &BackupService{
		db:       db,
		dir:      cfg.StoragePath,
		enabled:  cfg.Enabled && cfg.StoragePath != "",
		keep:     time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval: interval,
		logger:   logger,
	}
}

// Run takes a snapshot right away and then every interval until ctx is done.
func (s *BackupService) Run(ctx context.Context) {
	if !s.enabled {
		s.logger.Info().Msg("order store backups disabled")
		return
	}
	s.logger.Info().Str("dir", s.dir).Dur("interval", s.interval).Msg("order store backups scheduled")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *BackupService) cycle(ctx context.Context) {
	path, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("order store backup failed")
		return
	}
	removed, err := s.Prune(time.Now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("backup pruning failed")
	}
	s.logger.Info().Str("file", path).Int("pruned", removed).Msg("order store backed up")
}

// Snapshot writes a consistent copy of the database with VACUUM INTO,
// which is safe while WAL writers are active.
func (s *BackupService) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(s.dir, backupPrefix+time.Now().Format("20060102_150405")+backupSuffix)
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return path, nil
}

// Prune removes snapshots last modified before now minus the retention
// window and reports how many it removed. A zero window keeps everything.
func (s *BackupService) Prune(now time.Time) (int, error) {
	if s.keep <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read backup dir: %w", err)
	}

	cutoff := now.Add(-s.keep)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("failed to remove old backup")
			continue
		}
		removed++
	}
	return removed, nil
}

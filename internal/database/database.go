package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps sql.DB for order and table storage.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrTableNotFound          = errors.New("table not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrDuplicateOrder         = errors.New("order already exists")
)

// NewDB opens the database at path and creates tables if they don't exist.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, path: path, logger: logger}
	if err := instance.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		// Orders are stored as JSON documents; date, time and flags are
		// duplicated into columns for filtering.
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			date TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			is_accepted BOOLEAN NOT NULL DEFAULT 0,
			is_archived BOOLEAN NOT NULL DEFAULT 0,
			document TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS dining_tables (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			capacity INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'free',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			order_id TEXT NOT NULL DEFAULT '',
			order_date TEXT NOT NULL DEFAULT '',
			actor TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_orders_date_time ON orders(date, time)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_archived ON orders(is_archived)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_order_date ON audit_log(order_date)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Close() error {
	return db.DB.Close()
}

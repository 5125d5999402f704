package database

import (
	"context"
	"fmt"
	"time"

	"pizzaflow/internal/model"
)

// SyncTables makes the configured floor the set of active tables.
// Existing tables keep their status; tables no longer configured are deactivated.
func (db *DB) SyncTables(ctx context.Context, floor []model.Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	if _, err := tx.ExecContext(ctx, "UPDATE dining_tables SET is_active = 0, updated_at = ?", now); err != nil {
		return fmt.Errorf("deactivate tables: %w", err)
	}
	for _, t := range floor {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dining_tables (id, name, capacity, status, is_active, updated_at)
			VALUES (?, ?, ?, ?, 1, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				capacity = excluded.capacity,
				is_active = 1,
				updated_at = excluded.updated_at`,
			t.ID, t.Name, t.Capacity, string(model.TableFree), now,
		)
		if err != nil {
			return fmt.Errorf("upsert table %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	db.logger.Info().Int("tables", len(floor)).Msg("Tables synchronized")
	return nil
}

// ListTables returns active tables ordered by id.
func (db *DB) ListTables(ctx context.Context) ([]model.Table, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, capacity, status FROM dining_tables
		WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var out []model.Table
	for rows.Next() {
		var (
			t      model.Table
			status string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Capacity, &status); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		t.Status = model.TableStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetTableStatus records the floor state of a table.
func (db *DB) SetTableStatus(ctx context.Context, id int, status model.TableStatus) error {
	result, err := db.ExecContext(ctx,
		"UPDATE dining_tables SET status = ?, updated_at = ? WHERE id = ? AND is_active = 1",
		string(status), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set table status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTableNotFound
	}
	return nil
}

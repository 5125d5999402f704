package database

import (
	"context"
	"fmt"
	"time"

	"pizzaflow/internal/model"
)

// RecordAudit appends an entry to the audit log.
func (db *DB) RecordAudit(ctx context.Context, e model.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (action, order_id, order_date, actor, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Action, e.OrderID, e.OrderDate, e.Actor, e.Details, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the entries about orders of date, oldest first.
func (db *DB) ListAudit(ctx context.Context, date string) ([]model.AuditEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, action, order_id, order_date, actor, details, created_at
		FROM audit_log WHERE order_date = ? ORDER BY created_at, id`, date)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.OrderID, &e.OrderDate, &e.Actor, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

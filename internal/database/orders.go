package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"pizzaflow/internal/model"
)

// OrderFilter narrows ListOrders. Zero value lists every live order.
type OrderFilter struct {
	Date            string
	IncludeArchived bool
}

// CreateOrder stores a new order at version 1.
func (db *DB) CreateOrder(ctx context.Context, o *model.Order) error {
	o.Version = 1
	doc, err := json.Marshal(model.NewDocument(*o))
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	now := time.Now()
	_, err = db.ExecContext(ctx, `
		INSERT INTO orders (id, type, date, time, is_accepted, is_archived, document, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, string(o.Type), o.Date, o.Time, o.IsAccepted, o.IsArchived, string(doc), o.Version, now, now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrder loads one order by id.
func (db *DB) GetOrder(ctx context.Context, id string) (model.Order, error) {
	var (
		doc     string
		version int64
	)
	err := db.QueryRowContext(ctx, "SELECT document, version FROM orders WHERE id = ?", id).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	return decodeOrder(doc, version)
}

// UpdateOrder replaces an order if its stored version still equals
// o.Version. On success o.Version is incremented.
func (db *DB) UpdateOrder(ctx context.Context, o *model.Order) error {
	expected := o.Version
	next := *o
	next.Version = expected + 1
	doc, err := json.Marshal(model.NewDocument(next))
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	result, err := db.ExecContext(ctx, `
		UPDATE orders
		SET type = ?, date = ?, time = ?, is_accepted = ?, is_archived = ?,
		    document = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(next.Type), next.Date, next.Time, next.IsAccepted, next.IsArchived,
		string(doc), time.Now(), next.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := db.GetOrder(ctx, o.ID); errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return ErrConcurrentModification
	}

	o.Version = next.Version
	return nil
}

// DeleteOrder removes an order permanently.
func (db *DB) DeleteOrder(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListOrders returns orders sorted by date and time.
func (db *DB) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	var (
		where []string
		args  []interface{}
	)
	if !f.IncludeArchived {
		where = append(where, "is_archived = 0")
	}
	if f.Date != "" {
		where = append(where, "date = ?")
		args = append(args, f.Date)
	}

	query := "SELECT document, version FROM orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, time, created_at"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var (
			doc     string
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o, err := decodeOrder(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// decodeOrder is the single point where stored documents are normalized.
func decodeOrder(doc string, version int64) (model.Order, error) {
	var d model.Document
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return model.Order{}, fmt.Errorf("decode order: %w", err)
	}
	o := d.Normalize()
	o.Version = version
	return o, nil
}

package model

import (
	"strconv"
	"strings"
	"time"
)

// TableStatus is the floor state of a table.
type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
	TableBilling  TableStatus = "billing"
)

// Valid reports whether s is one of the known floor states.
func (s TableStatus) Valid() bool {
	switch s {
	case TableFree, TableOccupied, TableBilling:
		return true
	}
	return false
}

// Table is a bookable table.
type Table struct {
	ID       int         `json:"id"`
	Name     string      `json:"name,omitempty"`
	Capacity int         `json:"capacity"`
	Status   TableStatus `json:"status"`
}

// Label returns the table name, falling back to "T<id>".
func (t Table) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return "T" + strconv.Itoa(t.ID)
}

// TableLabel formats an order's tables as "T3" or "T3+4" for joined tables.
func TableLabel(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "T" + strings.Join(parts, "+")
}

// AuditEntry records a staff decision or an override over an order.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	OrderID   string    `json:"orderId"`
	OrderDate string    `json:"orderDate"`
	Actor     string    `json:"actor"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

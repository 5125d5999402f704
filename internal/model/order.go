package model

import (
	"slices"
	"time"
)

// OrderType is the kind of customer transaction.
type OrderType string

const (
	OrderTakeaway OrderType = "takeaway"
	OrderDelivery OrderType = "delivery"
	OrderTable    OrderType = "table"
)

// Valid reports whether t is one of the known order types.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTakeaway, OrderDelivery, OrderTable:
		return true
	}
	return false
}

// ItemStatus tracks an item through the kitchen.
type ItemStatus string

const (
	ItemNew       ItemStatus = "new"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
)

// KitchenCategory is the menu category that always occupies the oven.
const KitchenCategory = "Pizze"

// DefaultTableDuration is the occupancy assumed for table orders without a snapshot.
const DefaultTableDuration = 90

// OrderItem is a single line of an order.
type OrderItem struct {
	ID              string     `json:"id"`
	MenuID          string     `json:"menuId"`
	Name            string     `json:"name"`
	Price           float64    `json:"price"`
	Category        string     `json:"category"`
	RequiresCooking bool       `json:"requiresCooking"`
	Status          ItemStatus `json:"status"`
	IsPaid          bool       `json:"isPaid,omitempty"`
}

// KitchenBound reports whether the item consumes kitchen throughput.
func (i OrderItem) KitchenBound() bool {
	return i.Category == KitchenCategory || i.RequiresCooking
}

// Order is the normalized order seen by the scheduling core.
// Every field is populated; legacy fallbacks happen in Document.Normalize.
type Order struct {
	ID              string      `json:"id"`
	Type            OrderType   `json:"type"`
	CustomerName    string      `json:"customerName"`
	CustomerPhone   string      `json:"customerPhone,omitempty"`
	CustomerAddress string      `json:"customerAddress,omitempty"`
	Notes           string      `json:"orderNotes,omitempty"`
	Pax             int         `json:"pax,omitempty"`
	Date            string      `json:"date"`
	Time            string      `json:"time"`
	DurationMinutes int         `json:"duration,omitempty"`
	TableIDs        []int       `json:"tableIds,omitempty"`
	Items           []OrderItem `json:"items"`
	IsAccepted      bool        `json:"isAccepted"`
	IsArchived      bool        `json:"isArchived"`
	CreatedBy       string      `json:"createdBy,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	Version         int64       `json:"version"`
}

// UsesTable reports whether the order holds tableID, alone or joined.
func (o *Order) UsesTable(tableID int) bool {
	return slices.Contains(o.TableIDs, tableID)
}

// KitchenLoad counts the order's kitchen-bound items.
func (o *Order) KitchenLoad() int {
	return CountKitchenBound(o.Items)
}

// EffectiveDuration returns the occupancy snapshot or the default.
func (o *Order) EffectiveDuration() int {
	if o.DurationMinutes > 0 {
		return o.DurationMinutes
	}
	return DefaultTableDuration
}

// IsPending reports whether the order still awaits staff acceptance.
func (o *Order) IsPending() bool {
	return !o.IsAccepted && !o.IsArchived
}

// CountKitchenBound counts kitchen-bound items in a cart or order.
func CountKitchenBound(items []OrderItem) int {
	n := 0
	for _, it := range items {
		if it.KitchenBound() {
			n++
		}
	}
	return n
}

// Document is the stored shape of an order, including legacy fields
// written by older clients.
type Document struct {
	Order
	TableID *int `json:"tableId,omitempty"`
}

// Normalize resolves legacy fields into a fully populated Order.
func (d Document) Normalize() Order {
	o := d.Order
	if len(o.TableIDs) == 0 && d.TableID != nil && *d.TableID > 0 {
		o.TableIDs = []int{*d.TableID}
	} else {
		o.TableIDs = slices.Clone(o.TableIDs)
	}
	if o.Type == OrderTable && o.DurationMinutes <= 0 {
		o.DurationMinutes = DefaultTableDuration
	}
	if o.Items == nil {
		o.Items = []OrderItem{}
	}
	return o
}

// NewDocument wraps a normalized order for storage. The singular table
// field is kept for readers that only understand it.
func NewDocument(o Order) Document {
	d := Document{Order: o}
	if len(o.TableIDs) > 0 {
		first := o.TableIDs[0]
		d.TableID = &first
	}
	return d
}

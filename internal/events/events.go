package events

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the booking service.
const (
	OrderCreated     = "order.created"
	OrderUpdated     = "order.updated"
	OrderDeleted     = "order.deleted"
	TablesChanged    = "tables.changed"
	CalendarReloaded = "calendar.reloaded"
)

// Event is a change notification. Payload is JSON whose shape depends on Type.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// OrderPayload identifies the order an event refers to.
type OrderPayload struct {
	OrderID string `json:"orderId"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// NewOrderEvent builds an order event with a JSON payload.
func NewOrderEvent(eventType, orderID, date, clock string) Event {
	data, _ := json.Marshal(OrderPayload{OrderID: orderID, Date: date, Time: clock})
	return Event{Type: eventType, Payload: data}
}

// DecodeOrder reads the payload of an order event.
func (e Event) DecodeOrder() (OrderPayload, error) {
	var p OrderPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus fans events out to in-process subscribers.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	seq         atomic.Int64
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for the given event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// SubscribeChan delivers events of the given types to a buffered channel.
// Events are dropped when the channel is full; subscribers are expected to
// re-read state rather than rely on every event.
func (b *EventBus) SubscribeChan(buffer int, eventTypes ...string) <-chan Event {
	ch := make(chan Event, buffer)
	b.Subscribe(func(e Event) error {
		select {
		case ch <- e:
		default:
		}
		return nil
	}, eventTypes...)
	return ch
}

// Publish runs the handlers of the event type in subscription order on the
// caller's goroutine and returns their errors joined.
func (b *EventBus) Publish(event Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package events provides in-process pub/sub for appointment lifecycle
// events. Handlers run synchronously; errors are swallowed by the bus so a
// misbehaving subscriber cannot fail the operation that published.
package events

import (
	"sync"
	"time"

	"medbook/internal/models"
)

// Event types published by the scheduling engine.
const (
	TypeAppointmentBooked        = "appointment.booked"
	TypeAppointmentStatusChanged = "appointment.status_changed"
)

// Event is a lightweight domain event.
type Event struct {
	Type        string
	Appointment models.Appointment
	// PreviousStatus is set for status-change events.
	PreviousStatus models.AppointmentStatus
	CreatedAt      time.Time
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

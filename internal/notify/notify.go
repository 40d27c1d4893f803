// Package notify delivers fire-and-forget in-app notifications. The sink
// retains at most MaxRetained notifications per recipient, evicting the
// oldest first.
package notify

import (
	"context"
	"sync"
	"time"
)

// MaxRetained is the per-recipient retention cap.
const MaxRetained = 5

// Notification is a short message addressed to one recipient.
type Notification struct {
	RecipientID   string    `json:"recipient_id"`
	RecipientRole string    `json:"recipient_role"` // "patient" | "doctor" | "admin"
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sink accepts notifications. Implementations are fire-and-forget; errors
// are logged by callers, never propagated into the triggering operation.
type Sink interface {
	CreateNotification(ctx context.Context, n Notification) error
}

// MemorySink is a mutex-guarded in-process sink, used standalone and in tests.
type MemorySink struct {
	mu      sync.Mutex
	byRecip map[string][]Notification
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{byRecip: make(map[string][]Notification)}
}

// CreateNotification stores the notification, evicting beyond the cap.
func (s *MemorySink) CreateNotification(_ context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := n.RecipientRole + ":" + n.RecipientID
	list := append(s.byRecip[key], n)
	if len(list) > MaxRetained {
		list = list[len(list)-MaxRetained:]
	}
	s.byRecip[key] = list
	return nil
}

// Recent returns the retained notifications for a recipient, oldest first.
func (s *MemorySink) Recent(recipientRole, recipientID string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recipientRole + ":" + recipientID
	out := make([]Notification, len(s.byRecip[key]))
	copy(out, s.byRecip[key])
	return out
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink stores notifications in per-recipient Redis lists capped at
// MaxRetained entries (LPUSH + LTRIM, newest at the head).
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink creates a sink backed by the given Redis client.
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func notificationKey(role, id string) string {
	return fmt.Sprintf("notifications:%s:%s", role, id)
}

// CreateNotification pushes the notification and trims the list to the cap.
func (s *RedisSink) CreateNotification(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := notificationKey(n.RecipientRole, n.RecipientID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, MaxRetained-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

// Recent returns the retained notifications for a recipient, newest first.
func (s *RedisSink) Recent(ctx context.Context, recipientRole, recipientID string) ([]Notification, error) {
	key := notificationKey(recipientRole, recipientID)
	raw, err := s.client.LRange(ctx, key, 0, MaxRetained-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}

	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

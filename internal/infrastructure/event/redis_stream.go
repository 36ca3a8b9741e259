package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultStreamMaxLen caps the stream so it cannot grow without bound
const DefaultStreamMaxLen = 100000

// RedisStreamHandler forwards ledger events to a Redis stream so that other
// services can consume them with XREAD or consumer groups. Each entry carries
// the event type, tenant and the JSON-encoded event.
type RedisStreamHandler struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamHandler creates a handler writing to {keyPrefix}:events
func NewRedisStreamHandler(client *redis.Client, keyPrefix string) *RedisStreamHandler {
	if keyPrefix == "" {
		keyPrefix = "erp"
	}
	return &RedisStreamHandler{
		client: client,
		stream: keyPrefix + ":events",
		maxLen: DefaultStreamMaxLen,
	}
}

// Stream returns the stream key
func (h *RedisStreamHandler) Stream() string {
	return h.stream
}

// EventTypes returns nil so the handler receives all events
func (h *RedisStreamHandler) EventTypes() []string {
	return nil
}

// Handle appends the event to the stream
func (h *RedisStreamHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event.EventType(), err)
	}
	err = h.client.XAdd(ctx, &redis.XAddArgs{
		Stream: h.stream,
		MaxLen: h.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_id":   event.EventID().String(),
			"event_type": event.EventType(),
			"tenant_id":  event.TenantID().String(),
			"payload":    payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append %s to stream: %w", event.EventType(), err)
	}
	return nil
}

var _ shared.EventHandler = (*RedisStreamHandler)(nil)

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSequenceCounter implements numbering.Counter with Redis INCR.
// INCR is atomic on the server, so concurrent callers across instances
// never receive the same value. Keys are {prefix}:seq:{tenant}:{type}.
type RedisSequenceCounter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClient creates a client and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisSequenceCounter creates a counter on an existing client
func NewRedisSequenceCounter(client *redis.Client, keyPrefix string) *RedisSequenceCounter {
	if keyPrefix == "" {
		keyPrefix = "erp"
	}
	return &RedisSequenceCounter{client: client, keyPrefix: keyPrefix}
}

// Key returns the Redis key holding a tenant's sequence
func (c *RedisSequenceCounter) Key(tenantID uuid.UUID, sequenceType numbering.SequenceType) string {
	return fmt.Sprintf("%s:seq:%s:%s", c.keyPrefix, tenantID, sequenceType)
}

// Increment atomically bumps the sequence and returns the new value
func (c *RedisSequenceCounter) Increment(ctx context.Context, tenantID uuid.UUID, sequenceType numbering.SequenceType) (int64, error) {
	if !sequenceType.IsValid() {
		return 0, numbering.ErrInvalidSequence
	}
	n, err := c.client.Incr(ctx, c.Key(tenantID, sequenceType)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return n, nil
}

// Close closes the Redis client
func (c *RedisSequenceCounter) Close() error {
	return c.client.Close()
}

var _ numbering.Counter = (*RedisSequenceCounter)(nil)

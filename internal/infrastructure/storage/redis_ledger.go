package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsRelay/internal/ports"
)

// DefaultRedisKey is the hash holding delivered identities.
const DefaultRedisKey = "newsrelay:news"

// RedisLedger keeps identities as fields of one hash; the value is the
// RFC 3339 delivery time.
type RedisLedger struct {
	client *redis.Client
	key    string
}

var _ ports.Ledger = (*RedisLedger)(nil)

// NewRedisLedger uses key, or DefaultRedisKey when key is empty.
func NewRedisLedger(client *redis.Client, key string) *RedisLedger {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLedger{client: client, key: key}
}

// Has reports whether id is a field of the ledger hash.
func (l *RedisLedger) Has(ctx context.Context, id string) (bool, error) {
	ok, err := l.client.HExists(ctx, l.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("hexists %s: %w", id, err)
	}
	return ok, nil
}

// Record keeps the first delivery time when id is recorded twice.
func (l *RedisLedger) Record(ctx context.Context, id string) error {
	stamp := time.Now().UTC().Format(time.RFC3339)
	if err := l.client.HSetNX(ctx, l.key, id, stamp).Err(); err != nil {
		return fmt.Errorf("hsetnx %s: %w", id, err)
	}
	return nil
}

// Close releases the redis client.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

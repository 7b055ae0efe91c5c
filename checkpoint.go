package addrscan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckpointStore persists the keyset cursor between runs. A nil cursor means
// "start from the beginning"; saving nil clears the checkpoint.
type CheckpointStore interface {
	Load(ctx context.Context) (*string, error)
	Save(ctx context.Context, cursor *string) error
}

// MemoryCheckpoint keeps the cursor for the lifetime of the process.
type MemoryCheckpoint struct {
	mu     sync.Mutex
	cursor *string
}

func NewMemoryCheckpoint() *MemoryCheckpoint {
	return new(MemoryCheckpoint)
}

func (m *MemoryCheckpoint) Load(_ context.Context) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return copyCursor(m.cursor), nil
}

func (m *MemoryCheckpoint) Save(_ context.Context, cursor *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cursor = copyCursor(cursor)

	return nil
}

// RedisCheckpoint stores the cursor under a single Redis key.
type RedisCheckpoint struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisCheckpoint returns a store writing to key. A zero ttl keeps the key
// until the scan clears it.
func NewRedisCheckpoint(client redis.Cmdable, key string, ttl time.Duration) *RedisCheckpoint {
	return &RedisCheckpoint{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (r *RedisCheckpoint) Load(ctx context.Context) (*string, error) {
	value, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", r.key, err)
	}

	return &value, nil
}

func (r *RedisCheckpoint) Save(ctx context.Context, cursor *string) error {
	if cursor == nil {
		if err := r.client.Del(ctx, r.key).Err(); err != nil {
			return fmt.Errorf("clear checkpoint %s: %w", r.key, err)
		}

		return nil
	}

	if err := r.client.Set(ctx, r.key, *cursor, r.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", r.key, err)
	}

	return nil
}

var (
	_ CheckpointStore = (*MemoryCheckpoint)(nil)
	_ CheckpointStore = (*RedisCheckpoint)(nil)
)

func copyCursor(cursor *string) *string {
	if cursor == nil {
		return nil
	}

	v := *cursor

	return &v
}

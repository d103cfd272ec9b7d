package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL of a persisted cart.
const TTL = 30 * 24 * time.Hour

// Notification payloads published on a cart channel.
const (
	EventUpdated = "updated"
	EventCleared = "cleared"
)

// Slot is the durable key-value slot a cart is persisted to. Load reports
// ok=false when nothing is stored for the owner.
type Slot interface {
	Load(ctx context.Context, owner string) (data string, ok bool, err error)
	Save(ctx context.Context, owner, data string) error
	Delete(ctx context.Context, owner string) error
}

// Key is the Redis key and pub/sub channel of an owner's cart.
func Key(owner string) string {
	return "cart:" + owner
}

// RedisSlot stores carts as JSON under cart:<owner> and publishes a
// notification on the same channel after every write.
type RedisSlot struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlot(client *redis.Client) *RedisSlot {
	return &RedisSlot{client: client, ttl: TTL}
}

func (s *RedisSlot) Load(ctx context.Context, owner string) (string, bool, error) {
	data, err := s.client.Get(ctx, Key(owner)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return data, true, nil
}

func (s *RedisSlot) Save(ctx context.Context, owner, data string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, Key(owner), data, s.ttl)
	pipe.Publish(ctx, Key(owner), EventUpdated)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSlot) Delete(ctx context.Context, owner string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, Key(owner))
	pipe.Publish(ctx, Key(owner), EventCleared)
	_, err := pipe.Exec(ctx)
	return err
}

// Subscribe listens for change notifications on the owner's cart.
func (s *RedisSlot) Subscribe(ctx context.Context, owner string) *redis.PubSub {
	return s.client.Subscribe(ctx, Key(owner))
}

// MemorySlot keeps carts in process memory.
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string]string)}
}

func (s *MemorySlot) Load(_ context.Context, owner string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[owner]
	return data, ok, nil
}

func (s *MemorySlot) Save(_ context.Context, owner, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[owner] = data
	return nil
}

func (s *MemorySlot) Delete(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, owner)
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL  = 30 * 24 * time.Hour
	productsKey = "products:all"
)

// Cache groups the Redis keys the API owns besides carts: the flattened
// catalog, signed-in sessions, revoked tokens and rate limit counters.
type Cache struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client, catalogTTL: ProductCacheTTL}
}

func (c *Cache) Client() *redis.Client { return c.client }

// --- Sessions ---

func sessionKey(userID string) string { return "session:" + userID }

// StoreSession keeps the resolved identity of a signed-in user.
func (c *Cache) StoreSession(ctx context.Context, s models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(s.UserID), data, SessionTTL).Err()
}

// Session returns the stored identity, or ok=false when there is none.
func (c *Cache) Session(ctx context.Context, userID string) (models.Session, bool, error) {
	var s models.Session
	data, err := c.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, false, nil
	}
	return s, true, nil
}

func (c *Cache) DeleteSession(ctx context.Context, userID string) error {
	return c.client.Del(ctx, sessionKey(userID)).Err()
}

// --- Token revocation ---

// RevokeToken blacklists a token id until it would have expired anyway.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, "blacklist:"+tokenID, "revoked", ttl).Err()
}

func (c *Cache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, "blacklist:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Rate limiting ---

// Hit increments the counter at key and returns the new count. The window
// starts with the first hit; a counter left without expiry gets one on the
// next hit.
func (c *Cache) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// TTL is the time left before key expires.
func (c *Cache) TTL(ctx context.Context, key string) time.Duration {
	return c.client.TTL(ctx, key).Val()
}

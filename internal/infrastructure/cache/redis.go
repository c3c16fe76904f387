package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tillpoint/internal/domain/cart"
)

// cartTTL bounds abandoned carts. Every write refreshes it, so an
// active register never loses its cart.
const cartTTL = 24 * time.Hour

// RedisCartStore keeps live carts in Redis so every node of a
// deployment sees the same register state.
type RedisCartStore struct {
	client *redis.Client
}

var _ cart.Store = (*RedisCartStore)(nil)

// NewRedisCartStore connects a cart store to Redis.
func NewRedisCartStore(addr, password string, db int) *RedisCartStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCartStore{client: client}
}

func (s *RedisCartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisCartStore) Close() error {
	return s.client.Close()
}

func (s *RedisCartStore) Get(ctx context.Context, tenantID, registerID string) (*cart.Cart, error) {
	val, err := s.client.Get(ctx, cartKey(tenantID, registerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &c, nil
}

func (s *RedisCartStore) Put(ctx context.Context, c *cart.Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(c.TenantID, c.RegisterID), payload, cartTTL).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (s *RedisCartStore) Delete(ctx context.Context, tenantID, registerID string) error {
	if err := s.client.Del(ctx, cartKey(tenantID, registerID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/foodhub/pkg/config"
	"github.com/go-redis/redis/v8"
)

var ErrCacheMiss = errors.New("cache miss")

const orderSequenceKey = "orders:seq"

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

// Client exposes the underlying connection for the cart locker.
func (r *RedisRepository) Client() *redis.Client {
	return r.client
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.config.CacheTTL).Err()
}

// GetJSON decodes the cached value at key into dest, or returns ErrCacheMiss.
func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// OrderSequence is a cluster wide counter for order numbers.
type OrderSequence struct {
	client *redis.Client
}

func (r *RedisRepository) OrderSequence() *OrderSequence {
	return &OrderSequence{client: r.client}
}

func (s *OrderSequence) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, orderSequenceKey).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", orderSequenceKey, err)
	}
	return n, nil
}

func RestaurantKey(id string) string { return "restaurant:" + id }

func FoodItemKey(id string) string { return "food:" + id }

func MenuKey(restaurantID string) string { return "menu:" + restaurantID }

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hostelbook/internal/config"
	"hostelbook/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStatusCache хранит вычисленный живой статус ресурсов с коротким TTL.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisStatusCache(client *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{
		client: client,
		ttl:    ttl,
	}
}

func statusKey(facilityID, category string) string {
	return fmt.Sprintf("facility_status:%s:%s", facilityID, category)
}

func (r *RedisStatusCache) Get(ctx context.Context, facilityID, category string) ([]models.ResourceStatus, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, statusKey(facilityID, category)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	var statuses []models.ResourceStatus
	if err := json.Unmarshal([]byte(val), &statuses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal statuses: %w", err)
	}
	return statuses, nil
}

func (r *RedisStatusCache) Set(ctx context.Context, facilityID, category string, statuses []models.ResourceStatus) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(statuses)
	if err != nil {
		return fmt.Errorf("failed to marshal statuses: %w", err)
	}

	if err := r.client.Set(ctx, statusKey(facilityID, category), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set status in redis: %w", err)
	}
	return nil
}

// Invalidate сбрасывает кэш всех категорий общежития после записи.
func (r *RedisStatusCache) Invalidate(ctx context.Context, facilityID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	keys, err := r.client.Keys(ctx, fmt.Sprintf("facility_status:%s:*", facilityID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list status keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate status keys: %w", err)
	}
	return nil
}

func (r *RedisStatusCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	redisKey := fmt.Sprintf("rate_limit:%s", key)
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, redisKey, window)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

package redis

import (
	"context"
	"fmt"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient создает клиент Redis для кеша, pub/sub и очереди вебхуков
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
		PoolSize: 10,
	})

	// Проверяем соединение с Redis
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	webhookQueueKey = "webhook_events"
)

// Publisher - интерфейс для публикации событий
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher публикует события в канал Redis и, если включены вебхуки, в очередь воркера
type RedisPublisher struct {
	redisClient    *redis.Client
	channel        string
	webhookEnabled bool
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client, channel string, webhookEnabled bool) *RedisPublisher {
	return &RedisPublisher{
		redisClient:    client,
		channel:        channel,
		webhookEnabled: webhookEnabled,
	}
}

// Publish отправляет событие одним пайплайном: PUBLISH в канал и LPUSH в очередь вебхуков
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.redisClient.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, p.channel, payload)
		if p.webhookEnabled {
			pipe.LPush(ctx, webhookQueueKey, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish event to Redis: %w", err)
	}
	return nil
}

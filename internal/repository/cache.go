package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type OccurrenceCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewOccurrenceCache(redisClient *redis.Client, ttl time.Duration) service.OccurrenceCache {
	return &OccurrenceCache{redisClient: redisClient, ttl: ttl}
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("occurrence:%s", id.String())
}

// fenceKey хранит минимальную версию, которую еще можно положить в кеш
func fenceKey(id uuid.UUID) string {
	return fmt.Sprintf("occurrence:%s:fence", id.String())
}

// setScript кладет запись, только если ее версия не ниже барьера
var setScript = redis.NewScript(`
local fence = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[2]) < fence then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// invalidateScript удаляет запись и поднимает барьер версии
var invalidateScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
local fence = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) > fence then
	fence = tonumber(ARGV[1])
end
redis.call('SET', KEYS[2], tostring(fence), 'PX', ARGV[2])
return fence
`)

// Get пытается получить происшествие из Redis; промах - nil, nil
func (c *OccurrenceCache) Get(ctx context.Context, id uuid.UUID) (*models.Occurrence, error) {
	val, err := c.redisClient.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get occurrence from cache: %w", err)
	}

	occurrence := &models.Occurrence{}
	if err := json.Unmarshal(val, occurrence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal occurrence from cache: %w", err)
	}
	return occurrence, nil
}

// Set сохраняет происшествие в Redis. Версия ниже барьера, оставленного
// Invalidate, молча пропускается: это снимок, прочитанный до записи.
func (c *OccurrenceCache) Set(ctx context.Context, occurrence *models.Occurrence) error {
	val, err := json.Marshal(occurrence)
	if err != nil {
		return fmt.Errorf("failed to marshal occurrence for cache: %w", err)
	}
	keys := []string{cacheKey(occurrence.ID), fenceKey(occurrence.ID)}
	if err := setScript.Run(ctx, c.redisClient, keys, val, occurrence.Version, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to set occurrence in cache: %w", err)
	}
	return nil
}

// Invalidate удаляет происшествие из Redis кэша и запрещает класть версии ниже minVersion
func (c *OccurrenceCache) Invalidate(ctx context.Context, id uuid.UUID, minVersion int) error {
	keys := []string{cacheKey(id), fenceKey(id)}
	if err := invalidateScript.Run(ctx, c.redisClient, keys, minVersion, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate occurrence cache: %w", err)
	}
	return nil
}

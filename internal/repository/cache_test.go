package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*OccurrenceCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewOccurrenceCache(client, 5*time.Minute).(*OccurrenceCache), mr
}

func TestOccurrenceCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	occurrence, err := cache.Get(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, occurrence)
}

func TestOccurrenceCache_SetGetInvalidate(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	occurredAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	minutes := 15
	occurrence := &models.Occurrence{
		ID:                  uuid.New(),
		Type:                models.TypeFlood,
		Location:            "Rua da Aurora",
		Address:             "Rua da Aurora, 100",
		Latitude:            -8.06,
		Longitude:           -34.88,
		Status:              models.StatusInProgress,
		Priority:            models.PriorityHigh,
		OccurredAt:          occurredAt,
		ResponseTimeMinutes: &minutes,
		Photos:              []string{},
		Version:             2,
	}

	require.NoError(t, cache.Set(ctx, occurrence))
	assert.True(t, mr.Exists(cacheKey(occurrence.ID)))
	assert.Equal(t, 5*time.Minute, mr.TTL(cacheKey(occurrence.ID)))

	cached, err := cache.Get(ctx, occurrence.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, occurrence.ID, cached.ID)
	assert.Equal(t, models.StatusInProgress, cached.Status)
	assert.Equal(t, 15, *cached.ResponseTimeMinutes)
	assert.True(t, occurredAt.Equal(cached.OccurredAt))
	assert.Equal(t, 2, cached.Version)

	require.NoError(t, cache.Invalidate(ctx, occurrence.ID, 3))
	assert.False(t, mr.Exists(cacheKey(occurrence.ID)))
}

func TestOccurrenceCache_StaleSnapshotAfterInvalidateIsSkipped(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	// Параллельный GET прочитал версию 1 до обновления, обновление записало версию 2
	require.NoError(t, cache.Invalidate(ctx, id, 2))
	require.NoError(t, cache.Set(ctx, &models.Occurrence{ID: id, Status: models.StatusNew, Photos: []string{}, Version: 1}))

	assert.False(t, mr.Exists(cacheKey(id)))
	cached, err := cache.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, cached)

	// Актуальная версия снова кешируется
	require.NoError(t, cache.Set(ctx, &models.Occurrence{ID: id, Status: models.StatusInProgress, Photos: []string{}, Version: 2}))
	cached, err = cache.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 2, cached.Version)
	assert.Equal(t, models.StatusInProgress, cached.Status)
}

func TestOccurrenceCache_FenceNeverMovesBackwards(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, cache.Invalidate(ctx, id, 5))
	require.NoError(t, cache.Invalidate(ctx, id, 3))

	fence, err := mr.Get(fenceKey(id))
	require.NoError(t, err)
	assert.Equal(t, "5", fence)
	assert.Equal(t, 5*time.Minute, mr.TTL(fenceKey(id)))

	require.NoError(t, cache.Set(ctx, &models.Occurrence{ID: id, Photos: []string{}, Version: 4}))
	assert.False(t, mr.Exists(cacheKey(id)))
}

func TestOccurrenceCache_Expires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	occurrence := &models.Occurrence{ID: uuid.New(), Photos: []string{}}

	require.NoError(t, cache.Set(ctx, occurrence))
	mr.FastForward(6 * time.Minute)

	cached, err := cache.Get(ctx, occurrence.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestOccurrenceCache_CorruptedEntry(t *testing.T) {
	cache, mr := newTestCache(t)
	id := uuid.New()
	require.NoError(t, mr.Set(cacheKey(id), "{not json"))

	cached, err := cache.Get(context.Background(), id)

	assert.Nil(t, cached)
	assert.ErrorContains(t, err, "unmarshal")
}

func TestOccurrenceCache_RedisDown(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewOccurrenceCache(client, time.Minute)
	mr.Close()

	_, err := cache.Get(context.Background(), uuid.New())

	assert.Error(t, err)
}

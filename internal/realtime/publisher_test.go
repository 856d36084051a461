package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisPublisher_PublishesToChannel(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()
	publisher := NewRedisPublisher(client, "occurrences:events", false)

	sub := client.Subscribe(ctx, "occurrences:events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event, err := NewEvent("occurrence:new", map[string]string{"id": "1"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "occurrence:new", got.Name)
		assert.JSONEq(t, `{"id":"1"}`, string(got.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}

	// Без вебхука очередь не наполняется
	assert.False(t, mr.Exists(webhookQueueKey))
}

func TestRedisPublisher_QueuesWebhook(t *testing.T) {
	client, mr := newTestRedis(t)
	publisher := NewRedisPublisher(client, "occurrences:events", true)

	event, err := NewEvent("occurrence:update", map[string]int{"version": 3})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), event))

	queued, err := mr.List(webhookQueueKey)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &got))
	assert.Equal(t, "occurrence:update", got.Name)
}

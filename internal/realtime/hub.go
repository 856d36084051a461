package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const clientBufferSize = 32

// Hub слушает канал Redis и раздает события подключенным SSE-клиентам.
// Каждый экземпляр API держит свой Hub, поэтому событие, опубликованное
// любым экземпляром, доходит до всех клиентов.
type Hub struct {
	redisClient *redis.Client
	channel     string
	logger      *logrus.Logger

	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

// NewHub создает новый Hub
func NewHub(redisClient *redis.Client, channel string, logger *logrus.Logger) *Hub {
	return &Hub{
		redisClient: redisClient,
		channel:     channel,
		logger:      logger,
		clients:     make(map[chan Event]struct{}),
	}
}

// Run подписывается на канал и блокируется до отмены контекста
func (h *Hub) Run(ctx context.Context) error {
	log := h.logger.WithFields(logrus.Fields{"service": "hub", "channel": h.channel})

	sub := h.redisClient.Subscribe(ctx, h.channel)
	defer sub.Close()

	// Дожидаемся подтверждения подписки
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", h.channel, err)
	}
	log.Info("Event hub subscribed")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping event hub.")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.WithError(err).Warn("Failed to decode event from channel")
				continue
			}
			h.broadcast(event)
		}
	}
}

func (h *Hub) subscribe() chan Event {
	events := make(chan Event, clientBufferSize)
	h.mu.Lock()
	h.clients[events] = struct{}{}
	h.mu.Unlock()
	return events
}

func (h *Hub) unsubscribe(events chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[events]; ok {
		delete(h.clients, events)
		close(events)
	}
}

// broadcast не блокируется: медленный клиент теряет событие
func (h *Hub) broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for events := range h.clients {
		select {
		case events <- event:
		default:
			h.logger.WithField("event", event.Name).Warn("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close отключает всех клиентов
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for events := range h.clients {
		delete(h.clients, events)
		close(events)
	}
}

// Handler возвращает gin-обработчик SSE-потока
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		events := h.subscribe()
		defer h.unsubscribe(events)

		c.SSEvent("connected", gin.H{"clients": h.ClientCount()})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				c.SSEvent(event.Name, string(event.Payload))
				c.Writer.Flush()
			}
		}
	}
}

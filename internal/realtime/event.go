// Package realtime рассылает события жизненного цикла происшествий:
// через Redis pub/sub в SSE-поток и через очередь Redis во внешний вебхук.
package realtime

import (
	"encoding/json"
	"time"
)

// Event - событие, публикуемое подписчикам
type Event struct {
	Name      string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent сериализует payload в событие с текущим временем
func NewEvent(name string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Payload: raw, Timestamp: time.Now().UTC()}, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry - неизменяемая запись о смене статуса
type HistoryEntry struct {
	ID             int64     `json:"id"`
	OccurrenceID   uuid.UUID `json:"occurrence_id"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	Note           *string   `json:"note,omitempty"`
	ActorID        uuid.UUID `json:"actor_id"`
	CreatedAt      time.Time `json:"created_at"`
}

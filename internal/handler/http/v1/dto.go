package v1

import (
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/google/uuid"
)

// CreateOccurrenceRequest DTO для регистрации происшествия
// @Description DTO для регистрации происшествия; без координат адрес геокодируется
type CreateOccurrenceRequest struct {
	Type        string   `json:"type" validate:"required,oneof=FIRE RESCUE MEDICAL_EMERGENCY TRAFFIC_ACCIDENT HAZMAT FLOOD STRUCTURAL_COLLAPSE OTHER"`
	Location    string   `json:"location" validate:"required,max=255"`
	Address     string   `json:"address" validate:"required,max=500"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=NEW UNDER_REVIEW IN_PROGRESS RESOLVED"`
	Priority    *string  `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	AssigneeID  *string  `json:"assignee_id,omitempty" validate:"omitempty,uuid"`
	Photos      []string `json:"photos,omitempty" validate:"omitempty,max=20,dive,required,max=500"`
}

// UpdateOccurrenceRequest DTO для частичного обновления происшествия
// @Description Передаются только изменяемые поля
type UpdateOccurrenceRequest struct {
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=NEW UNDER_REVIEW IN_PROGRESS RESOLVED"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	AssigneeID  *string `json:"assignee_id,omitempty" validate:"omitempty,uuid"`
	Note        *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// OccurrenceQuery - параметры списка и статистики
type OccurrenceQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=NEW UNDER_REVIEW IN_PROGRESS RESOLVED"`
	Type     string `form:"type" validate:"omitempty,oneof=FIRE RESCUE MEDICAL_EMERGENCY TRAFFIC_ACCIDENT HAZMAT FLOOD STRUCTURAL_COLLAPSE OTHER"`
	Priority string `form:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	From     string `form:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To       string `form:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// ActorResponse DTO с данными сотрудника
// @Description Автор или ответственный за происшествие
type ActorResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

// OccurrenceResponse DTO для ответа с информацией о происшествии
// @Description DTO для ответа с информацией о происшествии
type OccurrenceResponse struct {
	ID                  uuid.UUID      `json:"id"`
	Type                string         `json:"type"`
	Location            string         `json:"location"`
	Address             string         `json:"address"`
	Latitude            float64        `json:"latitude"`
	Longitude           float64        `json:"longitude"`
	Status              string         `json:"status"`
	Priority            string         `json:"priority"`
	Description         *string        `json:"description,omitempty"`
	OccurredAt          time.Time      `json:"occurred_at"`
	RespondedAt         *time.Time     `json:"responded_at,omitempty"`
	ResolvedAt          *time.Time     `json:"resolved_at,omitempty"`
	ResponseTimeMinutes *int           `json:"response_time_minutes,omitempty"`
	Photos              []string       `json:"photos"`
	Version             int            `json:"version"`
	CreatedBy           *ActorResponse `json:"created_by,omitempty"`
	Assignee            *ActorResponse `json:"assignee,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// HistoryEntryResponse DTO записи истории статусов
// @Description Смена статуса происшествия
type HistoryEntryResponse struct {
	ID             int64     `json:"id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Note           *string   `json:"note,omitempty"`
	ActorID        uuid.UUID `json:"actor_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// OccurrenceDetailsResponse DTO происшествия с историей
// @Description Происшествие и его история от новых записей к старым
type OccurrenceDetailsResponse struct {
	OccurrenceResponse
	History []*HistoryEntryResponse `json:"history"`
}

// StatsResponse DTO для ответа со статистикой
// @Description Агрегаты на момент запроса
type StatsResponse struct {
	Total               int                           `json:"total"`
	ByStatus            map[models.Status]int         `json:"by_status"`
	ByType              map[models.OccurrenceType]int `json:"by_type"`
	ByPriority          map[models.Priority]int       `json:"by_priority"`
	AverageResponseTime int                           `json:"average_response_time"`
}

// Pagination - метаданные страницы
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Response - общий конверт ответа API
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

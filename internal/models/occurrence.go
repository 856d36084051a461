package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOccurrenceNotFound = errors.New("occurrence not found")
	ErrVersionConflict    = errors.New("occurrence was modified concurrently")
)

// OccurrenceType - категория происшествия
type OccurrenceType string

const (
	TypeFire               OccurrenceType = "FIRE"
	TypeRescue             OccurrenceType = "RESCUE"
	TypeMedicalEmergency   OccurrenceType = "MEDICAL_EMERGENCY"
	TypeTrafficAccident    OccurrenceType = "TRAFFIC_ACCIDENT"
	TypeHazmat             OccurrenceType = "HAZMAT"
	TypeFlood              OccurrenceType = "FLOOD"
	TypeStructuralCollapse OccurrenceType = "STRUCTURAL_COLLAPSE"
	TypeOther              OccurrenceType = "OTHER"
)

var OccurrenceTypes = []OccurrenceType{
	TypeFire, TypeRescue, TypeMedicalEmergency, TypeTrafficAccident,
	TypeHazmat, TypeFlood, TypeStructuralCollapse, TypeOther,
}

func (t OccurrenceType) Valid() bool {
	for _, known := range OccurrenceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Status - этап жизненного цикла происшествия
type Status string

const (
	StatusNew         Status = "NEW"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusResolved    Status = "RESOLVED"
)

var Statuses = []Status{StatusNew, StatusUnderReview, StatusInProgress, StatusResolved}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// ActorSummary - отображаемые данные сотрудника (автор или ответственный)
type ActorSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

// Occurrence - происшествие, зарегистрированное диспетчерской
type Occurrence struct {
	ID                  uuid.UUID      `json:"id"`
	Type                OccurrenceType `json:"type"`
	Location            string         `json:"location"`
	Address             string         `json:"address"`
	Latitude            float64        `json:"latitude"`
	Longitude           float64        `json:"longitude"`
	Status              Status         `json:"status"`
	Priority            Priority       `json:"priority"`
	Description         *string        `json:"description,omitempty"`
	CreatedByID         uuid.UUID      `json:"created_by_id"`
	AssigneeID          *uuid.UUID     `json:"assignee_id,omitempty"`
	OccurredAt          time.Time      `json:"occurred_at"`
	RespondedAt         *time.Time     `json:"responded_at,omitempty"`
	ResolvedAt          *time.Time     `json:"resolved_at,omitempty"`
	ResponseTimeMinutes *int           `json:"response_time_minutes,omitempty"`
	Photos              []string       `json:"photos"`
	Version             int            `json:"version"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`

	CreatedBy *ActorSummary `json:"created_by,omitempty"`
	Assignee  *ActorSummary `json:"assignee,omitempty"`
}

// Coordinates - пара широта/долгота
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreateOccurrenceInput - данные для регистрации происшествия.
// Координаты необязательны: при их отсутствии адрес геокодируется.
type CreateOccurrenceInput struct {
	Type        OccurrenceType
	Location    string
	Address     string
	Latitude    *float64
	Longitude   *float64
	Status      *Status
	Priority    *Priority
	Description *string
	AssigneeID  *uuid.UUID
	Photos      []string
}

// OccurrencePatch - частичное обновление: nil означает "поле не передано"
type OccurrencePatch struct {
	Status      *Status
	Priority    *Priority
	Description *string
	AssigneeID  *uuid.UUID
	Note        *string
}

// OccurrenceFilter - фильтры для списка и статистики
type OccurrenceFilter struct {
	Status   *Status
	Type     *OccurrenceType
	Priority *Priority
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

// OccurrenceDetails - происшествие вместе с историей статусов
type OccurrenceDetails struct {
	Occurrence *Occurrence     `json:"occurrence"`
	History    []*HistoryEntry `json:"history"`
}

// Actor - кто выполняет операцию и откуда пришел запрос
type Actor struct {
	ID        uuid.UUID
	IP        string
	UserAgent string
}

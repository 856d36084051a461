package service

//go:generate mockgen -source=history.go -destination=mocks/history_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HistoryRepository - хранилище истории статусов, только добавление и чтение
type HistoryRepository interface {
	Create(ctx context.Context, entry *models.HistoryEntry) error
	ListByOccurrence(ctx context.Context, occurrenceID uuid.UUID) ([]*models.HistoryEntry, error)
}

// HistoryRecorder ведет неизменяемую историю смен статуса
type HistoryRecorder interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
	// List возвращает записи от новых к старым
	List(ctx context.Context, occurrenceID uuid.UUID) ([]*models.HistoryEntry, error)
}

type historyRecorder struct {
	repo   HistoryRepository
	logger *logrus.Logger
}

func NewHistoryRecorder(repo HistoryRepository, logger *logrus.Logger) HistoryRecorder {
	return &historyRecorder{repo: repo, logger: logger}
}

func (r *historyRecorder) Record(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.OccurrenceID == uuid.Nil {
		return fmt.Errorf("history entry without occurrence id")
	}
	if entry.PreviousStatus == entry.NewStatus {
		return fmt.Errorf("history entry for unchanged status %s", entry.NewStatus)
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("service: could not record history: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"service":         "history",
		"occurrence_id":   entry.OccurrenceID,
		"previous_status": entry.PreviousStatus,
		"new_status":      entry.NewStatus,
	}).Info("Status change recorded")
	return nil
}

func (r *historyRecorder) List(ctx context.Context, occurrenceID uuid.UUID) ([]*models.HistoryEntry, error) {
	entries, err := r.repo.ListByOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("service: could not list history: %w", err)
	}
	return entries, nil
}

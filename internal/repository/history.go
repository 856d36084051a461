package repository

import (
	"context"
	"fmt"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) service.HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create добавляет запись о смене статуса; записи истории не изменяются
func (r *HistoryRepository) Create(ctx context.Context, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO occurrence_history (occurrence_id, previous_status, new_status, note, actor_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at;
	`
	err := conn(ctx, r.db).QueryRow(ctx, query,
		entry.OccurrenceID,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.Note,
		entry.ActorID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

// ListByOccurrence возвращает историю происшествия от новых записей к старым
func (r *HistoryRepository) ListByOccurrence(ctx context.Context, occurrenceID uuid.UUID) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, occurrence_id, previous_status, new_status, note, actor_id, created_at
		FROM occurrence_history
		WHERE occurrence_id = $1
		ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.db.Query(ctx, query, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.HistoryEntry, 0)
	for rows.Next() {
		entry := &models.HistoryEntry{}
		if err := rows.Scan(
			&entry.ID,
			&entry.OccurrenceID,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.Note,
			&entry.ActorID,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error history iteration: %w", err)
	}
	return entries, nil
}

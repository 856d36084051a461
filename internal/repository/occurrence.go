package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// selectOccurrence - общая выборка происшествия с данными автора и ответственного
const selectOccurrence = `
	SELECT
		o.id,
		o.type,
		o.location,
		o.address,
		o.latitude,
		o.longitude,
		o.status,
		o.priority,
		o.description,
		o.created_by_id,
		o.assignee_id,
		o.occurred_at,
		o.responded_at,
		o.resolved_at,
		o.response_time_minutes,
		o.photos,
		o.version,
		o.created_at,
		o.updated_at,
		cu.name,
		cu.email,
		cu.role,
		cu.phone,
		au.name,
		au.email,
		au.role,
		au.phone
	FROM occurrences o
	LEFT JOIN users cu ON cu.id = o.created_by_id
	LEFT JOIN users au ON au.id = o.assignee_id
`

type OccurrenceRepository struct {
	db *pgxpool.Pool
}

func NewOccurrenceRepository(db *pgxpool.Pool) service.OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

// Create создает новую запись о происшествии в бд
func (r *OccurrenceRepository) Create(ctx context.Context, occurrence *models.Occurrence) error {
	query := `
		INSERT INTO occurrences (
			id, type, location, address, latitude, longitude, status, priority,
			description, created_by_id, assignee_id, occurred_at, photos
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING version, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		occurrence.ID,
		occurrence.Type,
		occurrence.Location,
		occurrence.Address,
		occurrence.Latitude,
		occurrence.Longitude,
		occurrence.Status,
		occurrence.Priority,
		occurrence.Description,
		occurrence.CreatedByID,
		occurrence.AssigneeID,
		occurrence.OccurredAt,
		occurrence.Photos,
	).Scan(&occurrence.Version, &occurrence.CreatedAt, &occurrence.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create occurrence: %w", err)
	}
	return nil
}

// GetByID возвращает происшествие по его UUID
func (r *OccurrenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Occurrence, error) {
	occurrence, err := scanOccurrence(r.db.QueryRow(ctx, selectOccurrence+` WHERE o.id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOccurrenceNotFound
		}
		return nil, fmt.Errorf("failed to get occurrence by id: %w", err)
	}
	return occurrence, nil
}

// Update сохраняет изменяемые поля, если версия в бд совпадает с прочитанной
func (r *OccurrenceRepository) Update(ctx context.Context, occurrence *models.Occurrence) error {
	query := `
		UPDATE occurrences SET
			status = $1,
			priority = $2,
			description = $3,
			assignee_id = $4,
			responded_at = $5,
			resolved_at = $6,
			response_time_minutes = $7,
			updated_at = $8,
			version = version + 1
		WHERE id = $9 AND version = $10
		RETURNING version;
	`
	db := conn(ctx, r.db)
	err := db.QueryRow(ctx, query,
		occurrence.Status,
		occurrence.Priority,
		occurrence.Description,
		occurrence.AssigneeID,
		occurrence.RespondedAt,
		occurrence.ResolvedAt,
		occurrence.ResponseTimeMinutes,
		occurrence.UpdatedAt,
		occurrence.ID,
		occurrence.Version,
	).Scan(&occurrence.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update occurrence: %w", err)
	}

	// Ни одна строка не обновлена: записи нет либо версия устарела
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM occurrences WHERE id = $1);`, occurrence.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check occurrence existence: %w", err)
	}
	if !exists {
		return models.ErrOccurrenceNotFound
	}
	return models.ErrVersionConflict
}

// Delete удаляет происшествие; история удаляется каскадно
func (r *OccurrenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM occurrences WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete occurrence: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrOccurrenceNotFound
	}
	return nil
}

// List возвращает страницу происшествий по фильтру и общее количество подходящих записей
func (r *OccurrenceRepository) List(ctx context.Context, filter models.OccurrenceFilter) ([]*models.Occurrence, int, error) {
	where, args := whereClause(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM occurrences o `+where+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count occurrences: %w", err)
	}

	// рассчитываем смещение
	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf("%s %s ORDER BY o.occurred_at DESC LIMIT $%d OFFSET $%d;",
		selectOccurrence, where, len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, query, append(args, filter.Limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list occurrences: %w", err)
	}
	defer rows.Close()

	occurrences := make([]*models.Occurrence, 0)
	for rows.Next() {
		occurrence, err := scanOccurrence(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan occurrence row: %w", err)
		}
		occurrences = append(occurrences, occurrence)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error list iteration: %w", err)
	}
	return occurrences, total, nil
}

// scanOccurrence читает строку selectOccurrence; подходит и для pgx.Row, и для pgx.Rows
func scanOccurrence(row pgx.Row) (*models.Occurrence, error) {
	occurrence := &models.Occurrence{}
	var creator, assignee nullableActor
	err := row.Scan(
		&occurrence.ID,
		&occurrence.Type,
		&occurrence.Location,
		&occurrence.Address,
		&occurrence.Latitude,
		&occurrence.Longitude,
		&occurrence.Status,
		&occurrence.Priority,
		&occurrence.Description,
		&occurrence.CreatedByID,
		&occurrence.AssigneeID,
		&occurrence.OccurredAt,
		&occurrence.RespondedAt,
		&occurrence.ResolvedAt,
		&occurrence.ResponseTimeMinutes,
		&occurrence.Photos,
		&occurrence.Version,
		&occurrence.CreatedAt,
		&occurrence.UpdatedAt,
		&creator.Name,
		&creator.Email,
		&creator.Role,
		&creator.Phone,
		&assignee.Name,
		&assignee.Email,
		&assignee.Role,
		&assignee.Phone,
	)
	if err != nil {
		return nil, err
	}

	if occurrence.Photos == nil {
		occurrence.Photos = []string{}
	}
	occurrence.CreatedBy = creator.summary(occurrence.CreatedByID)
	if occurrence.AssigneeID != nil {
		occurrence.Assignee = assignee.summary(*occurrence.AssigneeID)
	}
	return occurrence, nil
}

// nullableActor - колонки users из LEFT JOIN, которые могут быть NULL
type nullableActor struct {
	Name  *string
	Email *string
	Role  *string
	Phone *string
}

func (a nullableActor) summary(id uuid.UUID) *models.ActorSummary {
	if a.Name == nil && a.Email == nil {
		return nil
	}
	return &models.ActorSummary{
		ID:    id,
		Name:  deref(a.Name),
		Email: deref(a.Email),
		Role:  deref(a.Role),
		Phone: deref(a.Phone),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) service.AuditRepository {
	return &AuditRepository{db: db}
}

// Create сохраняет запись журнала аудита; details хранится как jsonb
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, details, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, '')) RETURNING id, created_at;
	`
	err = conn(ctx, r.db).QueryRow(ctx, query,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		details,
		entry.IP,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

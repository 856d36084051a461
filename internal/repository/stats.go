package repository

import (
	"context"
	"fmt"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) service.StatsRepository {
	return &StatsRepository{db: db}
}

// Count возвращает количество происшествий по фильтру
func (r *StatsRepository) Count(ctx context.Context, filter models.OccurrenceFilter) (int, error) {
	where, args := whereClause(filter)
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM occurrences o `+where+`;`, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count occurrences: %w", err)
	}
	return count, nil
}

func (r *StatsRepository) CountByStatus(ctx context.Context, filter models.OccurrenceFilter) (map[models.Status]int, error) {
	counts, err := r.countBy(ctx, "status", filter)
	if err != nil {
		return nil, err
	}
	result := make(map[models.Status]int, len(counts))
	for key, count := range counts {
		result[models.Status(key)] = count
	}
	return result, nil
}

func (r *StatsRepository) CountByType(ctx context.Context, filter models.OccurrenceFilter) (map[models.OccurrenceType]int, error) {
	counts, err := r.countBy(ctx, "type", filter)
	if err != nil {
		return nil, err
	}
	result := make(map[models.OccurrenceType]int, len(counts))
	for key, count := range counts {
		result[models.OccurrenceType(key)] = count
	}
	return result, nil
}

func (r *StatsRepository) CountByPriority(ctx context.Context, filter models.OccurrenceFilter) (map[models.Priority]int, error) {
	counts, err := r.countBy(ctx, "priority", filter)
	if err != nil {
		return nil, err
	}
	result := make(map[models.Priority]int, len(counts))
	for key, count := range counts {
		result[models.Priority(key)] = count
	}
	return result, nil
}

// ResponseTimeSample возвращает сумму и количество заполненных времен реагирования
func (r *StatsRepository) ResponseTimeSample(ctx context.Context, filter models.OccurrenceFilter) (models.ResponseTimeSample, error) {
	where, args := whereClause(filter)
	query := `
		SELECT COALESCE(SUM(o.response_time_minutes), 0), COUNT(o.response_time_minutes)
		FROM occurrences o ` + where + `;`

	var sample models.ResponseTimeSample
	if err := r.db.QueryRow(ctx, query, args...).Scan(&sample.SumMinutes, &sample.Count); err != nil {
		return models.ResponseTimeSample{}, fmt.Errorf("failed to get response time sample: %w", err)
	}
	return sample, nil
}

// countBy группирует происшествия по колонке; column берется только из констант выше
func (r *StatsRepository) countBy(ctx context.Context, column string, filter models.OccurrenceFilter) (map[string]int, error) {
	where, args := whereClause(filter)
	query := fmt.Sprintf(`SELECT o.%[1]s, COUNT(*) FROM occurrences o %[2]s GROUP BY o.%[1]s;`, column, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count occurrences by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error %s count iteration: %w", column, err)
	}
	return counts, nil
}

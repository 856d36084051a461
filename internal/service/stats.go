package service

//go:generate mockgen -source=stats.go -destination=mocks/stats_mock.go -package=mocks

import (
	"context"
	"fmt"
	"math"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"golang.org/x/sync/errgroup"
)

// StatsRepository - групповые запросы для статистики
type StatsRepository interface {
	Count(ctx context.Context, filter models.OccurrenceFilter) (int, error)
	CountByStatus(ctx context.Context, filter models.OccurrenceFilter) (map[models.Status]int, error)
	CountByType(ctx context.Context, filter models.OccurrenceFilter) (map[models.OccurrenceType]int, error)
	CountByPriority(ctx context.Context, filter models.OccurrenceFilter) (map[models.Priority]int, error)
	ResponseTimeSample(ctx context.Context, filter models.OccurrenceFilter) (models.ResponseTimeSample, error)
}

// StatsAggregator считает агрегаты заново при каждом вызове, без кеша
type StatsAggregator interface {
	Summarize(ctx context.Context, filter models.OccurrenceFilter) (*models.OccurrenceStats, error)
}

type statsAggregator struct {
	repo StatsRepository
}

func NewStatsAggregator(repo StatsRepository) StatsAggregator {
	return &statsAggregator{repo: repo}
}

func (a *statsAggregator) Summarize(ctx context.Context, filter models.OccurrenceFilter) (*models.OccurrenceStats, error) {
	var (
		total      int
		byStatus   map[models.Status]int
		byType     map[models.OccurrenceType]int
		byPriority map[models.Priority]int
		sample     models.ResponseTimeSample
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = a.repo.Count(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = a.repo.CountByStatus(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		byType, err = a.repo.CountByType(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		byPriority, err = a.repo.CountByPriority(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		sample, err = a.repo.ResponseTimeSample(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service: could not summarize occurrences: %w", err)
	}

	stats := &models.OccurrenceStats{
		Total:               total,
		ByStatus:            make(map[models.Status]int, len(models.Statuses)),
		ByType:              make(map[models.OccurrenceType]int, len(byType)),
		ByPriority:          make(map[models.Priority]int, len(models.Priorities)),
		AverageResponseTime: averageMinutes(sample),
	}
	// Все известные статусы и приоритеты присутствуют в ответе, даже с нулем
	for _, status := range models.Statuses {
		stats.ByStatus[status] = 0
	}
	for status, count := range byStatus {
		stats.ByStatus[status] = count
	}
	for _, priority := range models.Priorities {
		stats.ByPriority[priority] = 0
	}
	for priority, count := range byPriority {
		stats.ByPriority[priority] = count
	}
	for occurrenceType, count := range byType {
		stats.ByType[occurrenceType] = count
	}
	return stats, nil
}

// averageMinutes округляет среднее до целого; без данных - 0
func averageMinutes(sample models.ResponseTimeSample) int {
	if sample.Count == 0 {
		return 0
	}
	return int(math.Round(float64(sample.SumMinutes) / float64(sample.Count)))
}

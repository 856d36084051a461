package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestStatsAggregator(t *testing.T) (StatsAggregator, *mocks.MockStatsRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatsRepository(ctrl)
	return NewStatsAggregator(repo), repo
}

func TestStatsAggregator_Summarize(t *testing.T) {
	aggregator, repo := newTestStatsAggregator(t)
	filter := models.OccurrenceFilter{}

	repo.EXPECT().Count(gomock.Any(), filter).Return(5, nil).Times(1)
	repo.EXPECT().CountByStatus(gomock.Any(), filter).Return(map[models.Status]int{
		models.StatusNew:      2,
		models.StatusResolved: 3,
	}, nil).Times(1)
	repo.EXPECT().CountByType(gomock.Any(), filter).Return(map[models.OccurrenceType]int{
		models.TypeFire:   4,
		models.TypeRescue: 1,
	}, nil).Times(1)
	repo.EXPECT().CountByPriority(gomock.Any(), filter).Return(map[models.Priority]int{
		models.PriorityHigh: 5,
	}, nil).Times(1)
	// 31 / 2 = 15.5 -> 16
	repo.EXPECT().ResponseTimeSample(gomock.Any(), filter).Return(models.ResponseTimeSample{SumMinutes: 31, Count: 2}, nil).Times(1)

	stats, err := aggregator.Summarize(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, map[models.Status]int{
		models.StatusNew:         2,
		models.StatusUnderReview: 0,
		models.StatusInProgress:  0,
		models.StatusResolved:    3,
	}, stats.ByStatus)
	assert.Equal(t, map[models.OccurrenceType]int{models.TypeFire: 4, models.TypeRescue: 1}, stats.ByType)
	assert.Equal(t, 5, stats.ByPriority[models.PriorityHigh])
	assert.Equal(t, 0, stats.ByPriority[models.PriorityLow])
	assert.Len(t, stats.ByPriority, len(models.Priorities))
	assert.Equal(t, 16, stats.AverageResponseTime)
}

func TestStatsAggregator_EmptySet(t *testing.T) {
	aggregator, repo := newTestStatsAggregator(t)

	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil).Times(1)
	repo.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).Return(map[models.Status]int{}, nil).Times(1)
	repo.EXPECT().CountByType(gomock.Any(), gomock.Any()).Return(map[models.OccurrenceType]int{}, nil).Times(1)
	repo.EXPECT().CountByPriority(gomock.Any(), gomock.Any()).Return(map[models.Priority]int{}, nil).Times(1)
	repo.EXPECT().ResponseTimeSample(gomock.Any(), gomock.Any()).Return(models.ResponseTimeSample{}, nil).Times(1)

	stats, err := aggregator.Summarize(context.Background(), models.OccurrenceFilter{})

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.AverageResponseTime)
	assert.Empty(t, stats.ByType)
	for _, status := range models.Statuses {
		assert.Equal(t, 0, stats.ByStatus[status])
	}
}

func TestStatsAggregator_RepositoryError(t *testing.T) {
	aggregator, repo := newTestStatsAggregator(t)
	dbErr := errors.New("query canceled")

	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, dbErr).AnyTimes()
	repo.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	repo.EXPECT().CountByType(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	repo.EXPECT().CountByPriority(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	repo.EXPECT().ResponseTimeSample(gomock.Any(), gomock.Any()).Return(models.ResponseTimeSample{}, nil).AnyTimes()

	stats, err := aggregator.Summarize(context.Background(), models.OccurrenceFilter{})

	assert.Nil(t, stats)
	assert.ErrorIs(t, err, dbErr)
}

func TestAverageMinutes(t *testing.T) {
	assert.Equal(t, 0, averageMinutes(models.ResponseTimeSample{}))
	assert.Equal(t, 10, averageMinutes(models.ResponseTimeSample{SumMinutes: 20, Count: 2}))
	assert.Equal(t, 3, averageMinutes(models.ResponseTimeSample{SumMinutes: 10, Count: 3}))
}

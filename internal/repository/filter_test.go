package repository

import (
	"testing"
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestWhereClause_Empty(t *testing.T) {
	where, args := whereClause(models.OccurrenceFilter{Page: 2, Limit: 10})

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestWhereClause_AllFilters(t *testing.T) {
	status := models.StatusResolved
	occurrenceType := models.TypeFire
	priority := models.PriorityCritical
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	where, args := whereClause(models.OccurrenceFilter{
		Status:   &status,
		Type:     &occurrenceType,
		Priority: &priority,
		From:     &from,
		To:       &to,
	})

	assert.Equal(t, "WHERE o.status = $1 AND o.type = $2 AND o.priority = $3 AND o.occurred_at >= $4 AND o.occurred_at <= $5", where)
	assert.Equal(t, []any{"RESOLVED", "FIRE", "CRITICAL", from, to}, args)
}

func TestWhereClause_PartialFilters(t *testing.T) {
	priority := models.PriorityLow
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	where, args := whereClause(models.OccurrenceFilter{Priority: &priority, To: &to})

	assert.Equal(t, "WHERE o.priority = $1 AND o.occurred_at <= $2", where)
	assert.Equal(t, []any{"LOW", to}, args)
}

package repository

import (
	"fmt"
	"strings"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
)

// whereClause строит условие WHERE по фильтру; плейсхолдеры нумеруются с 1.
// Колонки берутся с алиасом "o" таблицы occurrences.
func whereClause(filter models.OccurrenceFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	add := func(expr string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.Status != nil {
		add("o.status = $%d", string(*filter.Status))
	}
	if filter.Type != nil {
		add("o.type = $%d", string(*filter.Type))
	}
	if filter.Priority != nil {
		add("o.priority = $%d", string(*filter.Priority))
	}
	if filter.From != nil {
		add("o.occurred_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("o.occurred_at <= $%d", *filter.To)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

package models

// OccurrenceStats - снимок агрегатов по происшествиям на момент запроса
type OccurrenceStats struct {
	Total               int                    `json:"total"`
	ByStatus            map[Status]int         `json:"by_status"`
	ByType              map[OccurrenceType]int `json:"by_type"`
	ByPriority          map[Priority]int       `json:"by_priority"`
	AverageResponseTime int                    `json:"average_response_time"` // в минутах
}

// ResponseTimeSample - сумма и количество заполненных времен реагирования
type ResponseTimeSample struct {
	SumMinutes int64
	Count      int64
}

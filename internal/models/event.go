package models

// Имена событий жизненного цикла, рассылаемых подписчикам
const (
	EventOccurrenceCreated = "occurrence:new"
	EventOccurrenceUpdated = "occurrence:update"
	EventOccurrenceDeleted = "occurrence:delete"
)

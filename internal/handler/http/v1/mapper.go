package v1

import (
	"fmt"
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/google/uuid"
)

// CreateRequestToInput преобразует DTO создания в входные данные сервиса
func CreateRequestToInput(dto CreateOccurrenceRequest) (models.CreateOccurrenceInput, error) {
	input := models.CreateOccurrenceInput{
		Type:        models.OccurrenceType(dto.Type),
		Location:    dto.Location,
		Address:     dto.Address,
		Latitude:    dto.Latitude,
		Longitude:   dto.Longitude,
		Description: dto.Description,
		Photos:      dto.Photos,
	}
	if dto.Status != nil {
		status := models.Status(*dto.Status)
		input.Status = &status
	}
	if dto.Priority != nil {
		priority := models.Priority(*dto.Priority)
		input.Priority = &priority
	}
	if dto.AssigneeID != nil {
		id, err := uuid.Parse(*dto.AssigneeID)
		if err != nil {
			return input, fmt.Errorf("invalid assignee_id: %w", err)
		}
		input.AssigneeID = &id
	}
	return input, nil
}

// UpdateRequestToPatch преобразует DTO обновления в патч; отсутствующие поля остаются nil
func UpdateRequestToPatch(dto UpdateOccurrenceRequest) (models.OccurrencePatch, error) {
	patch := models.OccurrencePatch{
		Description: dto.Description,
		Note:        dto.Note,
	}
	if dto.Status != nil {
		status := models.Status(*dto.Status)
		patch.Status = &status
	}
	if dto.Priority != nil {
		priority := models.Priority(*dto.Priority)
		patch.Priority = &priority
	}
	if dto.AssigneeID != nil {
		id, err := uuid.Parse(*dto.AssigneeID)
		if err != nil {
			return patch, fmt.Errorf("invalid assignee_id: %w", err)
		}
		patch.AssigneeID = &id
	}
	return patch, nil
}

// QueryToFilter преобразует параметры запроса в фильтр
func QueryToFilter(query OccurrenceQuery) (models.OccurrenceFilter, error) {
	filter := models.OccurrenceFilter{Page: query.Page, Limit: query.Limit}
	if query.Status != "" {
		status := models.Status(query.Status)
		filter.Status = &status
	}
	if query.Type != "" {
		occurrenceType := models.OccurrenceType(query.Type)
		filter.Type = &occurrenceType
	}
	if query.Priority != "" {
		priority := models.Priority(query.Priority)
		filter.Priority = &priority
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			return filter, fmt.Errorf("invalid from: %w", err)
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			return filter, fmt.Errorf("invalid to: %w", err)
		}
		filter.To = &to
	}
	return filter, nil
}

func actorToResponse(actor *models.ActorSummary) *ActorResponse {
	if actor == nil {
		return nil
	}
	return &ActorResponse{
		ID:    actor.ID,
		Name:  actor.Name,
		Email: actor.Email,
		Role:  actor.Role,
		Phone: actor.Phone,
	}
}

// ModelToOccurrenceResponse преобразует доменную модель в DTO для ответа
func ModelToOccurrenceResponse(model *models.Occurrence) *OccurrenceResponse {
	photos := model.Photos
	if photos == nil {
		photos = []string{}
	}
	return &OccurrenceResponse{
		ID:                  model.ID,
		Type:                string(model.Type),
		Location:            model.Location,
		Address:             model.Address,
		Latitude:            model.Latitude,
		Longitude:           model.Longitude,
		Status:              string(model.Status),
		Priority:            string(model.Priority),
		Description:         model.Description,
		OccurredAt:          model.OccurredAt,
		RespondedAt:         model.RespondedAt,
		ResolvedAt:          model.ResolvedAt,
		ResponseTimeMinutes: model.ResponseTimeMinutes,
		Photos:              photos,
		Version:             model.Version,
		CreatedBy:           actorToResponse(model.CreatedBy),
		Assignee:            actorToResponse(model.Assignee),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// ModelsToOccurrenceResponses преобразует слайс моделей в слайс DTO
func ModelsToOccurrenceResponses(models []*models.Occurrence) []*OccurrenceResponse {
	responses := make([]*OccurrenceResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToOccurrenceResponse(model)
	}
	return responses
}

// DetailsToResponse добавляет к происшествию его историю
func DetailsToResponse(details *models.OccurrenceDetails) *OccurrenceDetailsResponse {
	history := make([]*HistoryEntryResponse, len(details.History))
	for i, entry := range details.History {
		history[i] = &HistoryEntryResponse{
			ID:             entry.ID,
			PreviousStatus: string(entry.PreviousStatus),
			NewStatus:      string(entry.NewStatus),
			Note:           entry.Note,
			ActorID:        entry.ActorID,
			CreatedAt:      entry.CreatedAt,
		}
	}
	return &OccurrenceDetailsResponse{
		OccurrenceResponse: *ModelToOccurrenceResponse(details.Occurrence),
		History:            history,
	}
}

func StatsToResponse(stats *models.OccurrenceStats) *StatsResponse {
	return &StatsResponse{
		Total:               stats.Total,
		ByStatus:            stats.ByStatus,
		ByType:              stats.ByType,
		ByPriority:          stats.ByPriority,
		AverageResponseTime: stats.AverageResponseTime,
	}
}

func newPagination(page, limit, total int) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

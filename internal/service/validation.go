package service

import (
	"fmt"
	"strings"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/apperr"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
)

func validateCreateInput(input models.CreateOccurrenceInput) error {
	if strings.TrimSpace(string(input.Type)) == "" || strings.TrimSpace(input.Location) == "" || strings.TrimSpace(input.Address) == "" {
		return apperr.Validation("type, location and address are required")
	}
	if !input.Type.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown occurrence type %q", input.Type))
	}
	if input.Status != nil && !input.Status.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown status %q", *input.Status))
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown priority %q", *input.Priority))
	}
	if input.Latitude != nil && (*input.Latitude < -90 || *input.Latitude > 90) {
		return apperr.Validation("latitude must be between -90 and 90")
	}
	if input.Longitude != nil && (*input.Longitude < -180 || *input.Longitude > 180) {
		return apperr.Validation("longitude must be between -180 and 180")
	}
	return nil
}

func validatePatch(patch models.OccurrencePatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown status %q", *patch.Status))
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown priority %q", *patch.Priority))
	}
	return nil
}

func validateFilter(filter models.OccurrenceFilter) error {
	if filter.Status != nil && !filter.Status.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown status %q", *filter.Status))
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown occurrence type %q", *filter.Type))
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown priority %q", *filter.Priority))
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return apperr.Validation("date range start must not be after its end")
	}
	return nil
}

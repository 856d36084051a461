package v1

import (
	"net/http"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/config"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	occurrenceService service.OccurrenceService
	streamHandler     gin.HandlerFunc
	logger            *logrus.Logger
	validate          *validator.Validate
	cfg               *config.Config
}

func NewHandler(occurrenceService service.OccurrenceService, streamHandler gin.HandlerFunc, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		occurrenceService: occurrenceService,
		streamHandler:     streamHandler,
		logger:            logger,
		validate:          validator.New(),
		cfg:               cfg,
	}
}

// @Summary Create a new occurrence
// @Description Register an occurrence. Coordinates are geocoded from the address when latitude or longitude is missing.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param occurrence body CreateOccurrenceRequest true "Occurrence creation request"
// @Success 201 {object} Response{data=OccurrenceResponse}
// @Failure 400 {object} Response "Invalid request body, validation error or unresolvable address"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 500 {object} Response "Internal server error"
// @Router /occurrences [post]
func (h *Handler) createOccurrence(c *gin.Context) {
	var input CreateOccurrenceRequest
	log := h.logger.WithField("method", "createOccurrence")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, Response{Message: err.Error()})
		return
	}

	model, err := CreateRequestToInput(input)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: err.Error()})
		return
	}

	occurrence, err := h.occurrenceService.CreateOccurrence(c.Request.Context(), model, actorFromContext(c))
	if err != nil {
		respondError(c, log, err)
		return
	}
	respondOK(c, http.StatusCreated, "occurrence created successfully", ModelToOccurrenceResponse(occurrence))
}

// @Summary Get a list of occurrences
// @Description Get a filtered, paginated list of occurrences ordered by occurrence time, newest first.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(NEW, UNDER_REVIEW, IN_PROGRESS, RESOLVED)
// @Param type query string false "Type filter"
// @Param priority query string false "Priority filter" Enums(LOW, MEDIUM, HIGH, CRITICAL)
// @Param from query string false "Occurred at or after (RFC3339)"
// @Param to query string false "Occurred at or before (RFC3339)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Number of items per page" default(50)
// @Success 200 {object} Response{data=[]OccurrenceResponse}
// @Failure 400 {object} Response "Invalid filters"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 500 {object} Response "Internal server error"
// @Router /occurrences [get]
func (h *Handler) listOccurrences(c *gin.Context) {
	log := h.logger.WithField("method", "listOccurrences")

	filter, ok := h.bindFilter(c, log)
	if !ok {
		return
	}

	occurrences, total, err := h.occurrenceService.ListOccurrences(c.Request.Context(), filter)
	if err != nil {
		respondError(c, log, err)
		return
	}

	// Сервис подставляет значения по умолчанию; повторяем их для пагинации
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       ModelsToOccurrenceResponses(occurrences),
		Pagination: newPagination(page, limit, total),
	})
}

// @Summary Get occurrence statistics
// @Description Counts by status, type and priority plus the average response time in minutes.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param priority query string false "Priority filter"
// @Param from query string false "Occurred at or after (RFC3339)"
// @Param to query string false "Occurred at or before (RFC3339)"
// @Success 200 {object} Response{data=StatsResponse}
// @Failure 400 {object} Response "Invalid filters"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 500 {object} Response "Internal server error"
// @Router /occurrences/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	filter, ok := h.bindFilter(c, log)
	if !ok {
		return
	}

	stats, err := h.occurrenceService.GetStats(c.Request.Context(), filter)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respondOK(c, http.StatusOK, "", StatsToResponse(stats))
}

// @Summary Get occurrence by ID
// @Description Get a single occurrence with its status history, newest entry first.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 200 {object} Response{data=OccurrenceDetailsResponse}
// @Failure 400 {object} Response "Invalid occurrence ID"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 404 {object} Response "Occurrence not found"
// @Failure 500 {object} Response "Internal server error"
// @Router /occurrences/{id} [get]
func (h *Handler) getOccurrence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: "invalid occurrence ID"})
		return
	}
	log := h.logger.WithField("method", "getOccurrence").WithField("id", id)

	details, err := h.occurrenceService.GetOccurrence(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	respondOK(c, http.StatusOK, "", DetailsToResponse(details))
}

// @Summary Update an existing occurrence
// @Description Partially update an occurrence. A status change is recorded in the history with the optional note.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Param occurrence body UpdateOccurrenceRequest true "Occurrence update request"
// @Success 200 {object} Response{data=OccurrenceResponse}
// @Failure 400 {object} Response "Invalid occurrence ID or request body"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 404 {object} Response "Occurrence not found"
// @Failure 409 {object} Response "Concurrent modification"
// @Failure 500 {object} Response "Internal server error"
// @Router /occurrences/{id} [put]
func (h *Handler) updateOccurrence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: "invalid occurrence ID"})
		return
	}
	log := h.logger.WithField("method", "updateOccurrence").WithField("id", id)

	var input UpdateOccurrenceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, Response{Message: err.Error()})
		return
	}

	patch, err := UpdateRequestToPatch(input)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: err.Error()})
		return
	}

	occurrence, err := h.occurrenceService.UpdateOccurrence(c.Request.Context(), id, patch, actorFromContext(c))
	if err != nil {
		respondError(c, log, err)
		return
	}
	respondOK(c, http.StatusOK, "occurrence updated successfully", ModelToOccurrenceResponse(occurrence))
}

// @Summary Delete an occurrence
// @Description Delete an occurrence and its history. Requires the delete permission.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response "Invalid occurrence ID"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 403 {object} Response "Forbidden"
// @Failure 404 {object} Response "Occurrence not found"
// @Failure 500 {object} Response "Internal server error"
// @Router /occurrences/{id} [delete]
func (h *Handler) deleteOccurrence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: "invalid occurrence ID"})
		return
	}
	log := h.logger.WithField("method", "deleteOccurrence").WithField("id", id)

	if err := h.occurrenceService.DeleteOccurrence(c.Request.Context(), id, actorFromContext(c)); err != nil {
		respondError(c, log, err)
		return
	}
	respondOK(c, http.StatusOK, "occurrence deleted successfully", nil)
}

// @Summary Stream occurrence events
// @Description Server-Sent Events stream of occurrence:new, occurrence:update and occurrence:delete. The token may be passed as ?token= for EventSource clients.
// @Tags Occurrences
// @Produce text/event-stream
// @Security BearerAuth
// @Param token query string false "Access token"
// @Success 200 {string} string "event stream"
// @Failure 401 {object} Response "Unauthorized"
// @Router /occurrences/stream [get]
func (h *Handler) streamOccurrences(c *gin.Context) {
	h.streamHandler(c)
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindFilter читает и проверяет параметры фильтра; при ошибке ответ уже отправлен
func (h *Handler) bindFilter(c *gin.Context, log *logrus.Entry) (filter models.OccurrenceFilter, ok bool) {
	var query OccurrenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, Response{Message: "invalid query parameters"})
		return filter, false
	}
	if err := h.validate.Struct(query); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, Response{Message: err.Error()})
		return filter, false
	}
	filter, err := QueryToFilter(query)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Message: err.Error()})
		return filter, false
	}
	return filter, true
}

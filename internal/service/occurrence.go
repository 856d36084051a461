package service

//go:generate mockgen -source=occurrence.go -destination=mocks/occurrence_mock.go -package=mocks

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/apperr"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/config"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultPage  = 1
	defaultLimit = 50
	maxLimit     = 100
)

// OccurrenceRepository определяет контракт для работы с бд происшествий
type OccurrenceRepository interface {
	Create(ctx context.Context, occurrence *models.Occurrence) error
	// GetByID возвращает models.ErrOccurrenceNotFound, если записи нет
	GetByID(ctx context.Context, id uuid.UUID) (*models.Occurrence, error)
	// Update пишет запись при совпадении версии и увеличивает ее;
	// иначе возвращает models.ErrVersionConflict
	Update(ctx context.Context, occurrence *models.Occurrence) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.OccurrenceFilter) ([]*models.Occurrence, int, error)
}

// OccurrenceCache - кеш карточек происшествий; промах возвращает nil, nil.
// После Invalidate записи с версией ниже minVersion в кеш не попадают.
type OccurrenceCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Occurrence, error)
	Set(ctx context.Context, occurrence *models.Occurrence) error
	Invalidate(ctx context.Context, id uuid.UUID, minVersion int) error
}

// AuditRepository принимает записи журнала аудита
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// TxManager выполняет fn в одной транзакции бд; репозитории берут ее из ctx
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CoordinateResolver переводит адрес в координаты
type CoordinateResolver interface {
	Resolve(ctx context.Context, address string) (models.Coordinates, error)
}

// Notifier - неблокирующая рассылка событий; ошибки обрабатываются внутри
type Notifier interface {
	Notify(eventName string, payload any)
}

// OccurrenceService определяет контракт бизнес-логики жизненного цикла происшествий
type OccurrenceService interface {
	CreateOccurrence(ctx context.Context, input models.CreateOccurrenceInput, actor models.Actor) (*models.Occurrence, error)
	GetOccurrence(ctx context.Context, id uuid.UUID) (*models.OccurrenceDetails, error)
	ListOccurrences(ctx context.Context, filter models.OccurrenceFilter) ([]*models.Occurrence, int, error)
	UpdateOccurrence(ctx context.Context, id uuid.UUID, patch models.OccurrencePatch, actor models.Actor) (*models.Occurrence, error)
	DeleteOccurrence(ctx context.Context, id uuid.UUID, actor models.Actor) error
	GetStats(ctx context.Context, filter models.OccurrenceFilter) (*models.OccurrenceStats, error)
}

type occurrenceService struct {
	repo     OccurrenceRepository
	cache    OccurrenceCache
	history  HistoryRecorder
	audit    AuditRepository
	tx       TxManager
	resolver CoordinateResolver
	stats    StatsAggregator
	notifier Notifier
	logger   *logrus.Logger

	geocodePolicy      string
	defaultCoordinates models.Coordinates
	now                func() time.Time
}

func NewOccurrenceService(
	repo OccurrenceRepository,
	cache OccurrenceCache,
	history HistoryRecorder,
	audit AuditRepository,
	tx TxManager,
	resolver CoordinateResolver,
	stats StatsAggregator,
	notifier Notifier,
	logger *logrus.Logger,
	cfg *config.Config,
) OccurrenceService {
	return &occurrenceService{
		repo:          repo,
		cache:         cache,
		history:       history,
		audit:         audit,
		tx:            tx,
		resolver:      resolver,
		stats:         stats,
		notifier:      notifier,
		logger:        logger,
		geocodePolicy: cfg.GeocodeFailurePolicy,
		defaultCoordinates: models.Coordinates{
			Latitude:  cfg.DefaultLatitude,
			Longitude: cfg.DefaultLongitude,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CreateOccurrence регистрирует происшествие
func (s *occurrenceService) CreateOccurrence(ctx context.Context, input models.CreateOccurrenceInput, actor models.Actor) (*models.Occurrence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "occurrence",
		"method":   "CreateOccurrence",
		"actor_id": actor.ID,
		"type":     input.Type,
	})
	log.Info("Attempting to create a new occurrence")

	if err := validateCreateInput(input); err != nil {
		log.WithError(err).Warn("Occurrence input rejected")
		return nil, err
	}

	coords, err := s.resolveCoordinates(ctx, input, log)
	if err != nil {
		return nil, err
	}

	occurrence := &models.Occurrence{
		ID:          uuid.New(),
		Type:        input.Type,
		Location:    strings.TrimSpace(input.Location),
		Address:     strings.TrimSpace(input.Address),
		Latitude:    coords.Latitude,
		Longitude:   coords.Longitude,
		Status:      models.StatusNew,
		Priority:    models.PriorityMedium,
		Description: input.Description,
		CreatedByID: actor.ID,
		AssigneeID:  input.AssigneeID,
		OccurredAt:  s.now(),
		Photos:      input.Photos,
	}
	if input.Status != nil {
		occurrence.Status = *input.Status
	}
	if input.Priority != nil {
		occurrence.Priority = *input.Priority
	}
	if occurrence.Photos == nil {
		occurrence.Photos = []string{}
	}

	if err := s.repo.Create(ctx, occurrence); err != nil {
		log.WithError(err).Error("Failed to create occurrence in repository")
		return nil, apperr.Internal("could not create occurrence", err)
	}

	if err := s.writeAudit(ctx, actor, models.AuditCreate, occurrence.ID, map[string]any{
		"type":     occurrence.Type,
		"location": occurrence.Location,
	}); err != nil {
		log.WithError(err).Error("Failed to write audit log for created occurrence")
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, occurrence.ID)
	if err != nil {
		log.WithError(err).Error("Failed to reload created occurrence")
		return nil, apperr.Internal("could not load created occurrence", err)
	}

	s.notifier.Notify(models.EventOccurrenceCreated, created)

	log.WithField("occurrence_id", created.ID).Info("Occurrence created successfully")
	return created, nil
}

// resolveCoordinates берет координаты из запроса либо геокодирует адрес,
// применяя настроенную политику при отказе геокодера
func (s *occurrenceService) resolveCoordinates(ctx context.Context, input models.CreateOccurrenceInput, log *logrus.Entry) (models.Coordinates, error) {
	if input.Latitude != nil && input.Longitude != nil {
		return models.Coordinates{Latitude: *input.Latitude, Longitude: *input.Longitude}, nil
	}

	coords, err := s.resolver.Resolve(ctx, input.Address)
	if err == nil {
		return coords, nil
	}

	if s.geocodePolicy == config.GeocodePolicyFallback {
		log.WithError(err).Warn("Geocoding failed, using default coordinates")
		return s.defaultCoordinates, nil
	}

	log.WithError(err).Warn("Geocoding failed, asking client for manual coordinates")
	kind := apperr.GetKind(err)
	if kind != apperr.KindAddressNotFound {
		kind = apperr.KindResolverUnavailable
	}
	return models.Coordinates{}, apperr.Wrap(kind,
		"could not resolve coordinates for this address automatically, please provide latitude and longitude manually", err)
}

// GetOccurrence возвращает происшествие вместе с историей статусов
func (s *occurrenceService) GetOccurrence(ctx context.Context, id uuid.UUID) (*models.OccurrenceDetails, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "occurrence",
		"method":        "GetOccurrence",
		"occurrence_id": id,
	})
	log.Debug("Fetching occurrence by ID")

	occurrence, err := s.cache.Get(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read occurrence from cache")
		occurrence = nil
	}

	if occurrence == nil {
		occurrence, err = s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrOccurrenceNotFound) {
				return nil, apperr.NotFound("occurrence not found")
			}
			log.WithError(err).Error("Failed to get occurrence from repository")
			return nil, apperr.Internal("could not get occurrence", err)
		}
		if err := s.cache.Set(ctx, occurrence); err != nil {
			log.WithError(err).Warn("Failed to cache occurrence")
		}
	}

	history, err := s.history.List(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to list occurrence history")
		return nil, apperr.Internal("could not get occurrence history", err)
	}

	return &models.OccurrenceDetails{Occurrence: occurrence, History: history}, nil
}

// ListOccurrences возвращает страницу происшествий и общее количество
func (s *occurrenceService) ListOccurrences(ctx context.Context, filter models.OccurrenceFilter) ([]*models.Occurrence, int, error) {
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "occurrence",
		"method":  "ListOccurrences",
		"page":    filter.Page,
		"limit":   filter.Limit,
	})

	if err := validateFilter(filter); err != nil {
		return nil, 0, err
	}

	occurrences, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list occurrences from repository")
		return nil, 0, apperr.Internal("could not list occurrences", err)
	}

	log.WithField("count", len(occurrences)).Debug("Occurrences listed successfully")
	return occurrences, total, nil
}

// UpdateOccurrence применяет частичное обновление и производные временные метки
func (s *occurrenceService) UpdateOccurrence(ctx context.Context, id uuid.UUID, patch models.OccurrencePatch, actor models.Actor) (*models.Occurrence, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "occurrence",
		"method":        "UpdateOccurrence",
		"occurrence_id": id,
		"actor_id":      actor.ID,
	})
	log.Info("Attempting to update occurrence")

	if err := validatePatch(patch); err != nil {
		log.WithError(err).Warn("Occurrence patch rejected")
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrOccurrenceNotFound) {
			log.Warn("Attempted to update a non-existent occurrence")
			return nil, apperr.NotFound("occurrence not found")
		}
		log.WithError(err).Error("Failed to load occurrence for update")
		return nil, apperr.Internal("could not load occurrence", err)
	}

	var entry *models.HistoryEntry
	if patch.Status != nil && *patch.Status != current.Status {
		entry = &models.HistoryEntry{
			OccurrenceID:   id,
			PreviousStatus: current.Status,
			NewStatus:      *patch.Status,
			Note:           patch.Note,
			ActorID:        actor.ID,
		}
	}

	applyPatch(current, patch, s.now())

	details := map[string]any{}
	if patch.Status != nil {
		details["status"] = *patch.Status
	}
	if patch.Priority != nil {
		details["priority"] = *patch.Priority
	}

	// История, запись и аудит фиксируются вместе: при конфликте версий история не остается
	written := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if entry != nil {
			if err := s.history.Record(ctx, entry); err != nil {
				log.WithError(err).Error("Failed to record status history")
				return apperr.Internal("could not record status history", err)
			}
		}

		if err := s.repo.Update(ctx, current); err != nil {
			switch {
			case errors.Is(err, models.ErrVersionConflict):
				log.WithError(err).Warn("Concurrent update detected")
				return apperr.Conflict("occurrence was modified by another request, reload and try again")
			case errors.Is(err, models.ErrOccurrenceNotFound):
				return apperr.NotFound("occurrence not found")
			}
			log.WithError(err).Error("Failed to update occurrence in repository")
			return apperr.Internal("could not update occurrence", err)
		}
		written = true

		if err := s.writeAudit(ctx, actor, models.AuditUpdate, id, details); err != nil {
			log.WithError(err).Error("Failed to write audit log for updated occurrence")
			return err
		}
		return nil
	})
	if written {
		s.invalidate(ctx, id, current.Version, log)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to reload updated occurrence")
		return nil, apperr.Internal("could not load updated occurrence", err)
	}

	s.notifier.Notify(models.EventOccurrenceUpdated, updated)

	log.Info("Occurrence updated successfully")
	return updated, nil
}

// DeleteOccurrence удаляет происшествие без проверок статуса
func (s *occurrenceService) DeleteOccurrence(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "occurrence",
		"method":        "DeleteOccurrence",
		"occurrence_id": id,
		"actor_id":      actor.ID,
	})
	log.Info("Attempting to delete occurrence")

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrOccurrenceNotFound) {
			log.Warn("Attempted to delete a non-existent occurrence")
			return apperr.NotFound("occurrence not found")
		}
		log.WithError(err).Error("Failed to load occurrence for delete")
		return apperr.Internal("could not load occurrence", err)
	}

	written := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			if errors.Is(err, models.ErrOccurrenceNotFound) {
				return apperr.NotFound("occurrence not found")
			}
			log.WithError(err).Error("Failed to delete occurrence in repository")
			return apperr.Internal("could not delete occurrence", err)
		}
		written = true

		if err := s.writeAudit(ctx, actor, models.AuditDelete, id, map[string]any{
			"type":     current.Type,
			"location": current.Location,
		}); err != nil {
			log.WithError(err).Error("Failed to write audit log for deleted occurrence")
			return err
		}
		return nil
	})
	if written {
		s.invalidate(ctx, id, current.Version+1, log)
	}
	if err != nil {
		return err
	}

	s.notifier.Notify(models.EventOccurrenceDeleted, map[string]any{"id": id})

	log.Info("Occurrence deleted successfully")
	return nil
}

// GetStats возвращает агрегаты по текущему набору происшествий
func (s *occurrenceService) GetStats(ctx context.Context, filter models.OccurrenceFilter) (*models.OccurrenceStats, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	stats, err := s.stats.Summarize(ctx, filter)
	if err != nil {
		s.logger.WithError(err).WithField("method", "GetStats").Error("Failed to summarize occurrences")
		return nil, apperr.Internal("could not compute statistics", err)
	}
	return stats, nil
}

// invalidate сбрасывает кеш после записи в бд, даже если операция затем не удалась.
// Снимки с версией ниже minVersion, прочитанные параллельными запросами, в кеш уже не вернутся.
func (s *occurrenceService) invalidate(ctx context.Context, id uuid.UUID, minVersion int, log *logrus.Entry) {
	if err := s.cache.Invalidate(ctx, id, minVersion); err != nil {
		log.WithError(err).Warn("Failed to invalidate occurrence cache")
	}
}

func (s *occurrenceService) writeAudit(ctx context.Context, actor models.Actor, action models.AuditAction, entityID uuid.UUID, details map[string]any) error {
	entry := &models.AuditLog{
		ActorID:    actor.ID,
		Action:     action,
		EntityType: models.AuditEntityOccurrence,
		EntityID:   entityID,
		Details:    details,
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		return apperr.Internal("could not write audit log", err)
	}
	return nil
}

// applyPatch переносит переданные поля и выставляет метки этапов.
// Метки ставятся только при первом входе в статус и при повторном не меняются.
func applyPatch(occurrence *models.Occurrence, patch models.OccurrencePatch, now time.Time) {
	if patch.Status != nil {
		occurrence.Status = *patch.Status
	}
	if patch.Priority != nil {
		occurrence.Priority = *patch.Priority
	}
	if patch.Description != nil {
		occurrence.Description = patch.Description
	}
	if patch.AssigneeID != nil {
		occurrence.AssigneeID = patch.AssigneeID
	}

	if patch.Status != nil && *patch.Status == models.StatusInProgress && occurrence.RespondedAt == nil {
		respondedAt := now
		minutes := int(math.Floor(now.Sub(occurrence.OccurredAt).Minutes()))
		occurrence.RespondedAt = &respondedAt
		occurrence.ResponseTimeMinutes = &minutes
	}
	if patch.Status != nil && *patch.Status == models.StatusResolved && occurrence.ResolvedAt == nil {
		resolvedAt := now
		occurrence.ResolvedAt = &resolvedAt
	}

	occurrence.UpdatedAt = now
}

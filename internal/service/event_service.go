package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/repository"
	"github.com/xen-network/cms-api/pkg/dates"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/listquery"
)

const eventCacheKey = "content:events:published"

type eventRepository interface {
	ListAll(ctx context.Context) ([]models.Event, error)
	ListPublished(ctx context.Context) ([]models.Event, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	UpdateFields(ctx context.Context, id string, patch repository.EventPatch) error
	Delete(ctx context.Context, id string) error
}

// EventListRequest captures the events list query.
type EventListRequest struct {
	Search    string
	Community string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// PublicEvent is an event decorated with its display date for the public
// site, e.g. "24th Jan 2025".
type PublicEvent struct {
	models.Event
	DisplayDate string `json:"display_date"`
}

// CreateEventRequest is the admin create payload.
type CreateEventRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Location    string     `json:"location" validate:"required"`
	Community   *string    `json:"community"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"`
	Published   bool       `json:"published"`
}

// UpdateEventRequest carries an admin edit.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Community   *string    `json:"community"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"`
	Published   *bool      `json:"published"`
}

// EventService serves the public events page and the admin CMS view.
type EventService struct {
	repo      eventRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

var eventSchema = listquery.Schema[models.Event]{
	SearchText: func(e models.Event) []string {
		fields := []string{e.Title, e.Location}
		if e.Description != nil {
			fields = append(fields, *e.Description)
		}
		return fields
	},
	FacetValue: func(e models.Event, facet string) string {
		switch facet {
		case "community":
			if e.Community != nil {
				return *e.Community
			}
			return ""
		default:
			return ""
		}
	},
	SortValue: func(e models.Event, key string) any {
		switch key {
		case "title":
			return e.Title
		case "location":
			return e.Location
		default:
			return e.StartsAt
		}
	},
}

// PublicList serves published events through the content cache, decorated
// with a human display date.
func (s *EventService) PublicList(ctx context.Context, req EventListRequest) ([]PublicEvent, *models.Pagination, error) {
	var events []models.Event
	hit, err := s.cache.Get(ctx, eventCacheKey, &events)
	if err != nil || !hit {
		events, err = s.repo.ListPublished(ctx)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
		}
		if cacheErr := s.cache.Set(ctx, eventCacheKey, events, 0); cacheErr != nil {
			s.logger.Warn("failed to cache published events", zap.Error(cacheErr))
		}
	}

	page, pagination, err := s.applyQuery(events, req)
	if err != nil {
		return nil, nil, err
	}

	decorated := make([]PublicEvent, 0, len(page))
	for _, event := range page {
		decorated = append(decorated, PublicEvent{
			Event:       event,
			DisplayDate: dates.FormatEventDate(event.StartsAt),
		})
	}
	return decorated, pagination, nil
}

// List serves the admin table over the full collection, unpublished included.
func (s *EventService) List(ctx context.Context, req EventListRequest) ([]models.Event, *models.Pagination, error) {
	events, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	return s.applyQuery(events, req)
}

func (s *EventService) applyQuery(events []models.Event, req EventListRequest) ([]models.Event, *models.Pagination, error) {
	params := listquery.Params{
		Search: req.Search,
		Facets: map[string]string{
			"community": req.Community,
		},
		SortKey:       req.SortBy,
		SortDirection: listquery.Direction(strings.ToLower(req.SortOrder)),
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	result, err := listquery.Apply(events, params, eventSchema)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	pagination := &models.Pagination{
		Page:       result.PageIndex,
		PageSize:   req.PageSize,
		TotalCount: result.Total,
		TotalPages: result.TotalPages,
		Clamped:    result.Clamped,
	}
	if pagination.PageSize == 0 {
		pagination.PageSize = listquery.DefaultPageSize
	}
	return result.Page, pagination, nil
}

// Get fetches a single event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create adds a new event.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest, actor Actor) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Community:   req.Community,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		Published:   req.Published,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.invalidateCache(ctx)
	s.recordAudit(ctx, actor, models.AuditActionUpdate, event.ID, map[string]string{"created": event.Title})
	return event, nil
}

// Update applies a partial edit and returns the updated record.
func (s *EventService) Update(ctx context.Context, id string, req UpdateEventRequest, actor Actor) (*models.Event, error) {
	patch := repository.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Community:   req.Community,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		Published:   req.Published,
	}
	if err := s.repo.UpdateFields(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidateCache(ctx)
	s.recordAudit(ctx, actor, models.AuditActionUpdate, id, nil)
	return s.Get(ctx, id)
}

// Delete removes an event permanently.
func (s *EventService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidateCache(ctx)
	s.recordAudit(ctx, actor, models.AuditActionDelete, id, nil)
	return nil
}

func (s *EventService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, eventCacheKey); err != nil {
		s.logger.Warn("failed to invalidate event cache", zap.Error(err))
	}
}

func (s *EventService) recordAudit(ctx context.Context, actor Actor, action, resourceID string, values map[string]string) {
	if s.audit == nil {
		return
	}
	var payload []byte
	if values != nil {
		payload, _ = json.Marshal(values)
	}
	var userID *string
	if actor.UserID != "" {
		userID = &actor.UserID
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "events",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record event audit log", zap.Error(err))
	}
}

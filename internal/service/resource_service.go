package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/repository"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/listquery"
)

const resourceCacheKey = "content:resources:published"

type resourceRepository interface {
	ListAll(ctx context.Context) ([]models.Resource, error)
	ListPublished(ctx context.Context) ([]models.Resource, error)
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	Create(ctx context.Context, resource *models.Resource) error
	UpdateStatus(ctx context.Context, id string, status models.ResourceStatus, ts time.Time) error
	UpdateFields(ctx context.Context, id string, patch repository.ResourcePatch) error
	Delete(ctx context.Context, id string) error
}

// ResourceListRequest captures the list query shared by the public page
// and the admin table. Status is ignored for the public listing.
type ResourceListRequest struct {
	Search    string
	Status    string
	Category  string
	Type      string
	Community string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// CreateResourceRequest is the admin create payload.
type CreateResourceRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Category    string  `json:"category" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	Community   *string `json:"community"`
	FileURL     *string `json:"file_url"`
	ExternalURL *string `json:"external_url"`
}

// UpdateResourceRequest carries an admin edit.
type UpdateResourceRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Type        *string `json:"type"`
	Community   *string `json:"community"`
	FileURL     *string `json:"file_url"`
	ExternalURL *string `json:"external_url"`
}

// ResourceService serves the public resources page and the admin CMS view.
type ResourceService struct {
	repo      resourceRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResourceService constructs a ResourceService.
func NewResourceService(repo resourceRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ResourceService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

var resourceSchema = listquery.Schema[models.Resource]{
	SearchText: func(r models.Resource) []string {
		fields := []string{r.Title, r.Category, r.Type}
		if r.Description != nil {
			fields = append(fields, *r.Description)
		}
		return fields
	},
	FacetValue: func(r models.Resource, facet string) string {
		switch facet {
		case "status":
			return string(r.Status)
		case "category":
			return r.Category
		case "type":
			return r.Type
		case "community":
			if r.Community != nil {
				return *r.Community
			}
			return ""
		default:
			return ""
		}
	},
	SortValue: func(r models.Resource, key string) any {
		switch key {
		case "title":
			return r.Title
		case "category":
			return r.Category
		case "status":
			return string(r.Status)
		default:
			return r.CreatedAt
		}
	},
}

// PublicList serves published resources through the content cache, then
// runs the same filter/sort/paginate pipeline as the admin view.
func (s *ResourceService) PublicList(ctx context.Context, req ResourceListRequest) ([]models.Resource, *models.Pagination, error) {
	var resources []models.Resource
	hit, err := s.cache.Get(ctx, resourceCacheKey, &resources)
	if err != nil || !hit {
		resources, err = s.repo.ListPublished(ctx)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resources")
		}
		if cacheErr := s.cache.Set(ctx, resourceCacheKey, resources, 0); cacheErr != nil {
			s.logger.Warn("failed to cache published resources", zap.Error(cacheErr))
		}
	}

	req.Status = ""
	return s.applyQuery(resources, req)
}

// List serves the admin table over the full collection, drafts included.
func (s *ResourceService) List(ctx context.Context, req ResourceListRequest) ([]models.Resource, *models.Pagination, error) {
	resources, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resources")
	}
	return s.applyQuery(resources, req)
}

func (s *ResourceService) applyQuery(resources []models.Resource, req ResourceListRequest) ([]models.Resource, *models.Pagination, error) {
	params := listquery.Params{
		Search: req.Search,
		Facets: map[string]string{
			"status":    req.Status,
			"category":  req.Category,
			"type":      req.Type,
			"community": req.Community,
		},
		SortKey:       req.SortBy,
		SortDirection: listquery.Direction(strings.ToLower(req.SortOrder)),
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	result, err := listquery.Apply(resources, params, resourceSchema)
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

// Get fetches a single resource.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.Resource, error) {
	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return resource, nil
}

// Create adds a new resource as a draft unless a status is supplied later.
func (s *ResourceService) Create(ctx context.Context, req CreateResourceRequest, actor Actor) (*models.Resource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}
	resource := &models.Resource{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Community:   req.Community,
		FileURL:     req.FileURL,
		ExternalURL: req.ExternalURL,
		Status:      models.ResourceDraft,
	}
	if err := s.repo.Create(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}
	s.invalidateCache(ctx)
	s.recordAudit(ctx, actor, models.AuditActionUpdate, resource.ID, map[string]string{"created": resource.Title})
	return resource, nil
}

// UpdateStatus transitions the resource status within the closed set and
// invalidates the public cache so publish/archive takes effect immediately.
func (s *ResourceService) UpdateStatus(ctx context.Context, id string, status models.ResourceStatus, actor Actor) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid resource status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resource status")
	}
	s.invalidateCache(ctx)
	s.recordAudit(ctx, actor, models.AuditActionStatusChange, id, map[string]string{"status": string(status)})
	return nil
}

// Update applies a partial edit and returns the updated record.
func (s *ResourceService) Update(ctx context.Context, id string, req UpdateResourceRequest, actor Actor) (*models.Resource, error) {
	patch := repository.ResourcePatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Community:   req.Community,
		FileURL:     req.FileURL,
		ExternalURL: req.ExternalURL,
	}
	if err := s.repo.UpdateFields(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resource")
	}
	s.invalidateCache(ctx)
	s.recordAudit(ctx, actor, models.AuditActionUpdate, id, nil)
	return s.Get(ctx, id)
}

// Delete removes a resource permanently.
func (s *ResourceService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	s.invalidateCache(ctx)
	s.recordAudit(ctx, actor, models.AuditActionDelete, id, nil)
	return nil
}

func (s *ResourceService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, resourceCacheKey); err != nil {
		s.logger.Warn("failed to invalidate resource cache", zap.Error(err))
	}
}

func (s *ResourceService) recordAudit(ctx context.Context, actor Actor, action, resourceID string, values map[string]string) {
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
		Resource:   "resources",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record resource audit log", zap.Error(err))
	}
}

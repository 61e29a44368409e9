package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/xen-network/cms-api/internal/models"
)

const resourceColumns = `id, title, description, category, type, community, file_url, external_url,
        status, status_updated_at, created_at, updated_at`

// ResourceRepository manages persistence for downloadable resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs a ResourceRepository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// ListAll returns every resource regardless of status, newest first.
func (r *ResourceRepository) ListAll(ctx context.Context) ([]models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources ORDER BY created_at DESC", resourceColumns)
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

// ListPublished returns only published resources for the public site.
func (r *ResourceRepository) ListPublished(ctx context.Context) ([]models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE status = $1 ORDER BY created_at DESC", resourceColumns)
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, models.ResourcePublished); err != nil {
		return nil, fmt.Errorf("list published resources: %w", err)
	}
	return resources, nil
}

// FindByID fetches a resource by ID.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = $1", resourceColumns)
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}

// Create inserts a new resource.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	resource.CreatedAt = now
	resource.UpdatedAt = now
	if resource.Status == "" {
		resource.Status = models.ResourceDraft
	}

	query := `INSERT INTO resources (id, title, description, category, type, community, file_url,
        external_url, status, created_at, updated_at)
        VALUES (:id, :title, :description, :category, :type, :community, :file_url, :external_url,
        :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// UpdateStatus transitions the resource status and stamps status_updated_at.
func (r *ResourceRepository) UpdateStatus(ctx context.Context, id string, status models.ResourceStatus, ts time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE resources SET status = $2, status_updated_at = $3, updated_at = $3 WHERE id = $1",
		id, status, ts)
	if err != nil {
		return fmt.Errorf("update resource status: %w", err)
	}
	return ensureRowAffected(res)
}

// ResourcePatch carries the editable resource fields.
type ResourcePatch struct {
	Title       *string
	Description *string
	Category    *string
	Type        *string
	Community   *string
	FileURL     *string
	ExternalURL *string
}

// UpdateFields applies a partial edit.
func (r *ResourceRepository) UpdateFields(ctx context.Context, id string, patch ResourcePatch) error {
	sets := []string{"updated_at = $2"}
	args := []interface{}{id, time.Now().UTC()}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.Community != nil {
		add("community", *patch.Community)
	}
	if patch.FileURL != nil {
		add("file_url", *patch.FileURL)
	}
	if patch.ExternalURL != nil {
		add("external_url", *patch.ExternalURL)
	}

	query := fmt.Sprintf("UPDATE resources SET %s WHERE id = $1", strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	return ensureRowAffected(res)
}

// Delete removes a resource permanently.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM resources WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return ensureRowAffected(res)
}

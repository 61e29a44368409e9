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

const eventColumns = `id, title, description, location, community, starts_at, ends_at, capacity,
        published, created_at, updated_at`

// EventRepository manages persistence for community events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListAll returns every event, soonest first.
func (r *EventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events ORDER BY starts_at ASC", eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListPublished returns only published events for the public site.
func (r *EventRepository) ListPublished(ctx context.Context) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE published = true ORDER BY starts_at ASC", eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list published events: %w", err)
	}
	return events, nil
}

// FindByID fetches an event by ID.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `INSERT INTO events (id, title, description, location, community, starts_at, ends_at,
        capacity, published, created_at, updated_at)
        VALUES (:id, :title, :description, :location, :community, :starts_at, :ends_at, :capacity,
        :published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// EventPatch carries the editable event fields.
type EventPatch struct {
	Title       *string
	Description *string
	Location    *string
	Community   *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Capacity    *int
	Published   *bool
}

// UpdateFields applies a partial edit.
func (r *EventRepository) UpdateFields(ctx context.Context, id string, patch EventPatch) error {
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
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Community != nil {
		add("community", *patch.Community)
	}
	if patch.StartsAt != nil {
		add("starts_at", *patch.StartsAt)
	}
	if patch.EndsAt != nil {
		add("ends_at", *patch.EndsAt)
	}
	if patch.Capacity != nil {
		add("capacity", *patch.Capacity)
	}
	if patch.Published != nil {
		add("published", *patch.Published)
	}

	query := fmt.Sprintf("UPDATE events SET %s WHERE id = $1", strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return ensureRowAffected(res)
}

// Delete removes an event permanently.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return ensureRowAffected(res)
}

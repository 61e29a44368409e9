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

const bookingColumns = `id, service_type, company_name, contact_name, contact_email, contact_phone,
        purpose, scheduled_for, status, confirmed_by, status_updated_at, created_at, updated_at`

// BookingRepository manages persistence for service bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListAll returns the full booking collection, newest first.
func (r *BookingRepository) ListAll(ctx context.Context) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings ORDER BY created_at DESC", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// FindByID fetches a booking by ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Status == "" {
		booking.Status = models.BookingPendingConfirmation
	}

	query := `INSERT INTO bookings (id, service_type, company_name, contact_name, contact_email,
        contact_phone, purpose, scheduled_for, status, confirmed_by, created_at, updated_at)
        VALUES (:id, :service_type, :company_name, :contact_name, :contact_email, :contact_phone,
        :purpose, :scheduled_for, :status, :confirmed_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// UpdateStatus transitions the booking status and stamps status_updated_at.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, ts time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status = $2, status_updated_at = $3, updated_at = $3 WHERE id = $1",
		id, status, ts)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return ensureRowAffected(res)
}

// Confirm transitions the booking to confirmed and records who confirmed it.
func (r *BookingRepository) Confirm(ctx context.Context, id, confirmedBy string, ts time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status = $2, confirmed_by = $3, status_updated_at = $4, updated_at = $4 WHERE id = $1",
		id, models.BookingConfirmed, confirmedBy, ts)
	if err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	return ensureRowAffected(res)
}

// BookingPatch carries the editable booking fields.
type BookingPatch struct {
	ServiceType  *string
	CompanyName  *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Purpose      *string
	ScheduledFor *time.Time
}

// UpdateFields applies a partial edit.
func (r *BookingRepository) UpdateFields(ctx context.Context, id string, patch BookingPatch) error {
	sets := []string{"updated_at = $2"}
	args := []interface{}{id, time.Now().UTC()}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.ServiceType != nil {
		add("service_type", *patch.ServiceType)
	}
	if patch.CompanyName != nil {
		add("company_name", *patch.CompanyName)
	}
	if patch.ContactName != nil {
		add("contact_name", *patch.ContactName)
	}
	if patch.ContactEmail != nil {
		add("contact_email", *patch.ContactEmail)
	}
	if patch.ContactPhone != nil {
		add("contact_phone", *patch.ContactPhone)
	}
	if patch.Purpose != nil {
		add("purpose", *patch.Purpose)
	}
	if patch.ScheduledFor != nil {
		add("scheduled_for", *patch.ScheduledFor)
	}

	query := fmt.Sprintf("UPDATE bookings SET %s WHERE id = $1", strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return ensureRowAffected(res)
}

// Delete removes a booking permanently.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return ensureRowAffected(res)
}

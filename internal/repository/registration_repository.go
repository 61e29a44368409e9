package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/xen-network/cms-api/internal/models"
)

const registrationColumns = `id, registration_type, season, company_name, company_email, company_phone,
        company_address, company_type, company_size, industry, community, xen_level, client_status,
        ticket_type, primary_contact_name, primary_contact_email, primary_contact_phone,
        primary_contact_designation, personnel, event_id, event_title, event_date, event_location,
        total_cost, base_amount, discount_amount, is_free_registration, status, special_requests,
        emergency_contact, emergency_phone, registration_date, status_updated_at, created_at, updated_at`

// RegistrationRepository manages persistence for event registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// ListAll returns the full registration collection, newest first. The admin
// list pipeline filters, sorts and paginates in memory.
func (r *RegistrationRepository) ListAll(ctx context.Context) ([]models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations ORDER BY registration_date DESC", registrationColumns)
	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// FindByID fetches a registration by ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations WHERE id = $1", registrationColumns)
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Create inserts a new registration.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.RegistrationDate.IsZero() {
		reg.RegistrationDate = now
	}
	reg.CreatedAt = now
	reg.UpdatedAt = now

	query := `INSERT INTO registrations (id, registration_type, season, company_name, company_email,
        company_phone, company_address, company_type, company_size, industry, community, xen_level,
        client_status, ticket_type, primary_contact_name, primary_contact_email, primary_contact_phone,
        primary_contact_designation, personnel, event_id, event_title, event_date, event_location,
        total_cost, base_amount, discount_amount, is_free_registration, status, special_requests,
        emergency_contact, emergency_phone, registration_date, created_at, updated_at)
        VALUES (:id, :registration_type, :season, :company_name, :company_email, :company_phone,
        :company_address, :company_type, :company_size, :industry, :community, :xen_level,
        :client_status, :ticket_type, :primary_contact_name, :primary_contact_email,
        :primary_contact_phone, :primary_contact_designation, :personnel, :event_id, :event_title,
        :event_date, :event_location, :total_cost, :base_amount, :discount_amount,
        :is_free_registration, :status, :special_requests, :emergency_contact, :emergency_phone,
        :registration_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// UpdateStatus transitions the registration status and stamps
// status_updated_at. Returns sql.ErrNoRows when the record no longer exists.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, ts time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE registrations SET status = $2, status_updated_at = $3, updated_at = $3 WHERE id = $1",
		id, status, ts)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return ensureRowAffected(res)
}

// RegistrationPatch carries the editable registration fields; nil means
// leave the column untouched.
type RegistrationPatch struct {
	CompanyName         *string
	CompanyEmail        *string
	CompanyPhone        *string
	CompanyAddress      *string
	Community           *string
	XenLevel            *string
	ClientStatus        *string
	TicketType          *string
	PrimaryContactName  *string
	PrimaryContactEmail *string
	PrimaryContactPhone *string
	Personnel           models.PersonnelList
	SpecialRequests     *string
	EmergencyContact    *string
	EmergencyPhone      *string
}

// UpdateFields applies a partial edit and returns sql.ErrNoRows for
// missing records.
func (r *RegistrationRepository) UpdateFields(ctx context.Context, id string, patch RegistrationPatch) error {
	sets := []string{"updated_at = $2"}
	args := []interface{}{id, time.Now().UTC()}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.CompanyName != nil {
		add("company_name", *patch.CompanyName)
	}
	if patch.CompanyEmail != nil {
		add("company_email", *patch.CompanyEmail)
	}
	if patch.CompanyPhone != nil {
		add("company_phone", *patch.CompanyPhone)
	}
	if patch.CompanyAddress != nil {
		add("company_address", *patch.CompanyAddress)
	}
	if patch.Community != nil {
		add("community", *patch.Community)
	}
	if patch.XenLevel != nil {
		add("xen_level", *patch.XenLevel)
	}
	if patch.ClientStatus != nil {
		add("client_status", *patch.ClientStatus)
	}
	if patch.TicketType != nil {
		add("ticket_type", *patch.TicketType)
	}
	if patch.PrimaryContactName != nil {
		add("primary_contact_name", *patch.PrimaryContactName)
	}
	if patch.PrimaryContactEmail != nil {
		add("primary_contact_email", *patch.PrimaryContactEmail)
	}
	if patch.PrimaryContactPhone != nil {
		add("primary_contact_phone", *patch.PrimaryContactPhone)
	}
	if patch.Personnel != nil {
		add("personnel", patch.Personnel)
	}
	if patch.SpecialRequests != nil {
		add("special_requests", *patch.SpecialRequests)
	}
	if patch.EmergencyContact != nil {
		add("emergency_contact", *patch.EmergencyContact)
	}
	if patch.EmergencyPhone != nil {
		add("emergency_phone", *patch.EmergencyPhone)
	}

	query := fmt.Sprintf("UPDATE registrations SET %s WHERE id = $1", strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	return ensureRowAffected(res)
}

// Delete removes a registration permanently.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM registrations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return ensureRowAffected(res)
}

func ensureRowAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/xen-network/cms-api/internal/models"
)

const inquiryColumns = `id, first_name, last_name, email, phone, company, job_title, website,
        inquiry_type, purpose, priority, preferred_contact, best_time_to_call, hear_about_us,
        message, newsletter, privacy_accepted, source, status, status_updated_at, created_at, updated_at`

// InquiryRepository manages persistence for contact inquiries.
type InquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository constructs an InquiryRepository.
func NewInquiryRepository(db *sqlx.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// ListAll returns the full inquiry collection, newest first.
func (r *InquiryRepository) ListAll(ctx context.Context) ([]models.Inquiry, error) {
	query := fmt.Sprintf("SELECT %s FROM inquiries ORDER BY created_at DESC", inquiryColumns)
	var inquiries []models.Inquiry
	if err := r.db.SelectContext(ctx, &inquiries, query); err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return inquiries, nil
}

// FindByID fetches an inquiry by ID.
func (r *InquiryRepository) FindByID(ctx context.Context, id string) (*models.Inquiry, error) {
	query := fmt.Sprintf("SELECT %s FROM inquiries WHERE id = $1", inquiryColumns)
	var inquiry models.Inquiry
	if err := r.db.GetContext(ctx, &inquiry, query, id); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// Create persists a new inquiry submission.
func (r *InquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inquiry.CreatedAt = now
	inquiry.UpdatedAt = now
	if inquiry.Status == "" {
		inquiry.Status = models.InquiryNew
	}
	if inquiry.Source == "" {
		inquiry.Source = models.SourceContactForm
	}

	query := `INSERT INTO inquiries (id, first_name, last_name, email, phone, company, job_title,
        website, inquiry_type, purpose, priority, preferred_contact, best_time_to_call, hear_about_us,
        message, newsletter, privacy_accepted, source, status, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :email, :phone, :company, :job_title, :website,
        :inquiry_type, :purpose, :priority, :preferred_contact, :best_time_to_call, :hear_about_us,
        :message, :newsletter, :privacy_accepted, :source, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inquiry); err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// UpdateStatus transitions the inquiry status and stamps status_updated_at.
func (r *InquiryRepository) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus, ts time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE inquiries SET status = $2, status_updated_at = $3, updated_at = $3 WHERE id = $1",
		id, status, ts)
	if err != nil {
		return fmt.Errorf("update inquiry status: %w", err)
	}
	return ensureRowAffected(res)
}

// Delete removes an inquiry permanently.
func (r *InquiryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM inquiries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}
	return ensureRowAffected(res)
}

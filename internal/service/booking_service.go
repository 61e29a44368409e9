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

type bookingRepository interface {
	ListAll(ctx context.Context) ([]models.Booking, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, ts time.Time) error
	Confirm(ctx context.Context, id, confirmedBy string, ts time.Time) error
	UpdateFields(ctx context.Context, id string, patch repository.BookingPatch) error
	Delete(ctx context.Context, id string) error
}

// BookingListRequest captures the admin list query for bookings.
type BookingListRequest struct {
	Search      string
	Status      string
	ServiceType string
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}

// CreateBookingRequest is the public booking form payload.
type CreateBookingRequest struct {
	ServiceType  string     `json:"service_type" validate:"required"`
	CompanyName  string     `json:"company_name" validate:"required"`
	ContactName  string     `json:"contact_name" validate:"required"`
	ContactEmail string     `json:"contact_email" validate:"required,email"`
	ContactPhone *string    `json:"contact_phone"`
	Purpose      *string    `json:"purpose"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// UpdateBookingRequest carries an admin edit.
type UpdateBookingRequest struct {
	ServiceType  *string    `json:"service_type"`
	CompanyName  *string    `json:"company_name"`
	ContactName  *string    `json:"contact_name"`
	ContactEmail *string    `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string    `json:"contact_phone"`
	Purpose      *string    `json:"purpose"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// BookingService drives the admin bookings list and mutations, including
// the compound confirm-and-notify operation.
type BookingService struct {
	repo      bookingRepository
	audit     auditRecorder
	notifier  *NotificationService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs a BookingService.
func NewBookingService(repo bookingRepository, audit auditRecorder, notifier *NotificationService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BookingService{repo: repo, audit: audit, notifier: notifier, validator: validate, logger: logger}
}

var bookingSchema = listquery.Schema[models.Booking]{
	SearchText: func(b models.Booking) []string {
		fields := []string{b.CompanyName, b.ContactName, b.ContactEmail}
		if b.Purpose != nil {
			fields = append(fields, *b.Purpose)
		}
		return fields
	},
	FacetValue: func(b models.Booking, facet string) string {
		switch facet {
		case "status":
			return string(b.Status)
		case "serviceType":
			return b.ServiceType
		default:
			return ""
		}
	},
	SortValue: func(b models.Booking, key string) any {
		switch key {
		case "companyName":
			return b.CompanyName
		case "status":
			return string(b.Status)
		case "scheduledFor":
			return b.ScheduledFor
		default:
			return b.CreatedAt
		}
	},
}

// List loads the full collection and runs the filter/sort/paginate pipeline.
func (s *BookingService) List(ctx context.Context, req BookingListRequest) ([]models.Booking, *models.Pagination, error) {
	bookings, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	params := listquery.Params{
		Search: req.Search,
		Facets: map[string]string{
			"status":      req.Status,
			"serviceType": req.ServiceType,
		},
		SortKey:       req.SortBy,
		SortDirection: listquery.Direction(strings.ToLower(req.SortOrder)),
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	result, err := listquery.Apply(bookings, params, bookingSchema)
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

// Get fetches a single booking.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// Create persists a public booking submission as pending confirmation.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	booking := &models.Booking{
		ServiceType:  req.ServiceType,
		CompanyName:  req.CompanyName,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Purpose:      req.Purpose,
		ScheduledFor: req.ScheduledFor,
		Status:       models.BookingPendingConfirmation,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	return booking, nil
}

// UpdateStatus transitions the booking status within the closed set.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, actor Actor) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid booking status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking status")
	}
	s.recordAudit(ctx, actor, models.AuditActionStatusChange, id, map[string]string{"status": string(status)})
	return nil
}

// ConfirmAndNotify transitions the booking to confirmed and dispatches the
// confirmation email. The status write is the primary effect: if it fails
// nothing is assumed to have happened and the error propagates. The email
// is dispatched best-effort afterwards; a relay failure is logged and
// retried in the background but never surfaces to the caller.
func (s *BookingService) ConfirmAndNotify(ctx context.Context, id, confirmedBy string, actor Actor) (*models.Booking, error) {
	if confirmedBy == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "confirmedBy is required")
	}

	if err := s.repo.Confirm(ctx, id, confirmedBy, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm booking")
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyBookingConfirmed(booking, confirmedBy)
	}

	s.recordAudit(ctx, actor, models.AuditActionConfirm, id, map[string]string{"confirmed_by": confirmedBy})
	return booking, nil
}

// Update applies a partial edit and returns the updated record.
func (s *BookingService) Update(ctx context.Context, id string, req UpdateBookingRequest, actor Actor) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	patch := repository.BookingPatch{
		ServiceType:  req.ServiceType,
		CompanyName:  req.CompanyName,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Purpose:      req.Purpose,
		ScheduledFor: req.ScheduledFor,
	}
	if err := s.repo.UpdateFields(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}
	s.recordAudit(ctx, actor, models.AuditActionUpdate, id, nil)
	return s.Get(ctx, id)
}

// Delete removes a booking permanently.
func (s *BookingService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}
	s.recordAudit(ctx, actor, models.AuditActionDelete, id, nil)
	return nil
}

func (s *BookingService) recordAudit(ctx context.Context, actor Actor, action, resourceID string, values map[string]string) {
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
		Resource:   "bookings",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record booking audit log", zap.Error(err))
	}
}

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
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/listquery"
)

type inquiryRepository interface {
	ListAll(ctx context.Context) ([]models.Inquiry, error)
	FindByID(ctx context.Context, id string) (*models.Inquiry, error)
	Create(ctx context.Context, inquiry *models.Inquiry) error
	UpdateStatus(ctx context.Context, id string, status models.InquiryStatus, ts time.Time) error
	Delete(ctx context.Context, id string) error
}

// SubmitInquiryRequest is the public contact-form payload. Only first name,
// last name, email and message are mandatory; everything else is optional.
type SubmitInquiryRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	JobTitle  *string `json:"job_title"`
	Website   *string `json:"website"`

	InquiryType      string  `json:"inquiry_type"`
	Purpose          *string `json:"purpose"`
	Priority         string  `json:"priority"`
	PreferredContact *string `json:"preferred_contact"`
	BestTimeToCall   *string `json:"best_time_to_call"`
	HearAboutUs      *string `json:"hear_about_us"`
	Message          string  `json:"message" validate:"required"`

	Newsletter      bool `json:"newsletter"`
	PrivacyAccepted bool `json:"privacy_accepted"`
}

// InquiryListRequest captures the admin inbox query.
type InquiryListRequest struct {
	Search      string
	Status      string
	InquiryType string
	Priority    string
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}

// InquiryService handles public contact submissions and the admin inbox.
type InquiryService struct {
	repo      inquiryRepository
	audit     auditRecorder
	notifier  *NotificationService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInquiryService constructs an InquiryService.
func NewInquiryService(repo inquiryRepository, audit auditRecorder, notifier *NotificationService, validate *validator.Validate, logger *zap.Logger) *InquiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InquiryService{repo: repo, audit: audit, notifier: notifier, validator: validate, logger: logger}
}

var inquirySchema = listquery.Schema[models.Inquiry]{
	SearchText: func(i models.Inquiry) []string {
		fields := []string{i.FirstName, i.LastName, i.Email, i.Message}
		if i.Company != nil {
			fields = append(fields, *i.Company)
		}
		return fields
	},
	FacetValue: func(i models.Inquiry, facet string) string {
		switch facet {
		case "status":
			return string(i.Status)
		case "inquiryType":
			return i.InquiryType
		case "priority":
			return i.Priority
		default:
			return ""
		}
	},
	SortValue: func(i models.Inquiry, key string) any {
		switch key {
		case "name":
			return i.FirstName + " " + i.LastName
		case "status":
			return string(i.Status)
		case "priority":
			return i.Priority
		default:
			return i.CreatedAt
		}
	},
}

// Submit persists a contact-form submission and alerts the admin inbox.
// The write is the primary effect; the alert is best-effort.
func (s *InquiryService) Submit(ctx context.Context, req SubmitInquiryRequest) (*models.Inquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inquiry payload")
	}

	inquiry := &models.Inquiry{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            strings.TrimSpace(req.Email),
		Phone:            req.Phone,
		Company:          req.Company,
		JobTitle:         req.JobTitle,
		Website:          req.Website,
		InquiryType:      req.InquiryType,
		Purpose:          req.Purpose,
		Priority:         req.Priority,
		PreferredContact: req.PreferredContact,
		BestTimeToCall:   req.BestTimeToCall,
		HearAboutUs:      req.HearAboutUs,
		Message:          req.Message,
		Newsletter:       req.Newsletter,
		PrivacyAccepted:  req.PrivacyAccepted,
		Source:           models.SourceContactForm,
		Status:           models.InquiryNew,
	}
	if inquiry.InquiryType == "" {
		inquiry.InquiryType = "general"
	}
	if inquiry.Priority == "" {
		inquiry.Priority = "normal"
	}

	if err := s.repo.Create(ctx, inquiry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit inquiry")
	}

	if s.notifier != nil {
		s.notifier.NotifyInquiryReceived(inquiry)
	}

	return inquiry, nil
}

// List loads the full inbox and runs the filter/sort/paginate pipeline.
func (s *InquiryService) List(ctx context.Context, req InquiryListRequest) ([]models.Inquiry, *models.Pagination, error) {
	inquiries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inquiries")
	}

	params := listquery.Params{
		Search: req.Search,
		Facets: map[string]string{
			"status":      req.Status,
			"inquiryType": req.InquiryType,
			"priority":    req.Priority,
		},
		SortKey:       req.SortBy,
		SortDirection: listquery.Direction(strings.ToLower(req.SortOrder)),
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	result, err := listquery.Apply(inquiries, params, inquirySchema)
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

// Get fetches a single inquiry.
func (s *InquiryService) Get(ctx context.Context, id string) (*models.Inquiry, error) {
	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inquiry")
	}
	return inquiry, nil
}

// UpdateStatus transitions the inquiry status within the closed set.
func (s *InquiryService) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus, actor Actor) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid inquiry status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update inquiry status")
	}
	s.recordAudit(ctx, actor, models.AuditActionStatusChange, id, map[string]string{"status": string(status)})
	return nil
}

// Delete removes an inquiry permanently.
func (s *InquiryService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete inquiry")
	}
	s.recordAudit(ctx, actor, models.AuditActionDelete, id, nil)
	return nil
}

func (s *InquiryService) recordAudit(ctx context.Context, actor Actor, action, resourceID string, values map[string]string) {
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
		Resource:   "inquiries",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record inquiry audit log", zap.Error(err))
	}
}

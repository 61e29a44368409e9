package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/repository"
	"github.com/xen-network/cms-api/pkg/dates"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/export"
	"github.com/xen-network/cms-api/pkg/listquery"
	"github.com/xen-network/cms-api/pkg/storage"
)

type registrationRepository interface {
	ListAll(ctx context.Context) ([]models.Registration, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, ts time.Time) error
	UpdateFields(ctx context.Context, id string, patch repository.RegistrationPatch) error
	Delete(ctx context.Context, id string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Actor identifies the admin performing a mutation, for audit logging.
type Actor struct {
	UserID    string
	IP        string
	UserAgent string
}

// RegistrationListRequest captures the admin list query for registrations.
type RegistrationListRequest struct {
	Search        string
	Status        string
	Community     string
	TicketType    string
	Season        string
	XenLevel      string
	ClientStatus  string
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}

// ExportFormat selects the export rendering.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult describes a generated export file and its signed download.
type ExportResult struct {
	FileName  string       `json:"file_name"`
	Format    ExportFormat `json:"format"`
	Token     string       `json:"token"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// registrationExportHeaders is the fixed column order of the registrations
// CSV export. Consumers rely on this exact order.
var registrationExportHeaders = []string{
	"Registration ID", "Registration Type", "Season", "Company Name", "Company Email",
	"Company Phone", "Company Address", "Company Type", "Company Size", "Industry",
	"Community", "XEN Level", "Client Status", "Ticket Type", "Primary Contact Name",
	"Primary Contact Email", "Primary Contact Phone", "Primary Contact Designation",
	"Total Attendees", "Personnel Names", "Personnel Emails", "Personnel Phones",
	"Personnel Designations", "Event Title", "Event Date", "Event Location",
	"Total Cost", "Base Amount", "Discount Amount", "Registration Status",
	"Special Requests", "Emergency Contact", "Emergency Phone", "Registration Date",
	"Is Free Registration",
}

// RegistrationService drives the admin registrations list, mutations and
// exports.
type RegistrationService struct {
	repo    registrationRepository
	audit   auditRecorder
	storage exportStorage
	signer  *storage.SignedURLSigner
	csv     csvRenderer
	pdf     pdfRenderer
	metrics *MetricsService
	logger  *zap.Logger
	prefix  string
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(repo registrationRepository, audit auditRecorder, store exportStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, apiPrefix string) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		repo:    repo,
		audit:   audit,
		storage: store,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		metrics: metrics,
		logger:  logger,
		prefix:  strings.TrimRight(apiPrefix, "/"),
	}
}

var registrationSchema = listquery.Schema[models.Registration]{
	SearchText: func(r models.Registration) []string {
		return []string{
			r.CompanyName,
			r.CompanyEmail,
			r.Industry,
			r.PrimaryContactName,
			r.PrimaryContactEmail,
		}
	},
	FacetValue: func(r models.Registration, facet string) string {
		switch facet {
		case "status":
			return string(r.Status)
		case "community":
			return r.Community
		case "ticketType":
			return r.TicketType
		case "season":
			return r.Season
		case "xenLevel":
			return r.XenLevel
		case "clientStatus":
			return r.ClientStatus
		default:
			return ""
		}
	},
	SortValue: func(r models.Registration, key string) any {
		switch key {
		case "companyName":
			return r.CompanyName
		case "community":
			return r.Community
		case "status":
			return string(r.Status)
		case "totalCost":
			if r.TotalCost == nil {
				return float64(0)
			}
			return *r.TotalCost
		case "eventDate":
			return r.EventDate
		default:
			return r.RegistrationDate
		}
	},
}

// List loads the full collection and runs the filter/sort/paginate pipeline.
func (s *RegistrationService) List(ctx context.Context, req RegistrationListRequest) ([]models.Registration, *models.Pagination, error) {
	registrations, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}

	result, err := listquery.Apply(registrations, s.queryParams(req), registrationSchema)
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

// Get fetches a single registration.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return reg, nil
}

// UpdateStatus transitions the registration status. The status must be one
// of the closed set; status_updated_at is stamped server-side.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, actor Actor) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid registration status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration status")
	}
	s.recordAudit(ctx, actor, models.AuditActionStatusChange, id, map[string]string{"status": string(status)})
	return nil
}

// UpdateRegistrationRequest carries an admin edit. Nil fields are left
// untouched.
type UpdateRegistrationRequest struct {
	CompanyName         *string               `json:"company_name"`
	CompanyEmail        *string               `json:"company_email" validate:"omitempty,email"`
	CompanyPhone        *string               `json:"company_phone"`
	CompanyAddress      *string               `json:"company_address"`
	Community           *string               `json:"community"`
	XenLevel            *string               `json:"xen_level"`
	ClientStatus        *string               `json:"client_status"`
	TicketType          *string               `json:"ticket_type"`
	PrimaryContactName  *string               `json:"primary_contact_name"`
	PrimaryContactEmail *string               `json:"primary_contact_email" validate:"omitempty,email"`
	PrimaryContactPhone *string               `json:"primary_contact_phone"`
	Personnel           models.PersonnelList  `json:"personnel"`
	SpecialRequests     *string               `json:"special_requests"`
	EmergencyContact    *string               `json:"emergency_contact"`
	EmergencyPhone      *string               `json:"emergency_phone"`
}

// Update applies a partial edit and returns the updated record.
func (s *RegistrationService) Update(ctx context.Context, id string, req UpdateRegistrationRequest, actor Actor) (*models.Registration, error) {
	patch := repository.RegistrationPatch{
		CompanyName:         req.CompanyName,
		CompanyEmail:        req.CompanyEmail,
		CompanyPhone:        req.CompanyPhone,
		CompanyAddress:      req.CompanyAddress,
		Community:           req.Community,
		XenLevel:            req.XenLevel,
		ClientStatus:        req.ClientStatus,
		TicketType:          req.TicketType,
		PrimaryContactName:  req.PrimaryContactName,
		PrimaryContactEmail: req.PrimaryContactEmail,
		PrimaryContactPhone: req.PrimaryContactPhone,
		Personnel:           req.Personnel,
		SpecialRequests:     req.SpecialRequests,
		EmergencyContact:    req.EmergencyContact,
		EmergencyPhone:      req.EmergencyPhone,
	}
	if err := s.repo.UpdateFields(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
	}
	s.recordAudit(ctx, actor, models.AuditActionUpdate, id, nil)
	return s.Get(ctx, id)
}

// Delete removes a registration permanently.
func (s *RegistrationService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}
	s.recordAudit(ctx, actor, models.AuditActionDelete, id, nil)
	return nil
}

// Export renders the current filtered view (search and facets applied, no
// pagination) to CSV or PDF, stores the file and returns a signed download.
func (s *RegistrationService) Export(ctx context.Context, req RegistrationListRequest, format ExportFormat, actor Actor) (*ExportResult, error) {
	registrations, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}

	params := s.queryParams(req)
	params.Page = 1
	params.PageSize = len(registrations)
	if params.PageSize == 0 {
		params.PageSize = 1
	}
	result, err := listquery.Apply(registrations, params, registrationSchema)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	var payload []byte
	var filename string
	isoDate := time.Now().UTC().Format("2006-01-02")
	switch format {
	case ExportCSV:
		payload, err = s.csv.Render(buildRegistrationDataset(result.Page))
		filename = fmt.Sprintf("registrations_export_%s.csv", isoDate)
	case ExportPDF:
		payload, err = s.pdf.Render(buildRegistrationSummaryDataset(result.Page), "Registrations")
		filename = fmt.Sprintf("registrations_export_%s.pdf", isoDate)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	exportID := uuid.NewString()
	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export download")
	}

	if s.metrics != nil {
		s.metrics.RecordExport(string(format))
	}
	s.recordAudit(ctx, actor, models.AuditActionExport, exportID, map[string]string{"file": filename})

	prefix := s.prefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		FileName:  filename,
		Format:    format,
		Token:     token,
		URL:       fmt.Sprintf("%s/admin/registrations/export/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *RegistrationService) queryParams(req RegistrationListRequest) listquery.Params {
	return listquery.Params{
		Search: req.Search,
		Facets: map[string]string{
			"status":       req.Status,
			"community":    req.Community,
			"ticketType":   req.TicketType,
			"season":       req.Season,
			"xenLevel":     req.XenLevel,
			"clientStatus": req.ClientStatus,
		},
		SortKey:       req.SortBy,
		SortDirection: listquery.Direction(strings.ToLower(req.SortOrder)),
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
}

func (s *RegistrationService) recordAudit(ctx context.Context, actor Actor, action, resourceID string, values map[string]string) {
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
		Resource:   "registrations",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(err))
	}
}

func buildRegistrationDataset(registrations []models.Registration) export.Dataset {
	rows := make([][]string, 0, len(registrations))
	for i := range registrations {
		rows = append(rows, registrationExportRow(&registrations[i]))
	}
	return export.Dataset{Headers: registrationExportHeaders, Rows: rows}
}

func registrationExportRow(r *models.Registration) []string {
	attending := r.AttendingPersonnel()
	names := make([]string, 0, len(attending))
	emails := make([]string, 0, len(attending))
	phones := make([]string, 0, len(attending))
	designations := make([]string, 0, len(attending))
	for _, p := range attending {
		names = append(names, p.Name)
		emails = append(emails, p.Email)
		phones = append(phones, p.Phone)
		designations = append(designations, p.Designation)
	}

	return []string{
		r.ID,
		r.RegistrationType,
		r.Season,
		r.CompanyName,
		r.CompanyEmail,
		r.CompanyPhone,
		strOrEmpty(r.CompanyAddress),
		r.CompanyType,
		r.CompanySize,
		r.Industry,
		r.Community,
		r.XenLevel,
		r.ClientStatus,
		r.TicketType,
		r.PrimaryContactName,
		r.PrimaryContactEmail,
		r.PrimaryContactPhone,
		r.PrimaryContactDesignation,
		strconv.Itoa(len(attending)),
		strings.Join(names, "; "),
		strings.Join(emails, "; "),
		strings.Join(phones, "; "),
		strings.Join(designations, "; "),
		strOrEmpty(r.EventTitle),
		dates.FormatDate(r.EventDate),
		strOrEmpty(r.EventLocation),
		amountOrZero(r.TotalCost),
		amountOrZero(r.BaseAmount),
		amountOrZero(r.DiscountAmount),
		string(r.Status),
		strOrEmpty(r.SpecialRequests),
		strOrEmpty(r.EmergencyContact),
		strOrEmpty(r.EmergencyPhone),
		dates.FormatDate(r.RegistrationDate),
		yesNo(r.IsFreeRegistration),
	}
}

var registrationSummaryHeaders = []string{
	"Company", "Community", "Ticket Type", "Attendees", "Status", "Registered",
}

func buildRegistrationSummaryDataset(registrations []models.Registration) export.Dataset {
	rows := make([][]string, 0, len(registrations))
	for i := range registrations {
		r := &registrations[i]
		rows = append(rows, []string{
			r.CompanyName,
			r.Community,
			r.TicketType,
			strconv.Itoa(len(r.AttendingPersonnel())),
			string(r.Status),
			dates.FormatDate(r.RegistrationDate),
		})
	}
	return export.Dataset{Headers: registrationSummaryHeaders, Rows: rows}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func amountOrZero(f *float64) string {
	if f == nil {
		return "0"
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

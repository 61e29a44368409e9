package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/service"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/response"
	"github.com/xen-network/cms-api/pkg/storage"
)

// RegistrationHandler exposes the admin registrations surface: list, detail,
// mutations and filtered exports with signed downloads.
type RegistrationHandler struct {
	registrations *service.RegistrationService
	signer        *storage.SignedURLSigner
	files         *storage.LocalStorage
	logger        *zap.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService, signer *storage.SignedURLSigner, files *storage.LocalStorage, logger *zap.Logger) *RegistrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationHandler{registrations: registrations, signer: signer, files: files, logger: logger}
}

func registrationListRequest(c *gin.Context) service.RegistrationListRequest {
	return service.RegistrationListRequest{
		Search:       c.Query("search"),
		Status:       c.Query("status"),
		Community:    c.Query("community"),
		TicketType:   c.Query("ticketType"),
		Season:       c.Query("season"),
		XenLevel:     c.Query("xenLevel"),
		ClientStatus: c.Query("clientStatus"),
		SortBy:       c.Query("sortBy"),
		SortOrder:    c.Query("sortOrder"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "pageSize", 0),
	}
}

// List returns one page of the filtered, sorted registrations view.
// @Summary List registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	page, pagination, err := h.registrations.List(c.Request.Context(), registrationListRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, pagination)
}

// Get returns a single registration.
func (h *RegistrationHandler) Get(c *gin.Context) {
	reg, err := h.registrations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus transitions a registration status.
// @Summary Update registration status
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/registrations/{id}/status [patch]
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required"))
		return
	}
	id := c.Param("id")
	if err := h.registrations.UpdateStatus(c.Request.Context(), id, models.RegistrationStatus(req.Status), actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	reg, err := h.registrations.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// Update applies a partial edit to a registration.
func (h *RegistrationHandler) Update(c *gin.Context) {
	var req service.UpdateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload"))
		return
	}
	reg, err := h.registrations.Update(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// Delete removes a registration.
func (h *RegistrationHandler) Delete(c *gin.Context) {
	if err := h.registrations.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export renders the current filtered view to a file and returns a signed
// download URL. Format defaults to CSV.
// @Summary Export registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/registrations/export [post]
func (h *RegistrationHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportCSV))))
	result, err := h.registrations.Export(c.Request.Context(), registrationListRequest(c), format, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download streams a previously generated export addressed by its signed
// token. Anyone holding an unexpired token may download; the token is the
// capability.
func (h *RegistrationHandler) Download(c *gin.Context) {
	token := c.Param("token")
	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token"))
		return
	}

	file, err := h.files.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available"))
		return
	}
	defer file.Close() //nolint:errcheck

	filename := filepath.Base(relPath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentTypeFor(filename))
	if _, err := io.Copy(c.Writer, file); err != nil {
		h.logger.Warn("failed to stream export file", zap.String("file", filename), zap.Error(err))
	}
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

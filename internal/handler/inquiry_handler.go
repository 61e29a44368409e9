package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/service"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/response"
)

// InquiryHandler exposes the public contact form and the admin inbox.
type InquiryHandler struct {
	inquiries *service.InquiryService
}

// NewInquiryHandler constructs an InquiryHandler.
func NewInquiryHandler(inquiries *service.InquiryService) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries}
}

// Submit accepts a public contact-form submission.
// @Summary Submit a contact inquiry
// @Tags inquiries
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /inquiries [post]
func (h *InquiryHandler) Submit(c *gin.Context) {
	var req service.SubmitInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inquiry payload"))
		return
	}
	inquiry, err := h.inquiries.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inquiry)
}

// List returns one page of the filtered, sorted inbox view.
func (h *InquiryHandler) List(c *gin.Context) {
	req := service.InquiryListRequest{
		Search:      c.Query("search"),
		Status:      c.Query("status"),
		InquiryType: c.Query("inquiryType"),
		Priority:    c.Query("priority"),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 0),
	}
	page, pagination, err := h.inquiries.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, pagination)
}

// Get returns a single inquiry.
func (h *InquiryHandler) Get(c *gin.Context) {
	inquiry, err := h.inquiries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// UpdateStatus transitions an inquiry status.
func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required"))
		return
	}
	id := c.Param("id")
	if err := h.inquiries.UpdateStatus(c.Request.Context(), id, models.InquiryStatus(req.Status), actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	inquiry, err := h.inquiries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// Delete removes an inquiry.
func (h *InquiryHandler) Delete(c *gin.Context) {
	if err := h.inquiries.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

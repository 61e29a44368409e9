package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/service"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/response"
)

// BookingHandler exposes the public booking form and the admin bookings
// surface.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create accepts a public booking request.
// @Summary Submit a booking request
// @Tags bookings
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload"))
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// List returns one page of the filtered, sorted bookings view.
func (h *BookingHandler) List(c *gin.Context) {
	req := service.BookingListRequest{
		Search:      c.Query("search"),
		Status:      c.Query("status"),
		ServiceType: c.Query("serviceType"),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 0),
	}
	page, pagination, err := h.bookings.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, pagination)
}

// Get returns a single booking.
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// UpdateStatus transitions a booking status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required"))
		return
	}
	id := c.Param("id")
	if err := h.bookings.UpdateStatus(c.Request.Context(), id, models.BookingStatus(req.Status), actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	booking, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

type confirmBookingRequest struct {
	ConfirmedBy string `json:"confirmedBy" binding:"required"`
}

// Confirm transitions the booking to confirmed and queues the confirmation
// email. The response reflects the persisted state; email delivery is
// asynchronous.
// @Summary Confirm a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "confirmedBy is required"))
		return
	}
	booking, err := h.bookings.ConfirmAndNotify(c.Request.Context(), c.Param("id"), req.ConfirmedBy, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Update applies a partial edit to a booking.
func (h *BookingHandler) Update(c *gin.Context) {
	var req service.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload"))
		return
	}
	booking, err := h.bookings.Update(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Delete removes a booking.
func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.bookings.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/service"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/response"
)

// ResourceHandler exposes the public resources page and the admin CMS view.
type ResourceHandler struct {
	resources *service.ResourceService
}

// NewResourceHandler constructs a ResourceHandler.
func NewResourceHandler(resources *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

func resourceListRequest(c *gin.Context) service.ResourceListRequest {
	return service.ResourceListRequest{
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		Category:  c.Query("category"),
		Type:      c.Query("type"),
		Community: c.Query("community"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 0),
	}
}

// PublicList returns published resources for the marketing site.
// @Summary List published resources
// @Tags resources
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resources [get]
func (h *ResourceHandler) PublicList(c *gin.Context) {
	page, pagination, err := h.resources.PublicList(c.Request.Context(), resourceListRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, pagination)
}

// List returns the admin view including drafts and archived resources.
func (h *ResourceHandler) List(c *gin.Context) {
	page, pagination, err := h.resources.List(c.Request.Context(), resourceListRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, pagination)
}

// Get returns a single resource.
func (h *ResourceHandler) Get(c *gin.Context) {
	resource, err := h.resources.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resource, nil)
}

// Create adds a new resource.
func (h *ResourceHandler) Create(c *gin.Context) {
	var req service.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload"))
		return
	}
	resource, err := h.resources.Create(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// UpdateStatus transitions a resource status (draft/published/archived).
func (h *ResourceHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required"))
		return
	}
	id := c.Param("id")
	if err := h.resources.UpdateStatus(c.Request.Context(), id, models.ResourceStatus(req.Status), actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	resource, err := h.resources.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resource, nil)
}

// Update applies a partial edit to a resource.
func (h *ResourceHandler) Update(c *gin.Context) {
	var req service.UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload"))
		return
	}
	resource, err := h.resources.Update(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resource, nil)
}

// Delete removes a resource.
func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.resources.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

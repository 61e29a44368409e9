package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xen-network/cms-api/internal/middleware"
	"github.com/xen-network/cms-api/internal/service"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Registrations *RegistrationHandler
	Bookings      *BookingHandler
	Inquiries     *InquiryHandler
	Resources     *ResourceHandler
	Events        *EventHandler
}

// RegisterRoutes mounts the public and admin API surfaces under the prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	// Public marketing-site surface.
	api.GET("/resources", h.Resources.PublicList)
	api.GET("/events", h.Events.PublicList)
	api.POST("/inquiries", h.Inquiries.Submit)
	api.POST("/bookings", h.Bookings.Create)
	api.POST("/auth/login", h.Auth.Login)

	// Export downloads are authorized by the signed token itself, so the
	// route sits outside the auth middleware.
	api.GET("/admin/registrations/export/:token", h.Registrations.Download)

	session := api.Group("/auth")
	session.Use(middleware.Auth(auth))
	{
		session.GET("/verify", h.Auth.Verify)
		session.POST("/logout", h.Auth.Logout)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.Auth(auth), middleware.RequireAdmin())
	{
		admin.GET("/registrations", h.Registrations.List)
		admin.GET("/registrations/:id", h.Registrations.Get)
		admin.PATCH("/registrations/:id/status", h.Registrations.UpdateStatus)
		admin.PUT("/registrations/:id", h.Registrations.Update)
		admin.DELETE("/registrations/:id", h.Registrations.Delete)
		admin.POST("/registrations/export", h.Registrations.Export)

		admin.GET("/bookings", h.Bookings.List)
		admin.GET("/bookings/:id", h.Bookings.Get)
		admin.PATCH("/bookings/:id/status", h.Bookings.UpdateStatus)
		admin.POST("/bookings/:id/confirm", h.Bookings.Confirm)
		admin.PUT("/bookings/:id", h.Bookings.Update)
		admin.DELETE("/bookings/:id", h.Bookings.Delete)

		admin.GET("/inquiries", h.Inquiries.List)
		admin.GET("/inquiries/:id", h.Inquiries.Get)
		admin.PATCH("/inquiries/:id/status", h.Inquiries.UpdateStatus)
		admin.DELETE("/inquiries/:id", h.Inquiries.Delete)

		admin.GET("/resources", h.Resources.List)
		admin.GET("/resources/:id", h.Resources.Get)
		admin.POST("/resources", h.Resources.Create)
		admin.PATCH("/resources/:id/status", h.Resources.UpdateStatus)
		admin.PUT("/resources/:id", h.Resources.Update)
		admin.DELETE("/resources/:id", h.Resources.Delete)

		admin.GET("/events", h.Events.List)
		admin.GET("/events/:id", h.Events.Get)
		admin.POST("/events", h.Events.Create)
		admin.PUT("/events/:id", h.Events.Update)
		admin.DELETE("/events/:id", h.Events.Delete)
	}
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xen-network/cms-api/internal/middleware"
	"github.com/xen-network/cms-api/internal/service"
)

// queryInt reads an integer query parameter, falling back when absent or
// malformed.
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// actorFrom builds the audit actor for the current request.
func actorFrom(c *gin.Context) service.Actor {
	actor := service.Actor{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if identity := middleware.IdentityFrom(c); identity != nil {
		actor.UserID = identity.ID
	}
	return actor
}

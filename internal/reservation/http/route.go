package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers reservation routes. Every route requires authentication;
// protected must start with the auth middleware.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, protected ...gin.HandlerFunc) {
	group := g.Group("/reservations", protected...)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
	}
}

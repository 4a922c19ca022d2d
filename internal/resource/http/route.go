package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers resource-related routes.
// protected runs before every route and must start with the auth middleware.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, adminMiddleware gin.HandlerFunc, protected ...gin.HandlerFunc) {
	group := g.Group("/resources", protected...)
	{
		group.GET("", h.List)    // List parking spots
		group.GET("/:id", h.Get) // Get parking spot details

		group.POST("", adminMiddleware, h.Create) // Create parking spot (admin)
	}
}

package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all user-related routes (including token exchange).
// protected runs before every authenticated route and must start with the auth middleware.
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, adminMiddleware gin.HandlerFunc, protected ...gin.HandlerFunc) {
	// Public Routes
	authGroup := g.Group("/auth")
	{
		authGroup.POST("/token", h.Token)
	}

	// Authenticated Routes
	meGroup := g.Group("/me", protected...)
	{
		meGroup.GET("", h.Me)
	}

	// Admin Routes
	usersGroup := g.Group("/users", protected...)
	usersGroup.Use(adminMiddleware)
	{
		usersGroup.GET("", h.List)
		usersGroup.GET("/:id", h.Get)
		usersGroup.POST("", h.Create)
	}
}

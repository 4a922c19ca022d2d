package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/logger"
)

const APIKeyHeader = "x-api-key"

// KeyAuthenticator resolves a raw API key to the identity that owns it.
type KeyAuthenticator interface {
	AuthenticateAPIKey(ctx context.Context, rawKey string) (Identity, error)
}

// AuthRequired is a Gin middleware that accepts either an API key in the
// x-api-key header or a JWT from Authorization: Bearer <token>.
func AuthRequired(jwtManager *JWTManager, keys KeyAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rawKey := c.GetHeader(APIKeyHeader); rawKey != "" {
			id, err := keys.AuthenticateAPIKey(c.Request.Context(), rawKey)
			if err != nil {
				if !apperror.IsKind(err, apperror.KindUnauthorized) {
					logger.Error("api key authentication failed", zap.Error(err))
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "invalid API key",
				})
				return
			}
			setIdentity(c, id)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key or Authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization header format",
			})
			return
		}

		claims, err := jwtManager.ParseAndValidate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		// Store user info into Gin context for later handlers.
		setIdentity(c, Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})

		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. Must run after AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin role required",
			})
			return
		}
		c.Next()
	}
}

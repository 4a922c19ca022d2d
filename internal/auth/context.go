package auth

import "github.com/gin-gonic/gin"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserRole  = "userRole"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxUserEmail, id.Email)
	c.Set(ctxUserRole, id.Role)
}

func getString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return getString(c, ctxUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return getString(c, ctxUserEmail)
}

func GetRole(c *gin.Context) string {
	return getString(c, ctxUserRole)
}

func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == RoleAdmin
}

// OwnerScope returns the owner filter for the caller: empty for admins, who
// see every reservation, otherwise the caller's own ID.
func OwnerScope(c *gin.Context) string {
	if IsAdmin(c) {
		return ""
	}
	return GetUserID(c)
}

// GetIdentity returns the authenticated identity stored on the context.
func GetIdentity(c *gin.Context) Identity {
	return Identity{
		UserID: GetUserID(c),
		Email:  GetUserEmail(c),
		Role:   GetRole(c),
	}
}

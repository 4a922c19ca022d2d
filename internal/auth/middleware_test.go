package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/apperror"
)

type fakeKeys map[string]Identity

func (f fakeKeys) AuthenticateAPIKey(ctx context.Context, rawKey string) (Identity, error) {
	id, ok := f[rawKey]
	if !ok {
		return Identity{}, apperror.New(apperror.KindUnauthorized, "invalid API key")
	}
	return id, nil
}

func newTestRouter(m *JWTManager, keys KeyAuthenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthRequired(m, keys), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "scope": OwnerScope(c)})
	})
	r.GET("/admin", AuthRequired(m, keys), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	keys := fakeKeys{
		"user.key":  {UserID: "u1", Role: RoleUser},
		"admin.key": {UserID: "a1", Role: RoleAdmin},
	}
	router := newTestRouter(m, keys)

	token, err := m.GenerateAccessToken(Identity{UserID: "u2", Role: RoleUser})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantBody   string
	}{
		{"missing credentials", "", "", http.StatusUnauthorized, "missing"},
		{"unknown api key", APIKeyHeader, "nope.nope", http.StatusUnauthorized, "invalid API key"},
		{"user api key", APIKeyHeader, "user.key", http.StatusOK, `"scope":"u1"`},
		{"admin api key has empty scope", APIKeyHeader, "admin.key", http.StatusOK, `"scope":""`},
		{"bearer token", "Authorization", "Bearer " + token, http.StatusOK, `"id":"u2"`},
		{"malformed authorization", "Authorization", token, http.StatusUnauthorized, "format"},
		{"bad token", "Authorization", "Bearer garbage", http.StatusUnauthorized, "expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	keys := fakeKeys{
		"user.key":  {UserID: "u1", Role: RoleUser},
		"admin.key": {UserID: "a1", Role: RoleAdmin},
	}
	router := newTestRouter(NewJWTManager("secret", time.Minute), keys)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(APIKeyHeader, "user.key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(APIKeyHeader, "admin.key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

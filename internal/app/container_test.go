package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nekogravitycat/parking-booking-backend/internal/auth"
	"github.com/nekogravitycat/parking-booking-backend/internal/db"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/response"
	resvHttp "github.com/nekogravitycat/parking-booking-backend/internal/reservation/http"
	resHttp "github.com/nekogravitycat/parking-booking-backend/internal/resource/http"
	"github.com/nekogravitycat/parking-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/parking-booking-backend/internal/user/http"
)

var testNow = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return testNow.Add(time.Duration(hour) * time.Hour)
}

type testApp struct {
	router     *gin.Engine
	container  *Container
	adminKey   string
	aliceKey   string
	bobKey     string
	aliceToken string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	c := NewContainer(Config{
		SQLite:      sqlDB,
		JWTSecret:   "test-secret",
		JWTTTL:      30 * time.Minute,
		BcryptCost:  bcrypt.MinCost,
		MaxPageSize: 20,
		Clock:       clock.Fixed(testNow),
	})

	app := &testApp{router: c.Router, container: c}
	app.adminKey = createUser(t, c.Users, "admin@example.com", auth.RoleAdmin)
	app.aliceKey = createUser(t, c.Users, "alice@example.com", auth.RoleUser)
	app.bobKey = createUser(t, c.Users, "bob@example.com", auth.RoleUser)

	w := app.do(t, http.MethodPost, "/v1/auth/token", userHttp.TokenRequest{APIKey: app.aliceKey}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok userHttp.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	app.aliceToken = tok.AccessToken

	return app
}

func createUser(t *testing.T, users user.Service, email, role string) string {
	t.Helper()
	_, key, err := users.Create(context.Background(), user.CreateRequest{Email: email, Role: role})
	require.NoError(t, err)
	return key.String()
}

func keyHeader(key string) map[string]string {
	return map[string]string{auth.APIKeyHeader: key}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (a *testApp) do(t *testing.T, method, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testApp) createSpot(t *testing.T, name string) resHttp.ResourceResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/v1/resources", resHttp.CreateRequest{Name: name}, keyHeader(a.adminKey))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[resHttp.ResourceResponse](t, w)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/healthcheck", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Service is healthy"}`, w.Body.String())

	w = app.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAuthentication(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"bad api key", keyHeader("nope.nope"), http.StatusUnauthorized},
		{"api key", keyHeader(app.aliceKey), http.StatusOK},
		{"bearer token", bearer(app.aliceToken), http.StatusOK},
		{"bad token", bearer("garbage"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, http.MethodGet, "/v1/me", nil, tt.headers)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusOK {
				me := decode[userHttp.MeResponse](t, w)
				assert.Equal(t, "alice@example.com", me.User.Email)
			}
		})
	}

	w := app.do(t, http.MethodPost, "/v1/auth/token", userHttp.TokenRequest{APIKey: "bad.key"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/v1/resources", resHttp.CreateRequest{Name: "spot0"}, keyHeader(app.aliceKey))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/v1/users", nil, keyHeader(app.aliceKey))
	assert.Equal(t, http.StatusForbidden, w.Code)

	spot := app.createSpot(t, "spot0")
	assert.Equal(t, "spot0", spot.Name)

	w = app.do(t, http.MethodPost, "/v1/resources", resHttp.CreateRequest{Name: "spot0"}, keyHeader(app.adminKey))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodGet, "/v1/users", nil, keyHeader(app.adminKey))
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[response.PageResponse[userHttp.UserResponse]](t, w)
	assert.Equal(t, 3, users.Total)

	w = app.do(t, http.MethodGet, "/v1/resources", nil, keyHeader(app.aliceKey))
	require.Equal(t, http.StatusOK, w.Code)
	spots := decode[response.PageResponse[resHttp.ResourceResponse]](t, w)
	assert.Equal(t, 1, spots.Total)
}

func TestReservationLifecycle(t *testing.T) {
	app := newTestApp(t)
	spot := app.createSpot(t, "spot0")
	alice := bearer(app.aliceToken)

	// Create
	w := app.do(t, http.MethodPost, "/v1/reservations", resvHttp.CreateReservationRequest{
		ResourceID: spot.ID, StartTime: at(12), EndTime: at(14),
	}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[resvHttp.ReservationResponse](t, w)
	require.NotNil(t, created.Resource)
	assert.Equal(t, "spot0", created.Resource.Name)
	assert.True(t, created.StartTime.Equal(at(12)))

	// Overlap is rejected with the conflicting window
	w = app.do(t, http.MethodPost, "/v1/reservations", resvHttp.CreateReservationRequest{
		ResourceID: spot.ID, StartTime: at(13), EndTime: at(15),
	}, keyHeader(app.bobKey))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already booked from 2030-01-01T12:00:00Z to 2030-01-01T14:00:00Z")

	// Validation
	w = app.do(t, http.MethodPost, "/v1/reservations", resvHttp.CreateReservationRequest{
		ResourceID: spot.ID, StartTime: at(15), EndTime: at(14),
	}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/v1/reservations", resvHttp.CreateReservationRequest{
		ResourceID: spot.ID, StartTime: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), EndTime: at(14),
	}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Get
	w = app.do(t, http.MethodGet, "/v1/reservations/"+created.ID, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[resvHttp.ReservationResponse](t, w)
	assert.Nil(t, got.Resource, "resource is only embedded on request")

	w = app.do(t, http.MethodGet, "/v1/reservations/"+created.ID+"?expand_resource=true", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[resvHttp.ReservationResponse](t, w)
	require.NotNil(t, got.Resource)

	// Other users cannot see it, admins can
	w = app.do(t, http.MethodGet, "/v1/reservations/"+created.ID, nil, keyHeader(app.bobKey))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(t, http.MethodGet, "/v1/reservations/"+created.ID, nil, keyHeader(app.adminKey))
	assert.Equal(t, http.StatusOK, w.Code)

	// Update
	end := at(13)
	w = app.do(t, http.MethodPatch, "/v1/reservations/"+created.ID, resvHttp.UpdateReservationRequest{EndTime: &end}, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[resvHttp.ReservationResponse](t, w)
	assert.True(t, updated.EndTime.Equal(at(13)))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	w = app.do(t, http.MethodPatch, "/v1/reservations/"+created.ID, map[string]any{}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Delete is scoped and reports a missing row
	w = app.do(t, http.MethodDelete, "/v1/reservations/"+created.ID, nil, keyHeader(app.bobKey))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(t, http.MethodDelete, "/v1/reservations/"+created.ID, nil, alice)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = app.do(t, http.MethodDelete, "/v1/reservations/"+created.ID, nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodGet, "/v1/reservations/not-a-uuid", nil, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationPagination(t *testing.T) {
	app := newTestApp(t)
	spot := app.createSpot(t, "spot0")
	alice := keyHeader(app.aliceKey)

	for i := 0; i < 5; i++ {
		w := app.do(t, http.MethodPost, "/v1/reservations", resvHttp.CreateReservationRequest{
			ResourceID: spot.ID, StartTime: at(10 + i), EndTime: at(11 + i),
		}, alice)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	type page = response.CursorPageResponse[resvHttp.ReservationResponse]

	seen := map[string]bool{}
	url := "/v1/reservations?limit=2&expand_resource=true"
	for i := 1; i <= 3; i++ {
		w := app.do(t, http.MethodGet, url, nil, alice)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		p := decode[page](t, w)

		assert.Equal(t, i, p.Pagination.CurrentPage)
		assert.Equal(t, 3, p.Pagination.TotalPages)
		assert.Equal(t, 2, p.Pagination.MaxPageSize)
		for _, r := range p.Items {
			require.NotNil(t, r.Resource)
			seen[r.ID] = true
		}

		if i < 3 {
			require.True(t, p.Pagination.HasNextPage)
			assert.True(t, strings.HasPrefix(p.Pagination.NextPage, "/v1/reservations?"))
			assert.Contains(t, p.Pagination.NextPage, "expand_resource=true")
			url = p.Pagination.NextPage
		} else {
			assert.False(t, p.Pagination.HasNextPage)
			assert.Empty(t, p.Pagination.NextCursor)
		}
	}
	assert.Len(t, seen, 5)

	// Bob has none
	w := app.do(t, http.MethodGet, "/v1/reservations", nil, keyHeader(app.bobKey))
	require.Equal(t, http.StatusOK, w.Code)
	empty := decode[page](t, w)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.Pagination.CurrentPage)
	assert.Equal(t, 0, empty.Pagination.TotalPages)
	assert.False(t, empty.Pagination.HasNextPage)

	w = app.do(t, http.MethodGet, "/v1/reservations?limit=21", nil, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/v1/reservations?cursor=notacursor", nil, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/v1/reservations?last_created_at=2031-01-01T00:00:00Z", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[page](t, w).Items, 5)
}

package http

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/parking-booking-backend/internal/auth"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/parking-booking-backend/internal/reservation"
)

type Handler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	maxPageSize := h.service.MaxPageSize()
	if req.Limit > maxPageSize {
		response.BadRequest(c, "limit must not exceed "+strconv.Itoa(maxPageSize))
		return
	}

	cursor, err := req.cursor()
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), reservation.ListRequest{
		OwnerID: auth.OwnerScope(c),
		Cursor:  cursor,
		Limit:   req.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ReservationResponse, len(page.Items))
	for i, r := range page.Items {
		items[i] = NewReservationResponse(r, req.ExpandResource)
	}

	pg := response.CursorPagination{
		CurrentPage: page.Pagination.CurrentPage,
		TotalPages:  page.Pagination.TotalPages,
		MaxPageSize: page.Pagination.PageSize,
		HasNextPage: page.Pagination.HasNextPage,
	}
	if next := page.Pagination.NextCursor; next != nil {
		pg.NextCursor = next.Encode()
		pg.NextPage = nextPageURL(c.Request.URL, pg.NextCursor)
	}

	c.JSON(http.StatusOK, response.NewCursorPageResponse(items, pg))
}

// nextPageURL rebuilds the request URL with the cursor replaced, keeping every other parameter.
func nextPageURL(u *url.URL, cursor string) string {
	q := u.Query()
	q.Del("last_created_at")
	q.Set("cursor", cursor)

	next := url.URL{Path: u.Path, RawQuery: q.Encode()}
	return next.String()
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var query GetReservationRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	r, err := h.service.Get(c.Request.Context(), uri.ID, auth.OwnerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(r, query.ExpandResource))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	r, err := h.service.Create(c.Request.Context(), reservation.CreateRequest{
		UserID:     userID,
		ResourceID: body.ResourceID,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewReservationResponse(r, true))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.Update(c.Request.Context(), uri.ID, auth.OwnerScope(c), reservation.UpdateRequest{
		ResourceID: body.ResourceID,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(r, true))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), uri.ID, auth.OwnerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.Error(c, reservation.ErrNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}

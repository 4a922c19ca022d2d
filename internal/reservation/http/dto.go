package http

import (
	"time"

	"github.com/nekogravitycat/parking-booking-backend/internal/reservation"
)

// ListReservationsRequest defines query parameters for listing reservations.
// cursor takes precedence over last_created_at, which is accepted as a
// timestamp-only cursor.
type ListReservationsRequest struct {
	Limit          int        `form:"limit" binding:"omitempty,min=1"`
	Cursor         string     `form:"cursor"`
	LastCreatedAt  *time.Time `form:"last_created_at" time_format:"2006-01-02T15:04:05Z07:00"`
	ExpandResource bool       `form:"expand_resource"`
}

// cursor resolves the requested keyset position, if any.
func (r *ListReservationsRequest) cursor() (*reservation.Cursor, error) {
	if r.Cursor != "" {
		c, err := reservation.DecodeCursor(r.Cursor)
		if err != nil {
			return nil, err
		}
		return &c, nil
	}
	if r.LastCreatedAt != nil {
		return &reservation.Cursor{CreatedAt: r.LastCreatedAt.UTC()}, nil
	}
	return nil, nil
}

type GetReservationRequest struct {
	ExpandResource bool `form:"expand_resource"`
}

// ResourceTag is the embedded resource summary returned with expand_resource.
type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ReservationResponse struct {
	ID         string       `json:"id"`
	ResourceID string       `json:"resource_id"`
	Resource   *ResourceTag `json:"resource,omitempty"`
	UserID     string       `json:"user_id"`
	StartTime  time.Time    `json:"start_time"`
	EndTime    time.Time    `json:"end_time"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func NewReservationResponse(r *reservation.Reservation, expandResource bool) ReservationResponse {
	resp := ReservationResponse{
		ID:         r.ID,
		ResourceID: r.ResourceID,
		UserID:     r.UserID,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if expandResource {
		resp.Resource = &ResourceTag{ID: r.ResourceID, Name: r.ResourceName}
	}
	return resp
}

type CreateReservationRequest struct {
	ResourceID string    `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
}

type UpdateReservationRequest struct {
	ResourceID *string    `json:"resource_id" binding:"omitempty,uuid"`
	StartTime  *time.Time `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
}

// Validate performs custom validation for UpdateReservationRequest.
func (r *UpdateReservationRequest) Validate() error {
	if r.ResourceID == nil && r.StartTime == nil && r.EndTime == nil {
		return reservation.ErrEmptyUpdate
	}
	return nil
}

package http

import (
	"time"

	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/parking-booking-backend/internal/resource"
)

type ResourceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type ListResourcesRequest struct {
	request.ListParams
}

type CreateRequest struct {
	Name string `json:"name" binding:"required"`
}

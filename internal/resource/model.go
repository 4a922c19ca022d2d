package resource

import (
	"time"

	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound  = apperror.New(apperror.KindNotFound, "resource not found")
	ErrEmptyName = apperror.New(apperror.KindValidation, "name cannot be empty")
	ErrNameTaken = apperror.New(apperror.KindConflict, "resource name already exists")
)

// Resource is a bookable parking spot.
type Resource struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	Page     int
	PageSize int
}

func (f *Filter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
}

func (f Filter) offset() int {
	return (f.Page - 1) * f.PageSize
}

package user

import (
	"time"

	"github.com/nekogravitycat/parking-booking-backend/internal/auth"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(apperror.KindNotFound, "user not found")
	ErrEmailAlreadyUsed = apperror.New(apperror.KindConflict, "email already used")
	ErrEmailRequired    = apperror.New(apperror.KindValidation, "email is required")
	ErrInvalidRole      = apperror.New(apperror.KindValidation, "role must be admin or user")
	ErrInvalidAPIKey    = apperror.New(apperror.KindUnauthorized, "invalid API key")
)

// User is an API client. It authenticates with an API key whose secret is
// only stored as a bcrypt hash.
type User struct {
	ID           string // UUID
	Email        string
	FirstName    string
	LastName     string
	Role         string
	APIKeyPrefix string
	APIKeyHash   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// UserFilter defines filter options for listing users.
type UserFilter struct {
	Page     int
	PageSize int
}

func (f *UserFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
}

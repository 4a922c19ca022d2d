package http

import (
	"time"

	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/parking-booking-backend/internal/user"
)

// ListUsersRequest defines query parameters for listing users.
type ListUsersRequest struct {
	request.ListParams
}

// UserResponse is the shape of user data returned in API responses.
// The API key hash never leaves the service.
type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUserResponse converts domain user.User to UserResponse used by the API.
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		APIKeyPrefix: u.APIKeyPrefix,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// CreateUserRequest defines the payload for registering an API client.
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" binding:"omitempty,oneof=admin user"`
}

// CreateUserResponse carries the only copy of the new API key.
type CreateUserResponse struct {
	User   UserResponse `json:"user"`
	APIKey string       `json:"api_key"`
}

// TokenRequest exchanges an API key for an access token. The key may also be
// sent in the x-api-key header instead.
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}

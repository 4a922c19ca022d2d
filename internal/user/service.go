package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nekogravitycat/parking-booking-backend/internal/auth"
)

type CreateRequest struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
}

// Service defines business logic related to users.
type Service interface {
	// Create registers a user and returns the plain API key. The key cannot be recovered later.
	Create(ctx context.Context, req CreateRequest) (*User, auth.APIKey, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, int, error)
	Authenticate(ctx context.Context, rawKey string) (*User, error)
	AuthenticateAPIKey(ctx context.Context, rawKey string) (auth.Identity, error)
}

type service struct {
	repo   Repository
	hasher auth.KeyHasher
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.KeyHasher) Service {
	return &service{
		repo:   repo,
		hasher: hasher,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*User, auth.APIKey, error) {
	cleanEmail := normalizeEmail(req.Email)
	if cleanEmail == "" {
		return nil, auth.APIKey{}, ErrEmailRequired
	}

	role := req.Role
	if role == "" {
		role = auth.RoleUser
	}
	if role != auth.RoleUser && role != auth.RoleAdmin {
		return nil, auth.APIKey{}, ErrInvalidRole
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, auth.APIKey{}, err
	}

	hash, err := s.hasher.Hash(key.Secret)
	if err != nil {
		return nil, auth.APIKey{}, fmt.Errorf("failed to hash api key: %w", err)
	}

	u := &User{
		Email:        cleanEmail,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		APIKeyPrefix: key.Prefix,
		APIKeyHash:   hash,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, auth.APIKey{}, err
	}

	return u, key, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

func (s *service) List(ctx context.Context, filter UserFilter) ([]*User, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Authenticate(ctx context.Context, rawKey string) (*User, error) {
	key, ok := auth.ParseAPIKey(rawKey)
	if !ok {
		return nil, ErrInvalidAPIKey
	}

	u, err := s.repo.GetByAPIKeyPrefix(ctx, key.Prefix)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("failed to fetch user by api key: %w", err)
	}

	if err := s.hasher.Compare(u.APIKeyHash, key.Secret); err != nil {
		return nil, ErrInvalidAPIKey
	}

	return u, nil
}

func (s *service) AuthenticateAPIKey(ctx context.Context, rawKey string) (auth.Identity, error) {
	u, err := s.Authenticate(ctx, rawKey)
	if err != nil {
		return auth.Identity{}, err
	}
	return u.Identity(), nil
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

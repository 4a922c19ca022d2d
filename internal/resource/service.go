package resource

import (
	"context"
	"errors"
	"strings"
)

type CreateRequest struct {
	Name string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	// EnsureByName returns the resource with the given name, creating it if needed.
	EnsureByName(ctx context.Context, name string) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}

	res := &Resource{Name: name}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) EnsureByName(ctx context.Context, name string) (*Resource, error) {
	res, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.Create(ctx, CreateRequest{Name: name})
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	GetByName(ctx context.Context, name string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	const query = `
		INSERT INTO resources (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, res.Name).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrNameTaken
		}
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	const query = `
		SELECT id, name, created_at, updated_at
		FROM resources
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *pgxRepository) GetByName(ctx context.Context, name string) (*Resource, error) {
	const query = `
		SELECT id, name, created_at, updated_at
		FROM resources
		WHERE name = $1
	`
	return r.getOne(ctx, query, name)
}

func (r *pgxRepository) getOne(ctx context.Context, query string, arg any) (*Resource, error) {
	var res Resource
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&res.ID, &res.Name, &res.CreatedAt, &res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return &res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	filter.normalize()

	const query = `
		SELECT id, name, created_at, updated_at, count(*) OVER() as total_count
		FROM resources
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, filter.PageSize, filter.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	var total int

	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.CreatedAt, &res.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}

	return result, total, nil
}

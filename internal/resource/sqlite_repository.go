package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/clock"
)

type sqliteRepository struct {
	db    *sql.DB
	clock clock.Clock
}

func NewSQLiteRepository(db *sql.DB, clk clock.Clock) Repository {
	return &sqliteRepository{db: db, clock: clk}
}

func (r *sqliteRepository) Create(ctx context.Context, res *Resource) error {
	const query = `
		INSERT INTO resources (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	now := r.clock.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()

	if _, err := r.db.ExecContext(ctx, query, id, res.Name, now.UnixMicro(), now.UnixMicro()); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrNameTaken
		}
		return fmt.Errorf("create resource failed: %w", err)
	}

	res.ID = id
	res.CreatedAt = now
	res.UpdatedAt = now
	return nil
}

func (r *sqliteRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	const query = `SELECT id, name, created_at, updated_at FROM resources WHERE id = ?`
	return r.getOne(ctx, query, id)
}

func (r *sqliteRepository) GetByName(ctx context.Context, name string) (*Resource, error) {
	const query = `SELECT id, name, created_at, updated_at FROM resources WHERE name = ?`
	return r.getOne(ctx, query, name)
}

func (r *sqliteRepository) getOne(ctx context.Context, query string, arg any) (*Resource, error) {
	var (
		res                  Resource
		createdAt, updatedAt int64
	)
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&res.ID, &res.Name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	res.CreatedAt = time.UnixMicro(createdAt).UTC()
	res.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return &res, nil
}

func (r *sqliteRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	filter.normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM resources`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count resources failed: %w", err)
	}

	const query = `
		SELECT id, name, created_at, updated_at
		FROM resources
		ORDER BY name ASC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, filter.PageSize, filter.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	for rows.Next() {
		var (
			res                  Resource
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&res.ID, &res.Name, &createdAt, &updatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		res.CreatedAt = time.UnixMicro(createdAt).UTC()
		res.UpdatedAt = time.UnixMicro(updatedAt).UTC()
		result = append(result, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}

	return result, total, nil
}

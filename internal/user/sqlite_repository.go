package user

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

type sqliteUserRepository struct {
	db    *sql.DB
	clock clock.Clock
}

func NewSQLiteRepository(db *sql.DB, clk clock.Clock) Repository {
	return &sqliteUserRepository{db: db, clock: clk}
}

const selectSQLiteUser = `
	SELECT id, email, first_name, last_name, role, api_key_prefix, api_key_hash, created_at, updated_at
	FROM users
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner) (*User, error) {
	var (
		u                    User
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role,
		&u.APIKeyPrefix, &u.APIKeyHash, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	u.CreatedAt = time.UnixMicro(createdAt).UTC()
	u.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return &u, nil
}

func (r *sqliteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, selectSQLiteUser+" WHERE id = ?", id)
}

func (r *sqliteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, selectSQLiteUser+" WHERE email = ?", email)
}

func (r *sqliteUserRepository) GetByAPIKeyPrefix(ctx context.Context, prefix string) (*User, error) {
	return r.getOne(ctx, selectSQLiteUser+" WHERE api_key_prefix = ?", prefix)
}

func (r *sqliteUserRepository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user query failed: %w", err)
	}
	return u, nil
}

func (r *sqliteUserRepository) Create(ctx context.Context, u *User) error {
	const query = `
		INSERT INTO users (id, email, first_name, last_name, role, api_key_prefix, api_key_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := r.clock.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()

	if _, err := r.db.ExecContext(ctx, query,
		id, u.Email, u.FirstName, u.LastName, u.Role, u.APIKeyPrefix, u.APIKeyHash,
		now.UnixMicro(), now.UnixMicro(),
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("create user failed: %w", err)
	}

	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *sqliteUserRepository) List(ctx context.Context, filter UserFilter) ([]*User, int, error) {
	filter.normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users failed: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectSQLiteUser+" ORDER BY created_at ASC LIMIT ? OFFSET ?",
		filter.PageSize, (filter.Page-1)*filter.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list users failed: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user failed: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users failed: %w", err)
	}
	return users, total, nil
}

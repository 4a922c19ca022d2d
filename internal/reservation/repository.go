package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Insert stores r and fills in its ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, r *Reservation) error
	// Update persists the resource and window of r and refreshes its UpdatedAt.
	Update(ctx context.Context, r *Reservation) error
	// Delete removes the reservation if it is visible to ownerID ("" sees all)
	// and reports whether a row was removed.
	Delete(ctx context.Context, id, ownerID string) (bool, error)
	// Find returns reservations ordered by created_at DESC, id DESC.
	Find(ctx context.Context, f Filter) ([]*Reservation, error)
	Count(ctx context.Context, f Filter) (int, error)
	Overlapping(ctx context.Context, resourceID string, w Window, excludeID string) ([]*Reservation, error)

	// LockResource serializes check-then-write sequences on one resource
	// until the surrounding transaction ends.
	LockResource(ctx context.Context, resourceID string) error
}

// Store is a Repository that can also run a unit of work in one transaction.
type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	Ping(ctx context.Context) error
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var pgQueries = queryBuilder{
	sb:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	timeArg: func(t time.Time) any { return t },
}

type pgxRepository struct {
	q pgxQuerier
}

type pgxStore struct {
	*pgxRepository
	pool *pgxpool.Pool
}

func NewPgxStore(pool *pgxpool.Pool) Store {
	return &pgxStore{
		pgxRepository: &pgxRepository{q: pool},
		pool:          pool,
	}
}

func (s *pgxStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgxRepository{q: tx})
	})
}

func (s *pgxStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (repo *pgxRepository) Insert(ctx context.Context, r *Reservation) error {
	query, args, err := pgQueries.sb.Insert("reservations").
		Columns("resource_id", "user_id", "start_time", "end_time").
		Values(r.ResourceID, r.UserID, r.StartTime, r.EndTime).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if err := repo.q.QueryRow(ctx, query, args...).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return mapPgError(err, "create reservation failed")
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return nil
}

func (repo *pgxRepository) Update(ctx context.Context, r *Reservation) error {
	query, args, err := pgQueries.sb.Update("reservations").
		Set("resource_id", r.ResourceID).
		Set("start_time", r.StartTime).
		Set("end_time", r.EndTime).
		// Strictly increasing even when two updates land in the same microsecond.
		Set("updated_at", squirrel.Expr("greatest(clock_timestamp(), updated_at + interval '1 microsecond')")).
		Where(squirrel.Eq{"id": r.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	if err := repo.q.QueryRow(ctx, query, args...).Scan(&r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapPgError(err, "update reservation failed")
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	return nil
}

func (repo *pgxRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	query, args, err := pgQueries.deleteReservation(id, ownerID).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete reservation query failed: %w", err)
	}

	ct, err := repo.q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete reservation failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (repo *pgxRepository) Find(ctx context.Context, f Filter) ([]*Reservation, error) {
	builder := pgQueries.selectReservations(f)
	if f.ForUpdate {
		builder = builder.Suffix("FOR UPDATE OF rv")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find reservations query failed: %w", err)
	}
	return repo.queryReservations(ctx, query, args)
}

func (repo *pgxRepository) Count(ctx context.Context, f Filter) (int, error) {
	query, args, err := pgQueries.countReservations(f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count reservations query failed: %w", err)
	}

	var total int
	if err := repo.q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count reservations failed: %w", err)
	}
	return total, nil
}

func (repo *pgxRepository) Overlapping(ctx context.Context, resourceID string, w Window, excludeID string) ([]*Reservation, error) {
	query, args, err := pgQueries.overlapping(resourceID, w, excludeID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlap query failed: %w", err)
	}
	return repo.queryReservations(ctx, query, args)
}

func (repo *pgxRepository) LockResource(ctx context.Context, resourceID string) error {
	_, err := repo.q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))", resourceID)
	if err != nil {
		return fmt.Errorf("lock resource failed: %w", err)
	}
	return nil
}

func (repo *pgxRepository) queryReservations(ctx context.Context, query string, args []any) ([]*Reservation, error) {
	rows, err := repo.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations failed: %w", err)
	}
	defer rows.Close()

	var reservations []*Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(
			&r.ID, &r.ResourceID, &r.ResourceName, &r.UserID,
			&r.StartTime, &r.EndTime, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reservation failed: %w", err)
		}
		r.StartTime = r.StartTime.UTC()
		r.EndTime = r.EndTime.UTC()
		r.CreatedAt = r.CreatedAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
		reservations = append(reservations, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations failed: %w", err)
	}
	return reservations, nil
}

// mapPgError turns constraint violations into domain errors.
// The exclusion constraint backs up the advisory lock, so hitting it still means a conflict.
func mapPgError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return ErrTimeConflict
		case pgerrcode.ForeignKeyViolation:
			if pgErr.ConstraintName == "reservations_resource_id_fkey" {
				return ErrResourceNotFound
			}
		case pgerrcode.CheckViolation:
			return ErrInvalidTimeRange
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/clock"
)

// sqliteQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqliteQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var sqliteQueries = queryBuilder{
	sb:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	timeArg: func(t time.Time) any { return t.UnixMicro() },
}

type sqliteRepository struct {
	q     sqliteQuerier
	clock clock.Clock
}

type sqliteStore struct {
	*sqliteRepository
	db *sql.DB
}

// NewSQLiteStore returns a Store backed by a database opened with db.OpenSQLite.
// Transactions begin IMMEDIATE, so concurrent writers are serialized by SQLite itself.
func NewSQLiteStore(db *sql.DB, clk clock.Clock) Store {
	return &sqliteStore{
		sqliteRepository: &sqliteRepository{q: db, clock: clk},
		db:               db,
	}
}

func (s *sqliteStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}

	if err := fn(ctx, &sqliteRepository{q: tx, clock: s.clock}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction failed: %w", err)
	}
	return nil
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (repo *sqliteRepository) now() time.Time {
	return normalizeTime(repo.clock.Now())
}

func (repo *sqliteRepository) Insert(ctx context.Context, r *Reservation) error {
	now := repo.now()
	id := uuid.NewString()

	query, args, err := sqliteQueries.sb.Insert("reservations").
		Columns("id", "resource_id", "user_id", "start_time", "end_time", "created_at", "updated_at").
		Values(id, r.ResourceID, r.UserID, r.StartTime.UnixMicro(), r.EndTime.UnixMicro(), now.UnixMicro(), now.UnixMicro()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if _, err := repo.q.ExecContext(ctx, query, args...); err != nil {
		return mapSQLiteError(err, "create reservation failed")
	}

	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (repo *sqliteRepository) Update(ctx context.Context, r *Reservation) error {
	query, args, err := sqliteQueries.sb.Update("reservations").
		Set("resource_id", r.ResourceID).
		Set("start_time", r.StartTime.UnixMicro()).
		Set("end_time", r.EndTime.UnixMicro()).
		Set("updated_at", squirrel.Expr("MAX(?, updated_at + 1)", repo.now().UnixMicro())).
		Where(squirrel.Eq{"id": r.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	var updatedAt int64
	if err := repo.q.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return mapSQLiteError(err, "update reservation failed")
	}
	r.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return nil
}

func (repo *sqliteRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	query, args, err := sqliteQueries.deleteReservation(id, ownerID).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete reservation query failed: %w", err)
	}

	res, err := repo.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete reservation failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete reservation failed: %w", err)
	}
	return n > 0, nil
}

// Find ignores ForUpdate; the IMMEDIATE transaction already holds the write lock.
func (repo *sqliteRepository) Find(ctx context.Context, f Filter) ([]*Reservation, error) {
	query, args, err := sqliteQueries.selectReservations(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find reservations query failed: %w", err)
	}
	return repo.queryReservations(ctx, query, args)
}

func (repo *sqliteRepository) Count(ctx context.Context, f Filter) (int, error) {
	query, args, err := sqliteQueries.countReservations(f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count reservations query failed: %w", err)
	}

	var total int
	if err := repo.q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count reservations failed: %w", err)
	}
	return total, nil
}

func (repo *sqliteRepository) Overlapping(ctx context.Context, resourceID string, w Window, excludeID string) ([]*Reservation, error) {
	query, args, err := sqliteQueries.overlapping(resourceID, w, excludeID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlap query failed: %w", err)
	}
	return repo.queryReservations(ctx, query, args)
}

func (repo *sqliteRepository) LockResource(ctx context.Context, resourceID string) error {
	return nil
}

func (repo *sqliteRepository) queryReservations(ctx context.Context, query string, args []any) ([]*Reservation, error) {
	rows, err := repo.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations failed: %w", err)
	}
	defer rows.Close()

	var reservations []*Reservation
	for rows.Next() {
		var (
			r                                      Reservation
			startTime, endTime, createdAt, updated int64
		)
		if err := rows.Scan(
			&r.ID, &r.ResourceID, &r.ResourceName, &r.UserID,
			&startTime, &endTime, &createdAt, &updated,
		); err != nil {
			return nil, fmt.Errorf("scan reservation failed: %w", err)
		}
		r.StartTime = time.UnixMicro(startTime).UTC()
		r.EndTime = time.UnixMicro(endTime).UTC()
		r.CreatedAt = time.UnixMicro(createdAt).UTC()
		r.UpdatedAt = time.UnixMicro(updated).UTC()
		reservations = append(reservations, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations failed: %w", err)
	}
	return reservations, nil
}

func mapSQLiteError(err error, msg string) error {
	switch {
	case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return ErrResourceNotFound
	case strings.Contains(err.Error(), "CHECK constraint failed"):
		return ErrInvalidTimeRange
	}
	return fmt.Errorf("%s: %w", msg, err)
}

package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/parking-booking-backend/internal/config"
	"github.com/nekogravitycat/parking-booking-backend/internal/db"
)

// Database is the opened backing store. Exactly one field is non-nil.
type Database struct {
	Pool   *pgxpool.Pool
	SQLite *sql.DB
}

// OpenDatabase connects to the store selected by cfg.DBDriver.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*Database, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Database{SQLite: sqlDB}, nil
	default:
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return &Database{Pool: pool}, nil
	}
}

// MigrateUp applies pending schema migrations. The SQLite schema is created on open.
func (d *Database) MigrateUp() error {
	if d.Pool == nil {
		return nil
	}
	return db.MigrateUp(d.Pool)
}

// MigrateDown rolls back steps migrations. Not supported on SQLite.
func (d *Database) MigrateDown(steps int) error {
	if d.Pool == nil {
		return fmt.Errorf("migrate down is only supported on %s", config.DriverPostgres)
	}
	return db.MigrateDown(d.Pool, steps)
}

func (d *Database) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.SQLite != nil {
		_ = d.SQLite.Close()
	}
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=tradesense sslmode=disable"
func NewDB(ctx context.Context, connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// schema creates the tables used by the repositories. Every statement is
// idempotent so Migrate can run on each start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS plans (
		id                 UUID PRIMARY KEY,
		name               TEXT NOT NULL UNIQUE,
		price              NUMERIC(18, 4) NOT NULL,
		starting_balance   NUMERIC(18, 4) NOT NULL,
		profit_target_pct  NUMERIC(9, 4) NOT NULL,
		max_daily_loss_pct NUMERIC(9, 4) NOT NULL,
		max_total_loss_pct NUMERIC(9, 4) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS challenges (
		id               UUID PRIMARY KEY,
		user_id          UUID NOT NULL,
		plan_id          UUID NOT NULL REFERENCES plans (id),
		status           TEXT NOT NULL DEFAULT 'active',
		starting_balance NUMERIC(18, 4) NOT NULL,
		equity           NUMERIC(18, 4) NOT NULL,
		day_start_equity NUMERIC(18, 4) NOT NULL,
		day_start_date   DATE NOT NULL DEFAULT CURRENT_DATE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_challenges_status ON challenges (status)`,
}

// Migrate creates the schema inside a single transaction
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool for connStr and pings it.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS tables (
	id         UUID PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'in_progress',
	winner     TEXT,
	start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS table_actions (
	table_id     UUID NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
	action_index INT NOT NULL,
	seat         INT NOT NULL,
	actor_id     TEXT NOT NULL,
	action_type  TEXT NOT NULL,
	payload      JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (table_id, action_index)
);
`

// Migrate creates the history tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

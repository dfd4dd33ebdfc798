package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/susu3304/billdividr/internal/group"
)

type DB struct {
	pool *pgxpool.Pool
}

var _ group.Store = (*DB)(nil)

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS groups (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner_id TEXT NOT NULL,
	channel_id TEXT UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_groups_owner_id ON groups(owner_id);

CREATE TABLE IF NOT EXISTS members (
	id TEXT PRIMARY KEY,
	group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	discord_user_id TEXT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_members_group_id ON members(group_id);

CREATE TABLE IF NOT EXISTS expenses (
	id TEXT PRIMARY KEY,
	group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	description TEXT NOT NULL DEFAULT '',
	amount DOUBLE PRECISION NOT NULL,
	payer_id TEXT NOT NULL,
	involved_member_ids TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id);

CREATE TABLE IF NOT EXISTS settlements (
	id TEXT PRIMARY KEY,
	group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	amount DOUBLE PRECISION NOT NULL,
	payer_id TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	recorded_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(group_id);

CREATE TABLE IF NOT EXISTS reminders (
	group_id TEXT PRIMARY KEY REFERENCES groups(id) ON DELETE CASCADE,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	interval_minutes INTEGER NOT NULL DEFAULT 1440,
	next_due_at TIMESTAMPTZ,
	last_sent_at TIMESTAMPTZ
);
`

const uniqueViolation = "23505"

// mapError translates driver errors into group errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return group.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "groups_channel_id_key" {
		return group.ErrChannelInUse
	}
	return err
}

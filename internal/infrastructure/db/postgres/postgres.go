// Package postgres provides a PostgreSQL implementation of the account and
// event stores on top of pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTimeout = 10 * time.Second

// Connect opens a pgx pool, verifies connectivity and applies migrations.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('seller', 'admin')),
			password_hash TEXT NOT NULL CHECK (password_hash <> ''),
			created_at TIMESTAMPTZ NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL,
			CONSTRAINT ` + constraintEmailUnique + ` UNIQUE (email),
			CONSTRAINT ` + constraintUsernameUnique + ` UNIQUE (username)
		);`,
		`CREATE INDEX IF NOT EXISTS accounts_created_at_idx ON accounts (created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS account_events (
			id BIGSERIAL PRIMARY KEY,
			type TEXT NOT NULL,
			account_id TEXT NOT NULL,
			actor_id TEXT,
			occurred_at TIMESTAMPTZ NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS account_events_account_idx ON account_events (account_id, occurred_at);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

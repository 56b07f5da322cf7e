package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations is an ordered list of SQL statements to run at startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id               TEXT PRIMARY KEY,
		first_name       TEXT NOT NULL DEFAULT '',
		last_name        TEXT NOT NULL DEFAULT '',
		first_name_lower TEXT NOT NULL DEFAULT '',
		last_name_lower  TEXT NOT NULL DEFAULT '',
		middle_initial   TEXT NOT NULL DEFAULT '',
		birthday         TEXT NOT NULL DEFAULT '',
		gender           TEXT NOT NULL DEFAULT '',
		race             TEXT NOT NULL DEFAULT '',
		postal_code      TEXT NOT NULL DEFAULT '',
		num_kids         INTEGER NOT NULL DEFAULT 0,
		notes            TEXT NOT NULL DEFAULT '',
		is_checked_in    BOOLEAN NOT NULL DEFAULT FALSE,
		is_banned        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS clients_first_name_lower_idx ON clients (first_name_lower text_pattern_ops)`,
	`CREATE INDEX IF NOT EXISTS clients_last_name_lower_idx ON clients (last_name_lower text_pattern_ops)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id                   TEXT PRIMARY KEY,
		client_id            TEXT NOT NULL REFERENCES clients(id),
		ts                   BIGINT NOT NULL,
		household            TEXT NOT NULL DEFAULT '',
		notes                TEXT NOT NULL DEFAULT '',
		clothing_men         BOOLEAN NOT NULL DEFAULT FALSE,
		clothing_women       BOOLEAN NOT NULL DEFAULT FALSE,
		clothing_boy         BOOLEAN NOT NULL DEFAULT FALSE,
		clothing_girl        BOOLEAN NOT NULL DEFAULT FALSE,
		backpack             BOOLEAN NOT NULL DEFAULT FALSE,
		sleeping_bag         BOOLEAN NOT NULL DEFAULT FALSE,
		bus_ticket           INTEGER NOT NULL DEFAULT 0,
		gift_card            INTEGER NOT NULL DEFAULT 0,
		diaper               INTEGER NOT NULL DEFAULT 0,
		financial_assistance INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS visits_client_id_ts_idx ON visits (client_id, ts DESC)`,
	`CREATE TABLE IF NOT EXISTS staff (
		id            BIGSERIAL PRIMARY KEY,
		role          TEXT NOT NULL DEFAULT 'staff',
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS staff_verifications (
		token      TEXT PRIMARY KEY,
		staff_id   BIGINT NOT NULL REFERENCES staff(id),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate runs all migrations in order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

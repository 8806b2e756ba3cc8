package db

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id       BIGSERIAL PRIMARY KEY,
		owner_id BIGINT    NOT NULL,
		body     TEXT      NOT NULL,
		day      TEXT      NOT NULL,
		done     BOOLEAN   NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_owner_day_idx ON tasks (owner_id, day)`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id          BIGSERIAL   PRIMARY KEY,
		event_name  TEXT        NOT NULL,
		event_time  TIMESTAMPTZ NOT NULL,
		owner_id    BIGINT      NOT NULL,
		session_id  TEXT,
		platform    TEXT        NOT NULL,
		source_event_key TEXT   UNIQUE,
		properties  JSONB       NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE INDEX IF NOT EXISTS analytics_events_owner_idx ON analytics_events (owner_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL,
		body     TEXT    NOT NULL,
		day      TEXT    NOT NULL,
		done     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_owner_day_idx ON tasks (owner_id, day)`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id          INTEGER   PRIMARY KEY AUTOINCREMENT,
		event_name  TEXT      NOT NULL,
		event_time  TIMESTAMP NOT NULL,
		owner_id    INTEGER   NOT NULL,
		session_id  TEXT,
		platform    TEXT      NOT NULL,
		source_event_key TEXT UNIQUE,
		properties  TEXT      NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS analytics_events_owner_idx ON analytics_events (owner_id)`,
}

// Migrate creates the tables if they don't exist yet.
func Migrate(ctx context.Context, d *DB) error {
	schema := sqliteSchema
	if d.Driver == DriverPostgres {
		schema = postgresSchema
	}

	for i, stmt := range schema {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

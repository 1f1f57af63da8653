package db

import (
	"context"
	"fmt"
)

// schemaStatements holds the DDL for the tracking store, applied in order by
// InitSchema. The two partial unique indexes on appointments are load-bearing:
// they are what makes concurrent starts against the same phase (or by the same
// operator) lose with a unique violation instead of double-inserting.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('admin', 'operator')),
		sector TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS phases (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS recipe_steps (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		product_id UUID NOT NULL REFERENCES products(id),
		phase_id UUID NOT NULL REFERENCES phases(id),
		ordinal INT NOT NULL CHECK (ordinal > 0),
		estimated_minutes INT NOT NULL DEFAULT 0 CHECK (estimated_minutes >= 0),
		shelf_life_hours INT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS machines (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS batches (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'not_started'
			CHECK (status IN ('not_started', 'in_production', 'paused', 'completed', 'cancelled')),
		notes TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS batch_products (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		batch_id UUID NOT NULL REFERENCES batches(id),
		product_id UUID NOT NULL REFERENCES products(id),
		quantity INT NOT NULL DEFAULT 1,
		notes TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS batch_phases (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		batch_id UUID NOT NULL REFERENCES batches(id),
		phase_id UUID NOT NULL REFERENCES phases(id),
		product_id UUID NOT NULL REFERENCES products(id),
		ordinal INT NOT NULL CHECK (ordinal > 0),
		estimated_minutes INT NOT NULL DEFAULT 0 CHECK (estimated_minutes >= 0),
		shelf_life_hours INT,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (finished_at IS NULL OR started_at IS NULL OR finished_at >= started_at)
	)`,

	`CREATE TABLE IF NOT EXISTS appointments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		batch_phase_id UUID NOT NULL REFERENCES batch_phases(id),
		operator_id UUID NOT NULL REFERENCES users(id),
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		finished_at TIMESTAMPTZ,
		notes TEXT NOT NULL DEFAULT '',
		real_minutes INT,
		exceeded_time BOOLEAN,
		delay_minutes INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_open_phase_idx
		ON appointments (batch_phase_id) WHERE finished_at IS NULL`,

	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_open_operator_idx
		ON appointments (operator_id) WHERE finished_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS checklist_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		phase_id UUID NOT NULL REFERENCES phases(id),
		description TEXT NOT NULL,
		mandatory BOOLEAN NOT NULL DEFAULT TRUE,
		ordinal INT NOT NULL DEFAULT 1,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS checklist_answers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		appointment_id UUID NOT NULL REFERENCES appointments(id),
		checklist_item_id UUID NOT NULL REFERENCES checklist_items(id),
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		note TEXT NOT NULL DEFAULT '',
		answered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (appointment_id, checklist_item_id)
	)`,

	`CREATE INDEX IF NOT EXISTS batch_phases_batch_idx ON batch_phases (batch_id)`,
	`CREATE INDEX IF NOT EXISTS appointments_operator_idx ON appointments (operator_id, started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS checklist_items_phase_idx ON checklist_items (phase_id)`,
}

// InitSchema creates all tables and indexes if they do not exist yet.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

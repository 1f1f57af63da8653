package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateMachine inserts a catalog machine
func (db *DB) CreateMachine(ctx context.Context, code, description, sector string) (*Machine, error) {
	var m Machine
	err := db.pool.QueryRow(ctx,
		`INSERT INTO machines (code, description, sector)
		 VALUES ($1, $2, $3)
		 RETURNING id, code, description, sector, active, created_at`,
		code, description, sector,
	).Scan(&m.ID, &m.Code, &m.Description, &m.Sector, &m.Active, &m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "machine", Code: code}
		}
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}
	return &m, nil
}

// GetMachine retrieves an active machine by ID
func (db *DB) GetMachine(ctx context.Context, id uuid.UUID) (*Machine, error) {
	var m Machine
	err := db.pool.QueryRow(ctx,
		`SELECT id, code, description, sector, active, created_at
		 FROM machines WHERE id = $1 AND active`, id,
	).Scan(&m.ID, &m.Code, &m.Description, &m.Sector, &m.Active, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}
	return &m, nil
}

// ListMachines retrieves active machines ordered by code
func (db *DB) ListMachines(ctx context.Context) ([]Machine, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, code, description, sector, active, created_at
		 FROM machines WHERE active ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	var machines []Machine
	for rows.Next() {
		var m Machine
		if err := rows.Scan(&m.ID, &m.Code, &m.Description, &m.Sector, &m.Active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// UpdateMachine updates a machine's code, description and sector
func (db *DB) UpdateMachine(ctx context.Context, id uuid.UUID, code, description, sector string) (*Machine, error) {
	var m Machine
	err := db.pool.QueryRow(ctx,
		`UPDATE machines SET code = $2, description = $3, sector = $4
		 WHERE id = $1 AND active
		 RETURNING id, code, description, sector, active, created_at`,
		id, code, description, sector,
	).Scan(&m.ID, &m.Code, &m.Description, &m.Sector, &m.Active, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "machine", ID: id}
		}
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "machine", Code: code}
		}
		return nil, fmt.Errorf("failed to update machine: %w", err)
	}
	return &m, nil
}

// DeactivateMachine soft-deletes a machine
func (db *DB) DeactivateMachine(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE machines SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate machine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "machine", ID: id}
	}
	return nil
}

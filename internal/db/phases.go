package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreatePhase inserts a catalog phase
func (db *DB) CreatePhase(ctx context.Context, code, description string) (*Phase, error) {
	var p Phase
	err := db.pool.QueryRow(ctx,
		`INSERT INTO phases (code, description)
		 VALUES ($1, $2)
		 RETURNING id, code, description, active, created_at`,
		code, description,
	).Scan(&p.ID, &p.Code, &p.Description, &p.Active, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "phase", Code: code}
		}
		return nil, fmt.Errorf("failed to create phase: %w", err)
	}
	return &p, nil
}

// GetPhase retrieves an active phase by ID
func (db *DB) GetPhase(ctx context.Context, id uuid.UUID) (*Phase, error) {
	var p Phase
	err := db.pool.QueryRow(ctx,
		`SELECT id, code, description, active, created_at
		 FROM phases WHERE id = $1 AND active`, id,
	).Scan(&p.ID, &p.Code, &p.Description, &p.Active, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get phase: %w", err)
	}
	return &p, nil
}

// ListPhases retrieves active phases ordered by code
func (db *DB) ListPhases(ctx context.Context) ([]Phase, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, code, description, active, created_at
		 FROM phases WHERE active ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	defer rows.Close()

	var phases []Phase
	for rows.Next() {
		var p Phase
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

// UpdatePhase updates a phase's code and description
func (db *DB) UpdatePhase(ctx context.Context, id uuid.UUID, code, description string) (*Phase, error) {
	var p Phase
	err := db.pool.QueryRow(ctx,
		`UPDATE phases SET code = $2, description = $3
		 WHERE id = $1 AND active
		 RETURNING id, code, description, active, created_at`,
		id, code, description,
	).Scan(&p.ID, &p.Code, &p.Description, &p.Active, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "phase", ID: id}
		}
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "phase", Code: code}
		}
		return nil, fmt.Errorf("failed to update phase: %w", err)
	}
	return &p, nil
}

// DeactivatePhase soft-deletes a phase
func (db *DB) DeactivatePhase(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE phases SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "phase", ID: id}
	}
	return nil
}

// ChecklistItemInput holds the writable fields of a checklist item
type ChecklistItemInput struct {
	PhaseID     uuid.UUID
	Description string
	Mandatory   bool
	Ordinal     int
}

// CreateChecklistItem inserts a checklist item for a phase
func (db *DB) CreateChecklistItem(ctx context.Context, input ChecklistItemInput) (*ChecklistItem, error) {
	phase, err := db.GetPhase(ctx, input.PhaseID)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, &NotFoundError{Entity: "phase", ID: input.PhaseID}
	}

	var item ChecklistItem
	err = db.pool.QueryRow(ctx,
		`INSERT INTO checklist_items (phase_id, description, mandatory, ordinal)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, phase_id, description, mandatory, ordinal, active, created_at`,
		input.PhaseID, input.Description, input.Mandatory, input.Ordinal,
	).Scan(&item.ID, &item.PhaseID, &item.Description, &item.Mandatory,
		&item.Ordinal, &item.Active, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create checklist item: %w", err)
	}
	return &item, nil
}

// GetChecklistItem retrieves an active checklist item by ID
func (db *DB) GetChecklistItem(ctx context.Context, id uuid.UUID) (*ChecklistItem, error) {
	var item ChecklistItem
	err := db.pool.QueryRow(ctx,
		`SELECT id, phase_id, description, mandatory, ordinal, active, created_at
		 FROM checklist_items WHERE id = $1 AND active`, id,
	).Scan(&item.ID, &item.PhaseID, &item.Description, &item.Mandatory,
		&item.Ordinal, &item.Active, &item.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get checklist item: %w", err)
	}
	return &item, nil
}

// ListChecklistItems retrieves active checklist items, optionally filtered by
// phase, ordered by phase then ordinal.
func (db *DB) ListChecklistItems(ctx context.Context, phaseID *uuid.UUID) ([]ChecklistItem, error) {
	query := `SELECT id, phase_id, description, mandatory, ordinal, active, created_at
	          FROM checklist_items WHERE active`
	args := []any{}
	if phaseID != nil {
		query += ` AND phase_id = $1`
		args = append(args, *phaseID)
	}
	query += ` ORDER BY phase_id, ordinal, created_at`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist items: %w", err)
	}
	defer rows.Close()

	var items []ChecklistItem
	for rows.Next() {
		var item ChecklistItem
		if err := rows.Scan(&item.ID, &item.PhaseID, &item.Description, &item.Mandatory,
			&item.Ordinal, &item.Active, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateChecklistItem updates a checklist item's description, mandatory flag
// and ordinal.
func (db *DB) UpdateChecklistItem(ctx context.Context, id uuid.UUID, description string, mandatory bool, ordinal int) (*ChecklistItem, error) {
	var item ChecklistItem
	err := db.pool.QueryRow(ctx,
		`UPDATE checklist_items SET description = $2, mandatory = $3, ordinal = $4
		 WHERE id = $1 AND active
		 RETURNING id, phase_id, description, mandatory, ordinal, active, created_at`,
		id, description, mandatory, ordinal,
	).Scan(&item.ID, &item.PhaseID, &item.Description, &item.Mandatory,
		&item.Ordinal, &item.Active, &item.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "checklist item", ID: id}
		}
		return nil, fmt.Errorf("failed to update checklist item: %w", err)
	}
	return &item, nil
}

// DeactivateChecklistItem soft-deletes a checklist item. Because the finish
// gate re-reads items every time, a deactivated mandatory item stops gating
// immediately.
func (db *DB) DeactivateChecklistItem(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE checklist_items SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate checklist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "checklist item", ID: id}
	}
	return nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const batchColumns = `id, code, description, status, notes, active, created_at, completed_at`

func scanBatch(row pgx.Row) (*Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.Code, &b.Description, &b.Status, &b.Notes,
		&b.Active, &b.CreatedAt, &b.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBatch inserts a new batch in not_started status
func (db *DB) CreateBatch(ctx context.Context, code, description, notes string) (*Batch, error) {
	batch, err := scanBatch(db.pool.QueryRow(ctx,
		`INSERT INTO batches (code, description, notes)
		 VALUES ($1, $2, $3)
		 RETURNING `+batchColumns,
		code, description, notes))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "batch", Code: code}
		}
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	return batch, nil
}

// GetBatch retrieves an active batch by ID
func (db *DB) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	batch, err := scanBatch(db.pool.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE id = $1 AND active`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return batch, nil
}

// ListBatches retrieves active batches, newest first
func (db *DB) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE active
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, *batch)
	}
	return batches, rows.Err()
}

// UpdateBatch updates a batch's mutable fields. Status changes here cover the
// manual transitions (pause, resume, cancel); completion is only ever set by
// the finish cascade in FinishAppointment.
func (db *DB) UpdateBatch(ctx context.Context, id uuid.UUID, code, description, notes, status string) (*Batch, error) {
	if status == BatchStatusCompleted {
		return nil, &ConflictError{Reason: "batch completion is driven by finishing its last phase"}
	}
	batch, err := scanBatch(db.pool.QueryRow(ctx,
		`UPDATE batches SET code = $2, description = $3, notes = $4, status = $5
		 WHERE id = $1 AND active
		 RETURNING `+batchColumns,
		id, code, description, notes, status))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "batch", ID: id}
		}
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "batch", Code: code}
		}
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}
	return batch, nil
}

// DeactivateBatch soft-deletes a batch
func (db *DB) DeactivateBatch(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE batches SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "batch", ID: id}
	}
	return nil
}

// AttachProduct links a product to a batch and materializes the product's
// recipe into batch_phases, copying ordinal and estimated minutes verbatim.
// Attaching the same product twice is a conflict.
func (db *DB) AttachProduct(ctx context.Context, batchID, productID uuid.UUID, quantity int, notes string) (*BatchProduct, error) {
	batch, err := db.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, &NotFoundError{Entity: "batch", ID: batchID}
	}
	product, err := db.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &NotFoundError{Entity: "product", ID: productID}
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM batch_products
			WHERE batch_id = $1 AND product_id = $2 AND active
		 )`, batchID, productID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check product attachment: %w", err)
	}
	if exists {
		return nil, &ConflictError{Reason: "product already attached to batch"}
	}

	var bp BatchProduct
	err = tx.QueryRow(ctx,
		`INSERT INTO batch_products (batch_id, product_id, quantity, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, batch_id, product_id, quantity, notes, active, created_at`,
		batchID, productID, quantity, notes,
	).Scan(&bp.ID, &bp.BatchID, &bp.ProductID, &bp.Quantity, &bp.Notes, &bp.Active, &bp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to attach product: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO batch_phases (batch_id, phase_id, product_id, ordinal, estimated_minutes, shelf_life_hours)
		 SELECT $1, rs.phase_id, rs.product_id, rs.ordinal, rs.estimated_minutes, rs.shelf_life_hours
		 FROM recipe_steps rs
		 WHERE rs.product_id = $2 AND rs.active
		 ORDER BY rs.ordinal, rs.created_at`,
		batchID, productID); err != nil {
		return nil, fmt.Errorf("failed to materialize batch phases: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &bp, nil
}

// ListBatchProducts returns a batch's active product links
func (db *DB) ListBatchProducts(ctx context.Context, batchID uuid.UUID) ([]BatchProduct, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, batch_id, product_id, quantity, notes, active, created_at
		 FROM batch_products WHERE batch_id = $1 AND active
		 ORDER BY created_at`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch products: %w", err)
	}
	defer rows.Close()

	var links []BatchProduct
	for rows.Next() {
		var bp BatchProduct
		if err := rows.Scan(&bp.ID, &bp.BatchID, &bp.ProductID, &bp.Quantity,
			&bp.Notes, &bp.Active, &bp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch product: %w", err)
		}
		links = append(links, bp)
	}
	return links, rows.Err()
}

// ListBatchPhases returns a batch's active phases ordered by ordinal, joined
// with phase catalog data.
func (db *DB) ListBatchPhases(ctx context.Context, batchID uuid.UUID) ([]BatchPhase, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT bp.id, bp.batch_id, bp.phase_id, bp.product_id, ph.code, ph.description,
		        bp.ordinal, bp.estimated_minutes, bp.shelf_life_hours,
		        bp.started_at, bp.finished_at, bp.active, bp.created_at
		 FROM batch_phases bp
		 JOIN phases ph ON ph.id = bp.phase_id
		 WHERE bp.batch_id = $1 AND bp.active
		 ORDER BY bp.ordinal, bp.created_at`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch phases: %w", err)
	}
	defer rows.Close()

	var phases []BatchPhase
	for rows.Next() {
		var bp BatchPhase
		if err := rows.Scan(&bp.ID, &bp.BatchID, &bp.PhaseID, &bp.ProductID,
			&bp.PhaseCode, &bp.PhaseDescription, &bp.Ordinal, &bp.EstimatedMinutes,
			&bp.ShelfLifeHours, &bp.StartedAt, &bp.FinishedAt, &bp.Active, &bp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch phase: %w", err)
		}
		phases = append(phases, bp)
	}
	return phases, rows.Err()
}

// AvailableBatch is a batch an operator can pick work from
type AvailableBatch struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Product string    `json:"product"`
	Status  string    `json:"status"`
}

// ListAvailableBatches returns batches open for work (in production or
// paused), newest first, with their first attached product's description.
func (db *DB) ListAvailableBatches(ctx context.Context) ([]AvailableBatch, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT b.id, b.code, COALESCE((
			SELECT p.description FROM batch_products l
			JOIN products p ON p.id = l.product_id
			WHERE l.batch_id = b.id AND l.active AND p.active
			ORDER BY l.created_at LIMIT 1
		 ), ''), b.status
		 FROM batches b
		 WHERE b.active AND b.status IN ($1, $2)
		 ORDER BY b.created_at DESC`,
		BatchStatusInProduction, BatchStatusPaused)
	if err != nil {
		return nil, fmt.Errorf("failed to list available batches: %w", err)
	}
	defer rows.Close()

	var batches []AvailableBatch
	for rows.Next() {
		var b AvailableBatch
		if err := rows.Scan(&b.ID, &b.Code, &b.Product, &b.Status); err != nil {
			return nil, fmt.Errorf("failed to scan available batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// DuplicateBatch creates a new batch copying the source batch's product links
// and phase sequence with fresh (unstarted) timestamps.
func (db *DB) DuplicateBatch(ctx context.Context, sourceID uuid.UUID, newCode string) (*Batch, error) {
	source, err := db.GetBatch(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, &NotFoundError{Entity: "batch", ID: sourceID}
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch, err := scanBatch(tx.QueryRow(ctx,
		`INSERT INTO batches (code, description, notes)
		 VALUES ($1, $2, $3)
		 RETURNING `+batchColumns,
		newCode, source.Description+" (copy)", source.Notes))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "batch", Code: newCode}
		}
		return nil, fmt.Errorf("failed to duplicate batch: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO batch_products (batch_id, product_id, quantity, notes)
		 SELECT $1, product_id, quantity, notes
		 FROM batch_products WHERE batch_id = $2 AND active`,
		batch.ID, sourceID); err != nil {
		return nil, fmt.Errorf("failed to copy batch products: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO batch_phases (batch_id, phase_id, product_id, ordinal, estimated_minutes, shelf_life_hours)
		 SELECT $1, phase_id, product_id, ordinal, estimated_minutes, shelf_life_hours
		 FROM batch_phases WHERE batch_id = $2 AND active
		 ORDER BY ordinal, created_at`,
		batch.ID, sourceID); err != nil {
		return nil, fmt.Errorf("failed to copy batch phases: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return batch, nil
}

// RecentBatch is a dashboard row for a recently created batch
type RecentBatch struct {
	ID                   uuid.UUID `json:"id"`
	Code                 string    `json:"code"`
	Description          string    `json:"description"`
	Product              string    `json:"product"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	TotalPhases          int       `json:"total_phases"`
	FinishedPhases       int       `json:"finished_phases"`
	ProgressPercent      float64   `json:"progress_percent"`
	FinishedAppointments int       `json:"finished_appointments"`
}

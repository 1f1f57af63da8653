package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rsilveira/shopfloor/internal/progress"
)

// BatchProgress is a batch's progress report together with its header data
type BatchProgress struct {
	BatchID     uuid.UUID `json:"batch_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	progress.Report
}

// GetBatchProgress loads a batch's phase rows with their open-appointment
// claims and derives the progress report. A batch with no attached product
// yields an empty report at 0%.
func (db *DB) GetBatchProgress(ctx context.Context, batchID uuid.UUID) (*BatchProgress, error) {
	batch, err := db.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, &NotFoundError{Entity: "batch", ID: batchID}
	}

	rows, err := db.pool.Query(ctx,
		`SELECT bp.id, bp.phase_id, ph.code, ph.description, bp.ordinal,
		        bp.estimated_minutes, bp.started_at, bp.finished_at,
		        a.id, a.operator_id, COALESCE(u.name, '')
		 FROM batch_phases bp
		 JOIN phases ph ON ph.id = bp.phase_id
		 LEFT JOIN appointments a ON a.batch_phase_id = bp.id AND a.finished_at IS NULL
		 LEFT JOIN users u ON u.id = a.operator_id
		 WHERE bp.batch_id = $1 AND bp.active
		 ORDER BY bp.ordinal, bp.created_at`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch phases: %w", err)
	}
	defer rows.Close()

	var steps []progress.PhaseStatus
	for rows.Next() {
		var s progress.PhaseStatus
		if err := rows.Scan(&s.BatchPhaseID, &s.PhaseID, &s.PhaseCode, &s.PhaseDescription,
			&s.Ordinal, &s.EstimatedMinutes, &s.StartedAt, &s.FinishedAt,
			&s.OpenAppointmentID, &s.OperatorID, &s.OperatorName); err != nil {
			return nil, fmt.Errorf("failed to scan batch phase: %w", err)
		}
		s.Completed = s.FinishedAt != nil
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load batch phases: %w", err)
	}

	return &BatchProgress{
		BatchID:     batch.ID,
		Code:        batch.Code,
		Description: batch.Description,
		Status:      batch.Status,
		Report:      progress.BuildReport(steps),
	}, nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rsilveira/shopfloor/internal/kpi"
)

// StartAppointment opens a work interval for the operator on the given batch
// phase. The insert runs first and the partial unique indexes arbitrate:
// whoever commits first owns the phase, concurrent losers get a unique
// violation which is resolved here into a conflict (or into the operator's own
// existing appointment, making a repeated start a no-op).
func (db *DB) StartAppointment(ctx context.Context, operatorID, batchPhaseID uuid.UUID, notes string) (*Appointment, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var batchID uuid.UUID
	var batchStatus string
	var phaseStarted, phaseFinished *time.Time
	err = tx.QueryRow(ctx,
		`SELECT bp.batch_id, b.status, bp.started_at, bp.finished_at
		 FROM batch_phases bp
		 JOIN batches b ON b.id = bp.batch_id
		 WHERE bp.id = $1 AND bp.active AND b.active`,
		batchPhaseID).Scan(&batchID, &batchStatus, &phaseStarted, &phaseFinished)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "batch phase", ID: batchPhaseID}
		}
		return nil, fmt.Errorf("failed to load batch phase: %w", err)
	}
	if phaseFinished != nil {
		return nil, &ConflictError{Reason: "phase already finished"}
	}
	if batchStatus == BatchStatusCompleted || batchStatus == BatchStatusCancelled {
		return nil, &ConflictError{Reason: fmt.Sprintf("batch is %s", batchStatus)}
	}

	var appt Appointment
	err = tx.QueryRow(ctx,
		`INSERT INTO appointments (batch_phase_id, operator_id, notes)
		 VALUES ($1, $2, $3)
		 RETURNING id, batch_phase_id, operator_id, started_at, finished_at, notes,
		           real_minutes, exceeded_time, delay_minutes, created_at`,
		batchPhaseID, operatorID, notes,
	).Scan(&appt.ID, &appt.BatchPhaseID, &appt.OperatorID, &appt.StartedAt, &appt.FinishedAt,
		&appt.Notes, &appt.RealMinutes, &appt.ExceededTime, &appt.DelayMinutes, &appt.CreatedAt)
	if err != nil {
		tx.Rollback(ctx)
		return db.resolveStartConflict(ctx, err, operatorID, batchPhaseID)
	}

	if phaseStarted == nil {
		if _, err := tx.Exec(ctx,
			`UPDATE batch_phases SET started_at = NOW() WHERE id = $1 AND started_at IS NULL`,
			batchPhaseID); err != nil {
			return nil, fmt.Errorf("failed to stamp phase start: %w", err)
		}
	}
	if batchStatus == BatchStatusNotStarted {
		if _, err := tx.Exec(ctx,
			`UPDATE batches SET status = $2 WHERE id = $1 AND status = $3`,
			batchID, BatchStatusInProduction, BatchStatusNotStarted); err != nil {
			return nil, fmt.Errorf("failed to move batch into production: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &appt, nil
}

// resolveStartConflict turns a unique violation from StartAppointment's insert
// into the right outcome: the operator's own existing open appointment on that
// phase (repeated start), or a ConflictError naming who holds the phase.
func (db *DB) resolveStartConflict(ctx context.Context, insertErr error, operatorID, batchPhaseID uuid.UUID) (*Appointment, error) {
	switch {
	case isUniqueViolation(insertErr, "appointments_open_phase_idx"):
		var appt Appointment
		var holderName string
		err := db.pool.QueryRow(ctx,
			`SELECT a.id, a.batch_phase_id, a.operator_id, a.started_at, a.finished_at, a.notes,
			        a.real_minutes, a.exceeded_time, a.delay_minutes, a.created_at, u.name
			 FROM appointments a
			 JOIN users u ON u.id = a.operator_id
			 WHERE a.batch_phase_id = $1 AND a.finished_at IS NULL`,
			batchPhaseID,
		).Scan(&appt.ID, &appt.BatchPhaseID, &appt.OperatorID, &appt.StartedAt, &appt.FinishedAt,
			&appt.Notes, &appt.RealMinutes, &appt.ExceededTime, &appt.DelayMinutes, &appt.CreatedAt,
			&holderName)
		if err != nil {
			if err == pgx.ErrNoRows {
				// Holder finished between our insert and this read; let the
				// caller retry.
				return nil, &ConflictError{Reason: "phase claim raced, retry"}
			}
			return nil, fmt.Errorf("failed to resolve phase claim: %w", err)
		}
		if appt.OperatorID == operatorID {
			return &appt, nil
		}
		return nil, &ConflictError{
			Reason:       "phase already in progress",
			OperatorID:   appt.OperatorID,
			OperatorName: holderName,
		}

	case isUniqueViolation(insertErr, "appointments_open_operator_idx"):
		return nil, &ConflictError{Reason: "operator already has an open appointment"}

	default:
		return nil, fmt.Errorf("failed to start appointment: %w", insertErr)
	}
}

const activeAppointmentQuery = `
	SELECT a.id, a.batch_phase_id, a.operator_id, a.started_at, a.finished_at, a.notes,
	       a.real_minutes, a.exceeded_time, a.delay_minutes, a.created_at,
	       b.id, b.code, ph.id, ph.description, bp.estimated_minutes,
	       EXISTS (
			SELECT 1 FROM checklist_items ci
			WHERE ci.phase_id = bp.phase_id AND ci.active AND ci.mandatory
	       ),
	       NOT EXISTS (
			SELECT 1 FROM checklist_items ci
			WHERE ci.phase_id = bp.phase_id AND ci.active AND ci.mandatory
			  AND NOT EXISTS (
				SELECT 1 FROM checklist_answers ca
				WHERE ca.appointment_id = a.id
				  AND ca.checklist_item_id = ci.id AND ca.completed
			  )
	       )
	FROM appointments a
	JOIN batch_phases bp ON bp.id = a.batch_phase_id
	JOIN batches b ON b.id = bp.batch_id
	JOIN phases ph ON ph.id = bp.phase_id`

func scanActiveAppointment(row pgx.Row) (*ActiveAppointment, error) {
	var a ActiveAppointment
	err := row.Scan(&a.ID, &a.BatchPhaseID, &a.OperatorID, &a.StartedAt, &a.FinishedAt,
		&a.Notes, &a.RealMinutes, &a.ExceededTime, &a.DelayMinutes, &a.CreatedAt,
		&a.BatchID, &a.BatchCode, &a.PhaseID, &a.PhaseDescription, &a.EstimatedMinutes,
		&a.RequiresChecklist, &a.ChecklistComplete)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetOpenAppointmentByOperator returns the operator's open appointment with
// its batch and phase context, or nil when the operator has no open work.
func (db *DB) GetOpenAppointmentByOperator(ctx context.Context, operatorID uuid.UUID) (*ActiveAppointment, error) {
	appt, err := scanActiveAppointment(db.pool.QueryRow(ctx,
		activeAppointmentQuery+`
		 WHERE a.operator_id = $1 AND a.finished_at IS NULL`, operatorID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open appointment: %w", err)
	}
	return appt, nil
}

// GetAppointment retrieves an appointment with its batch and phase context
func (db *DB) GetAppointment(ctx context.Context, id uuid.UUID) (*ActiveAppointment, error) {
	appt, err := scanActiveAppointment(db.pool.QueryRow(ctx,
		activeAppointmentQuery+`
		 WHERE a.id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// ListChecklist returns the appointment's phase checklist items joined with
// the answers recorded so far for that appointment.
func (db *DB) ListChecklist(ctx context.Context, appointmentID, operatorID uuid.UUID) ([]ChecklistItemStatus, error) {
	appt, err := db.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, &NotFoundError{Entity: "appointment", ID: appointmentID}
	}
	if appt.OperatorID != operatorID {
		return nil, &ForbiddenError{Reason: "appointment belongs to another operator"}
	}

	rows, err := db.pool.Query(ctx,
		`SELECT ci.id, ci.phase_id, ci.description, ci.mandatory, ci.ordinal, ci.active, ci.created_at,
		        ca.id, ca.appointment_id, ca.checklist_item_id, ca.completed, ca.note, ca.answered_at
		 FROM checklist_items ci
		 LEFT JOIN checklist_answers ca
		   ON ca.checklist_item_id = ci.id AND ca.appointment_id = $1
		 WHERE ci.phase_id = $2 AND ci.active
		 ORDER BY ci.ordinal, ci.created_at`,
		appointmentID, appt.PhaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist: %w", err)
	}
	defer rows.Close()

	var statuses []ChecklistItemStatus
	for rows.Next() {
		var s ChecklistItemStatus
		var answerID, answerAppt, answerItem *uuid.UUID
		var completed *bool
		var note *string
		var answeredAt *time.Time
		if err := rows.Scan(&s.Item.ID, &s.Item.PhaseID, &s.Item.Description, &s.Item.Mandatory,
			&s.Item.Ordinal, &s.Item.Active, &s.Item.CreatedAt,
			&answerID, &answerAppt, &answerItem, &completed, &note, &answeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan checklist row: %w", err)
		}
		if answerID != nil {
			s.Answer = &ChecklistAnswer{
				ID:              *answerID,
				AppointmentID:   *answerAppt,
				ChecklistItemID: *answerItem,
				Completed:       *completed,
				Note:            *note,
				AnsweredAt:      *answeredAt,
			}
			s.Answered = true
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// AnswerChecklist records (or overwrites) the operator's answer to one of the
// appointment's phase checklist items. Only open appointments accept answers.
func (db *DB) AnswerChecklist(ctx context.Context, appointmentID, operatorID, itemID uuid.UUID, completed bool, note string) (*ChecklistAnswer, error) {
	appt, err := db.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, &NotFoundError{Entity: "appointment", ID: appointmentID}
	}
	if appt.OperatorID != operatorID {
		return nil, &ForbiddenError{Reason: "appointment belongs to another operator"}
	}
	if appt.FinishedAt != nil {
		return nil, &ConflictError{Reason: "appointment already finished"}
	}

	var belongs bool
	err = db.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM checklist_items
			WHERE id = $1 AND phase_id = $2 AND active
		 )`, itemID, appt.PhaseID).Scan(&belongs)
	if err != nil {
		return nil, fmt.Errorf("failed to check checklist item: %w", err)
	}
	if !belongs {
		return nil, &InvalidItemError{ItemID: itemID}
	}

	var answer ChecklistAnswer
	err = db.pool.QueryRow(ctx,
		`INSERT INTO checklist_answers (appointment_id, checklist_item_id, completed, note)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (appointment_id, checklist_item_id)
		 DO UPDATE SET completed = EXCLUDED.completed, note = EXCLUDED.note, answered_at = NOW()
		 RETURNING id, appointment_id, checklist_item_id, completed, note, answered_at`,
		appointmentID, itemID, completed, note,
	).Scan(&answer.ID, &answer.AppointmentID, &answer.ChecklistItemID,
		&answer.Completed, &answer.Note, &answer.AnsweredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record checklist answer: %w", err)
	}
	return &answer, nil
}

// FinishAppointment closes the operator's appointment: the checklist gate must
// pass, then real/exceeded/delay are computed once against the phase estimate
// and the phase (and possibly the whole batch) is marked finished. The
// appointment row is locked for the duration so a double finish loses cleanly.
func (db *DB) FinishAppointment(ctx context.Context, appointmentID, operatorID uuid.UUID, notes string) (*Appointment, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var appt Appointment
	var batchID, phaseID uuid.UUID
	var estimatedMinutes int
	err = tx.QueryRow(ctx,
		`SELECT a.id, a.batch_phase_id, a.operator_id, a.started_at, a.finished_at, a.notes,
		        a.created_at, bp.batch_id, bp.phase_id, bp.estimated_minutes
		 FROM appointments a
		 JOIN batch_phases bp ON bp.id = a.batch_phase_id
		 WHERE a.id = $1
		 FOR UPDATE OF a`,
		appointmentID,
	).Scan(&appt.ID, &appt.BatchPhaseID, &appt.OperatorID, &appt.StartedAt, &appt.FinishedAt,
		&appt.Notes, &appt.CreatedAt, &batchID, &phaseID, &estimatedMinutes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "appointment", ID: appointmentID}
		}
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}
	if appt.OperatorID != operatorID {
		return nil, &ForbiddenError{Reason: "appointment belongs to another operator"}
	}
	if appt.FinishedAt != nil {
		return nil, &ConflictError{Reason: "appointment already finished"}
	}

	missing, err := missingMandatoryItems(ctx, tx, appointmentID, phaseID)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &ChecklistIncompleteError{Missing: missing}
	}

	now := time.Now().UTC()
	realMinutes := kpi.RealMinutes(appt.StartedAt, now)
	exceeded, delayMinutes := kpi.Delay(realMinutes, estimatedMinutes)

	if notes == "" {
		notes = appt.Notes
	}
	err = tx.QueryRow(ctx,
		`UPDATE appointments
		 SET finished_at = $2, notes = $3, real_minutes = $4, exceeded_time = $5, delay_minutes = $6
		 WHERE id = $1
		 RETURNING finished_at, notes, real_minutes, exceeded_time, delay_minutes`,
		appointmentID, now, notes, realMinutes, exceeded, delayMinutes,
	).Scan(&appt.FinishedAt, &appt.Notes, &appt.RealMinutes, &appt.ExceededTime, &appt.DelayMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to finish appointment: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE batch_phases SET finished_at = $2 WHERE id = $1 AND finished_at IS NULL`,
		appt.BatchPhaseID, now); err != nil {
		return nil, fmt.Errorf("failed to finish batch phase: %w", err)
	}

	var pending int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM batch_phases
		 WHERE batch_id = $1 AND active AND finished_at IS NULL`,
		batchID).Scan(&pending)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending phases: %w", err)
	}
	if pending == 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE batches SET status = $2, completed_at = $3
			 WHERE id = $1 AND status <> $2`,
			batchID, BatchStatusCompleted, now); err != nil {
			return nil, fmt.Errorf("failed to complete batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &appt, nil
}

// missingMandatoryItems returns the descriptions of the phase's active
// mandatory checklist items that do not have a completed answer for the
// appointment, in checklist order. Items are re-read here so deactivating an
// item lifts the gate immediately.
func missingMandatoryItems(ctx context.Context, tx pgx.Tx, appointmentID, phaseID uuid.UUID) ([]string, error) {
	rows, err := tx.Query(ctx,
		`SELECT ci.description
		 FROM checklist_items ci
		 WHERE ci.phase_id = $1 AND ci.active AND ci.mandatory
		   AND NOT EXISTS (
			SELECT 1 FROM checklist_answers ca
			WHERE ca.appointment_id = $2
			  AND ca.checklist_item_id = ci.id AND ca.completed
		   )
		 ORDER BY ci.ordinal, ci.created_at`,
		phaseID, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check checklist gate: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var desc string
		if err := rows.Scan(&desc); err != nil {
			return nil, fmt.Errorf("failed to scan checklist gate row: %w", err)
		}
		missing = append(missing, desc)
	}
	return missing, rows.Err()
}

// AppointmentFilter narrows ListAppointments. Zero values mean "any".
type AppointmentFilter struct {
	BatchID    uuid.UUID
	PhaseID    uuid.UUID
	OperatorID uuid.UUID
	OpenOnly   bool
	Limit      int
}

// ListAppointments returns appointments matching the filter, newest first,
// with their batch and phase context. Used by the admin views.
func (db *DB) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]ActiveAppointment, error) {
	query := activeAppointmentQuery + `
		 WHERE ($1::uuid IS NULL OR bp.batch_id = $1)
		   AND ($2::uuid IS NULL OR bp.phase_id = $2)
		   AND ($3::uuid IS NULL OR a.operator_id = $3)
		   AND (NOT $4 OR a.finished_at IS NULL)
		 ORDER BY a.started_at DESC
		 LIMIT $5`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx, query,
		nullableID(filter.BatchID), nullableID(filter.PhaseID), nullableID(filter.OperatorID),
		filter.OpenOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appts []ActiveAppointment
	for rows.Next() {
		appt, err := scanActiveAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, *appt)
	}
	return appts, rows.Err()
}

// ListOperatorHistory returns the operator's appointments newest first
func (db *DB) ListOperatorHistory(ctx context.Context, operatorID uuid.UUID, limit int) ([]AppointmentHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT a.id, b.code, COALESCE(p.code, ''), ph.description,
		        a.started_at, a.finished_at, a.real_minutes, a.exceeded_time
		 FROM appointments a
		 JOIN batch_phases bp ON bp.id = a.batch_phase_id
		 JOIN batches b ON b.id = bp.batch_id
		 JOIN phases ph ON ph.id = bp.phase_id
		 LEFT JOIN products p ON p.id = bp.product_id
		 WHERE a.operator_id = $1
		 ORDER BY a.started_at DESC
		 LIMIT $2`,
		operatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operator history: %w", err)
	}
	defer rows.Close()

	var entries []AppointmentHistoryEntry
	for rows.Next() {
		var e AppointmentHistoryEntry
		if err := rows.Scan(&e.ID, &e.BatchCode, &e.ProductCode, &e.Phase,
			&e.StartedAt, &e.FinishedAt, &e.RealMinutes, &e.ExceededTime); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullableID maps the uuid zero value to SQL NULL for optional filters
func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

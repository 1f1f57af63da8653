package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rsilveira/shopfloor/internal/kpi"
	"github.com/rsilveira/shopfloor/internal/progress"
)

// ListFinishedAppointmentsSince returns the finished appointments of the
// reporting window as kpi rows, joined with the phase estimate and the
// operator's display name.
func (db *DB) ListFinishedAppointmentsSince(ctx context.Context, since time.Time) ([]kpi.FinishedAppointment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT a.id, a.operator_id, u.name, COALESCE(a.real_minutes, 0),
		        bp.estimated_minutes, COALESCE(a.exceeded_time, FALSE)
		 FROM appointments a
		 JOIN batch_phases bp ON bp.id = a.batch_phase_id
		 JOIN users u ON u.id = a.operator_id
		 WHERE a.finished_at IS NOT NULL AND a.finished_at >= $1`,
		since)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished appointments: %w", err)
	}
	defer rows.Close()

	var result []kpi.FinishedAppointment
	for rows.Next() {
		var r kpi.FinishedAppointment
		if err := rows.Scan(&r.AppointmentID, &r.OperatorID, &r.OperatorName,
			&r.RealMinutes, &r.EstimatedMinutes, &r.ExceededTime); err != nil {
			return nil, fmt.Errorf("failed to scan finished appointment: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// CountFinishedSince counts appointments finished at or after the given time
func (db *DB) CountFinishedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments
		 WHERE finished_at IS NOT NULL AND finished_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count finished appointments: %w", err)
	}
	return n, nil
}

// CountBatches counts active batches, optionally by status (empty means all)
func (db *DB) CountBatches(ctx context.Context, status string) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM batches
		 WHERE active AND ($1 = '' OR status = $1)`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count batches: %w", err)
	}
	return n, nil
}

// CountOpenAppointments counts appointments currently in progress
func (db *DB) CountOpenAppointments(ctx context.Context) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE finished_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count open appointments: %w", err)
	}
	return n, nil
}

// CountAppointmentsStartedSince counts appointments started at or after the
// given time, open or finished
func (db *DB) CountAppointmentsStartedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE started_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count started appointments: %w", err)
	}
	return n, nil
}

// CountProducts counts active catalog products
func (db *DB) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE active`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// CountOperators counts active operator accounts
func (db *DB) CountOperators(ctx context.Context) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE active AND role = $1`, RoleOperator).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count operators: %w", err)
	}
	return n, nil
}

// ListRecentBatches returns the newest active batches with their progress
// figures for the admin dashboard.
func (db *DB) ListRecentBatches(ctx context.Context, limit int) ([]RecentBatch, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.pool.Query(ctx,
		`SELECT b.id, b.code, b.description,
		        COALESCE((
			SELECT p.description FROM batch_products l
			JOIN products p ON p.id = l.product_id
			WHERE l.batch_id = b.id AND l.active AND p.active
			ORDER BY l.created_at LIMIT 1
		        ), ''),
		        b.status, b.created_at,
		        (SELECT COUNT(*) FROM batch_phases bp
		         WHERE bp.batch_id = b.id AND bp.active),
		        (SELECT COUNT(*) FROM batch_phases bp
		         WHERE bp.batch_id = b.id AND bp.active AND bp.finished_at IS NOT NULL),
		        (SELECT COUNT(*) FROM appointments a
		         JOIN batch_phases bp ON bp.id = a.batch_phase_id
		         WHERE bp.batch_id = b.id AND a.finished_at IS NOT NULL)
		 FROM batches b
		 WHERE b.active
		 ORDER BY b.created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent batches: %w", err)
	}
	defer rows.Close()

	var batches []RecentBatch
	for rows.Next() {
		var b RecentBatch
		if err := rows.Scan(&b.ID, &b.Code, &b.Description, &b.Product, &b.Status,
			&b.CreatedAt, &b.TotalPhases, &b.FinishedPhases, &b.FinishedAppointments); err != nil {
			return nil, fmt.Errorf("failed to scan recent batch: %w", err)
		}
		b.ProgressPercent = progress.Percent(b.FinishedPhases, b.TotalPhases)
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

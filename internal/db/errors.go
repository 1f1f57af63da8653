package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// NotFoundError indicates a referenced entity does not exist or is inactive
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ConflictError indicates an exclusivity violation: the phase is already
// claimed, the operator already has open work, or the target state does not
// admit the transition. Retryable after reloading current state.
type ConflictError struct {
	Reason       string
	OperatorID   uuid.UUID // claiming operator, when known
	OperatorName string
}

func (e *ConflictError) Error() string {
	if e.OperatorName != "" {
		return fmt.Sprintf("%s (in progress by %s)", e.Reason, e.OperatorName)
	}
	return e.Reason
}

// ChecklistIncompleteError indicates a finish was attempted before all
// mandatory checklist items were answered as completed
type ChecklistIncompleteError struct {
	Missing []string // descriptions of the outstanding items
}

func (e *ChecklistIncompleteError) Error() string {
	return fmt.Sprintf("mandatory checklist items not completed: %s", strings.Join(e.Missing, "; "))
}

// ForbiddenError indicates the caller does not own the appointment or lacks
// the required role
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// InvalidItemError indicates a checklist item does not belong to the
// appointment's phase
type InvalidItemError struct {
	ItemID uuid.UUID
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("checklist item %s does not belong to the appointment's phase", e.ItemID)
}

// DuplicateCodeError indicates a unique catalog code is already in use
type DuplicateCodeError struct {
	Entity string
	Code   string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("%s code already exists: %s", e.Entity, e.Code)
}

// isUniqueViolation reports whether err is a PostgreSQL unique violation,
// optionally on a specific constraint (empty matches any).
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

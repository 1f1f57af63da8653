package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	id := uuid.New()
	err := &NotFoundError{Entity: "batch", ID: id}
	assert.Contains(t, err.Error(), "batch not found")
	assert.Contains(t, err.Error(), id.String())

	// No ID known
	err = &NotFoundError{Entity: "operator"}
	assert.Equal(t, "operator not found", err.Error())
}

func TestConflictError(t *testing.T) {
	err := &ConflictError{Reason: "phase already in progress", OperatorName: "Ana Lima"}
	assert.Equal(t, "phase already in progress (in progress by Ana Lima)", err.Error())

	err = &ConflictError{Reason: "operator already has an open appointment"}
	assert.Equal(t, "operator already has an open appointment", err.Error())
}

func TestChecklistIncompleteError(t *testing.T) {
	err := &ChecklistIncompleteError{Missing: []string{"Clean nozzle", "Verify temperature"}}
	assert.Contains(t, err.Error(), "Clean nozzle")
	assert.Contains(t, err.Error(), "Verify temperature")
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", &DuplicateCodeError{Entity: "product", Code: "PRD-1"})

	var dup *DuplicateCodeError
	assert.True(t, errors.As(wrapped, &dup))
	assert.Equal(t, "PRD-1", dup.Code)

	var nf *NotFoundError
	assert.False(t, errors.As(wrapped, &nf))
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "appointments_open_phase_idx"}
	wrapped := fmt.Errorf("insert: %w", pgErr)

	assert.True(t, isUniqueViolation(wrapped, ""))
	assert.True(t, isUniqueViolation(wrapped, "appointments_open_phase_idx"))
	assert.False(t, isUniqueViolation(wrapped, "appointments_open_operator_idx"))

	assert.False(t, isUniqueViolation(fmt.Errorf("plain"), ""))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
}

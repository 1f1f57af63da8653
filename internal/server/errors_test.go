package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsilveira/shopfloor/internal/db"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &db.NotFoundError{Entity: "batch"}, http.StatusNotFound},
		{"conflict", &db.ConflictError{Reason: "phase already in progress"}, http.StatusConflict},
		{"duplicate code", &db.DuplicateCodeError{Entity: "product", Code: "PRD-1"}, http.StatusConflict},
		{"checklist gate", &db.ChecklistIncompleteError{Missing: []string{"x"}}, http.StatusUnprocessableEntity},
		{"forbidden", &db.ForbiddenError{Reason: "not yours"}, http.StatusForbidden},
		{"invalid item", &db.InvalidItemError{}, http.StatusBadRequest},
		{"bad credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestHTTPStatusUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("finish: %w", &db.ChecklistIncompleteError{Missing: []string{"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(wrapped))
}

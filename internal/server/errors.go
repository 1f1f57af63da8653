// Package server provides the HTTP REST API for the production tracker.
package server

import (
	"errors"
	"net/http"

	"github.com/rsilveira/shopfloor/internal/db"
)

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid username or password"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *db.NotFoundError
		conflict   *db.ConflictError
		incomplete *db.ChecklistIncompleteError
		forbidden  *db.ForbiddenError
		invalid    *db.InvalidItemError
		duplicate  *db.DuplicateCodeError
		creds      *ErrInvalidCredentials
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &duplicate):
		return http.StatusConflict
	case errors.As(err, &incomplete):
		return http.StatusUnprocessableEntity
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &creds):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

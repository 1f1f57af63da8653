package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rsilveira/shopfloor/internal/db"
	"github.com/rsilveira/shopfloor/internal/server/middleware"
)

// domainError maps a store error onto an HTTP response. Checklist gate
// failures carry the outstanding item descriptions so clients can prompt for
// exactly what is missing; conflicts carry the holder's name when known.
func (s *Server) domainError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.errorResponse(w, status, "internal error: "+err.Error())
		return
	}

	var incomplete *db.ChecklistIncompleteError
	if errors.As(err, &incomplete) {
		s.jsonResponse(w, status, map[string]any{
			"error":         incomplete.Error(),
			"missing_items": incomplete.Missing,
		})
		return
	}

	var conflict *db.ConflictError
	if errors.As(err, &conflict) && conflict.OperatorName != "" {
		s.jsonResponse(w, status, map[string]any{
			"error":       conflict.Error(),
			"operator_id": conflict.OperatorID,
			"operator":    conflict.OperatorName,
		})
		return
	}

	s.errorResponse(w, status, err.Error())
}

// identity returns the authenticated caller, or reports 401 and false.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	identity, err := middleware.FromContext(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return middleware.Identity{}, false
	}
	return identity, true
}

// requireAdmin returns the caller if they hold the admin role, or reports
// 401/403 and false.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	identity, ok := s.identity(w, r)
	if !ok {
		return middleware.Identity{}, false
	}
	if identity.Role != db.RoleAdmin {
		s.errorResponse(w, http.StatusForbidden, "admin role required")
		return middleware.Identity{}, false
	}
	return identity, true
}

// pathID parses the {id} path segment as a UUID, or reports 400 and false.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			// Return first validation error for simplicity
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/rsilveira/shopfloor/internal/db"
)

// ---------------------------------------------------------------------
// Phase and Checklist Item Handlers
// ---------------------------------------------------------------------

type PhaseRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
}

func (s *Server) handleCreatePhase(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	var req PhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	phase, err := s.db.CreatePhase(r.Context(), req.Code, req.Description)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, phase)
}

func (s *Server) handleListPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := s.db.ListPhases(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"phases": phases})
}

func (s *Server) handleUpdatePhase(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req PhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	phase, err := s.db.UpdatePhase(r.Context(), id, req.Code, req.Description)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, phase)
}

func (s *Server) handleDeletePhase(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.db.DeactivatePhase(r.Context(), id); err != nil {
		s.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ChecklistItemRequest struct {
	PhaseID     uuid.UUID `json:"phase_id" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Mandatory   *bool     `json:"mandatory"`
	Ordinal     int       `json:"ordinal" validate:"omitempty,min=1"`
}

func (s *Server) handleCreateChecklistItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	var req ChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	mandatory := true
	if req.Mandatory != nil {
		mandatory = *req.Mandatory
	}
	if req.Ordinal == 0 {
		req.Ordinal = 1
	}

	item, err := s.db.CreateChecklistItem(r.Context(), db.ChecklistItemInput{
		PhaseID:     req.PhaseID,
		Description: req.Description,
		Mandatory:   mandatory,
		Ordinal:     req.Ordinal,
	})
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, item)
}

func (s *Server) handleListChecklistItems(w http.ResponseWriter, r *http.Request) {
	var phaseID *uuid.UUID
	if raw := r.URL.Query().Get("phase_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid phase_id")
			return
		}
		phaseID = &id
	}

	items, err := s.db.ListChecklistItems(r.Context(), phaseID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"items": items})
}

type UpdateChecklistItemRequest struct {
	Description string `json:"description" validate:"required"`
	Mandatory   *bool  `json:"mandatory"`
	Ordinal     int    `json:"ordinal" validate:"omitempty,min=1"`
}

func (s *Server) handleUpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	mandatory := true
	if req.Mandatory != nil {
		mandatory = *req.Mandatory
	}
	if req.Ordinal == 0 {
		req.Ordinal = 1
	}

	item, err := s.db.UpdateChecklistItem(r.Context(), id, req.Description, mandatory, req.Ordinal)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, item)
}

func (s *Server) handleDeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.db.DeactivateChecklistItem(r.Context(), id); err != nil {
		s.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------
// Appointment Handlers (operator workflow)
// ---------------------------------------------------------------------

type StartAppointmentRequest struct {
	BatchPhaseID uuid.UUID `json:"batch_phase_id" validate:"required"`
	Notes        string    `json:"notes"`
}

func (s *Server) handleStartAppointment(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req StartAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	appt, err := s.db.StartAppointment(r.Context(), identity.ID, req.BatchPhaseID, req.Notes)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, appt)
}

type FinishAppointmentRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleFinishAppointment(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	// Body is optional; an empty finish keeps the start notes
	var req FinishAppointmentRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	appt, err := s.db.FinishAppointment(r.Context(), id, identity.ID, req.Notes)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, appt)
}

func (s *Server) handleActiveAppointment(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}

	appt, err := s.db.GetOpenAppointmentByOperator(r.Context(), identity.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if appt == nil {
		s.errorResponse(w, http.StatusNotFound, "No open appointment")
		return
	}

	s.jsonResponse(w, http.StatusOK, appt)
}

func (s *Server) handleAppointmentHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.db.ListOperatorHistory(r.Context(), identity.ID, limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"appointments": entries})
}

func (s *Server) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	items, err := s.db.ListChecklist(r.Context(), id, identity.ID)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"items": items})
}

type AnswerChecklistRequest struct {
	ChecklistItemID uuid.UUID `json:"checklist_item_id" validate:"required"`
	Completed       bool      `json:"completed"`
	Note            string    `json:"note"`
}

func (s *Server) handleAnswerChecklist(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req AnswerChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	answer, err := s.db.AnswerChecklist(r.Context(), id, identity.ID, req.ChecklistItemID, req.Completed, req.Note)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, answer)
}

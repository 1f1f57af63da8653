package server

import (
	"encoding/json"
	"net/http"
)

// ---------------------------------------------------------------------
// Machine Handlers
// ---------------------------------------------------------------------

type MachineRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
	Sector      string `json:"sector"`
}

func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	var req MachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	machine, err := s.db.CreateMachine(r.Context(), req.Code, req.Description, req.Sector)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, machine)
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.db.ListMachines(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"machines": machines})
}

func (s *Server) handleUpdateMachine(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req MachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	machine, err := s.db.UpdateMachine(r.Context(), id, req.Code, req.Description, req.Sector)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, machine)
}

func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.db.DeactivateMachine(r.Context(), id); err != nil {
		s.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------
// Batch Handlers
// ---------------------------------------------------------------------

type CreateBatchRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	batch, err := s.db.CreateBatch(r.Context(), req.Code, req.Description, req.Notes)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, batch)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	batches, err := s.db.ListBatches(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"batches": batches})
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	batch, err := s.db.GetBatch(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if batch == nil {
		s.errorResponse(w, http.StatusNotFound, "Batch not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, batch)
}

type UpdateBatchRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Status      string `json:"status" validate:"required,oneof=not_started in_production paused cancelled"`
}

func (s *Server) handleUpdateBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	batch, err := s.db.UpdateBatch(r.Context(), id, req.Code, req.Description, req.Notes, req.Status)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, batch)
}

func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.db.DeactivateBatch(r.Context(), id); err != nil {
		s.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAvailableBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.db.ListAvailableBatches(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"batches": batches})
}

func (s *Server) handleBatchProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	report, err := s.db.GetBatchProgress(r.Context(), id)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

func (s *Server) handleBatchPhases(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	batch, err := s.db.GetBatch(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if batch == nil {
		s.errorResponse(w, http.StatusNotFound, "Batch not found")
		return
	}

	phases, err := s.db.ListBatchPhases(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"phases": phases})
}

type AttachProductRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
	Notes     string    `json:"notes"`
}

func (s *Server) handleAttachProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req AttachProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	link, err := s.db.AttachProduct(r.Context(), id, req.ProductID, req.Quantity, req.Notes)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, link)
}

type DuplicateBatchRequest struct {
	Code string `json:"code" validate:"required"`
}

func (s *Server) handleDuplicateBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req DuplicateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	batch, err := s.db.DuplicateBatch(r.Context(), id, req.Code)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, batch)
}

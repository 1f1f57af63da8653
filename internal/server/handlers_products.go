package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/rsilveira/shopfloor/internal/db"
)

// ---------------------------------------------------------------------
// Product and Recipe Handlers
// ---------------------------------------------------------------------

type ProductRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	product, err := s.db.CreateProduct(r.Context(), req.Code, req.Description)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, product)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.db.ListProducts(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	product, err := s.db.GetProduct(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if product == nil {
		s.errorResponse(w, http.StatusNotFound, "Product not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	product, err := s.db.UpdateProduct(r.Context(), id, req.Code, req.Description)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.db.DeactivateProduct(r.Context(), id); err != nil {
		s.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	product, err := s.db.GetProduct(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if product == nil {
		s.errorResponse(w, http.StatusNotFound, "Product not found")
		return
	}

	steps, err := s.db.ListRecipeSteps(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"steps": steps})
}

type RecipeStepRequest struct {
	PhaseID          uuid.UUID `json:"phase_id" validate:"required"`
	Ordinal          int       `json:"ordinal" validate:"required,min=1"`
	EstimatedMinutes int       `json:"estimated_minutes" validate:"min=0"`
	ShelfLifeHours   *int      `json:"shelf_life_hours" validate:"omitempty,min=0"`
}

type ReplaceRecipeRequest struct {
	Steps []RecipeStepRequest `json:"steps" validate:"required,min=1,dive"`
}

// handleReplaceRecipe swaps the product's whole recipe. Batches already
// carrying the old recipe keep it; only future attachments see the new one.
func (s *Server) handleReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req ReplaceRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	product, err := s.db.GetProduct(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if product == nil {
		s.errorResponse(w, http.StatusNotFound, "Product not found")
		return
	}

	steps := make([]db.RecipeStepInput, len(req.Steps))
	for i, step := range req.Steps {
		steps[i] = db.RecipeStepInput{
			PhaseID:          step.PhaseID,
			Ordinal:          step.Ordinal,
			EstimatedMinutes: step.EstimatedMinutes,
			ShelfLifeHours:   step.ShelfLifeHours,
		}
	}
	if err := s.db.ReplaceRecipeSteps(r.Context(), id, steps); err != nil {
		s.domainError(w, err)
		return
	}

	updated, err := s.db.ListRecipeSteps(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"steps": updated})
}

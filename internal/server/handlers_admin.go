package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rsilveira/shopfloor/internal/db"
	"github.com/rsilveira/shopfloor/internal/kpi"
)

// ---------------------------------------------------------------------
// Admin Reporting Handlers
// ---------------------------------------------------------------------

// handleKPIs aggregates adherence and ranking figures over a reporting window
// (period_days, default 30) plus the trailing-seven-day productivity rate.
func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	periodDays := 30
	if raw := r.URL.Query().Get("period_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			s.errorResponse(w, http.StatusBadRequest, "period_days must be between 1 and 365")
			return
		}
		periodDays = n
	}

	now := time.Now()
	rows, err := s.db.ListFinishedAppointmentsSince(r.Context(), now.AddDate(0, 0, -periodDays))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	finishedWeek, err := s.db.CountFinishedSince(r.Context(), now.AddDate(0, 0, -7))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	summary := kpi.Summarize(rows)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"period_days":               periodDays,
		"total_appointments":        summary.TotalAppointments,
		"average_real_minutes":      summary.AverageRealMinutes,
		"average_adherence_percent": summary.AverageAdherencePercent,
		"exceeded_count":            summary.ExceededCount,
		"productivity_per_day":      kpi.Productivity(finishedWeek),
		"operator_ranking":          summary.ByOperator,
	})
}

// AdminSummary is the dashboard counter set.
type AdminSummary struct {
	BatchesTotal        int `json:"batches_total"`
	BatchesInProduction int `json:"batches_in_production"`
	BatchesCompleted    int `json:"batches_completed"`
	OpenAppointments    int `json:"open_appointments"`
	AppointmentsToday   int `json:"appointments_today"`
	Products            int `json:"products"`
	Operators           int `json:"operators"`
}

// handleAdminSummary gathers the dashboard counters; the queries are
// independent, so they fan out concurrently.
func (s *Server) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var summary AdminSummary
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		summary.BatchesTotal, err = s.db.CountBatches(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		summary.BatchesInProduction, err = s.db.CountBatches(ctx, db.BatchStatusInProduction)
		return err
	})
	g.Go(func() (err error) {
		summary.BatchesCompleted, err = s.db.CountBatches(ctx, db.BatchStatusCompleted)
		return err
	})
	g.Go(func() (err error) {
		summary.OpenAppointments, err = s.db.CountOpenAppointments(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.AppointmentsToday, err = s.db.CountAppointmentsStartedSince(ctx, startOfDay)
		return err
	})
	g.Go(func() (err error) {
		summary.Products, err = s.db.CountProducts(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.Operators, err = s.db.CountOperators(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleRecentBatches(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	batches, err := s.db.ListRecentBatches(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"batches": batches})
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	var filter db.AppointmentFilter
	q := r.URL.Query()
	for param, target := range map[string]*uuid.UUID{
		"batch_id":    &filter.BatchID,
		"phase_id":    &filter.PhaseID,
		"operator_id": &filter.OperatorID,
	} {
		if raw := q.Get(param); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				s.errorResponse(w, http.StatusBadRequest, "Invalid "+param)
				return
			}
			*target = id
		}
	}
	filter.OpenOnly = q.Get("open") == "true"
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	appts, err := s.db.ListAppointments(r.Context(), filter)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"appointments": appts})
}

// Package server provides the HTTP REST API for the production tracker.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rsilveira/shopfloor/internal/config"
	"github.com/rsilveira/shopfloor/internal/db"
	"github.com/rsilveira/shopfloor/internal/server/middleware"
	"github.com/rsilveira/shopfloor/internal/server/ratelimit"
)

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	db           *db.DB
	validate     *validator.Validate
	jwtService   *JWTService
	authService  *AuthService
	loginLimiter *ratelimit.Limiter
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Server{
		db:       database,
		validate: validator.New(),
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.authService = NewAuthService(database, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)

	s.loginLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	// Authenticated API routes
	api := http.NewServeMux()

	// Session
	api.HandleFunc("GET /api/v1/auth/me", s.handleMe)

	// Operator workflow
	api.HandleFunc("POST /api/v1/appointments/start", s.handleStartAppointment)
	api.HandleFunc("POST /api/v1/appointments/{id}/finish", s.handleFinishAppointment)
	api.HandleFunc("GET /api/v1/appointments/active", s.handleActiveAppointment)
	api.HandleFunc("GET /api/v1/appointments/history", s.handleAppointmentHistory)
	api.HandleFunc("GET /api/v1/appointments/{id}/checklist", s.handleGetChecklist)
	api.HandleFunc("POST /api/v1/appointments/{id}/checklist", s.handleAnswerChecklist)

	// Batches
	api.HandleFunc("GET /api/v1/batches", s.handleListBatches)
	api.HandleFunc("POST /api/v1/batches", s.handleCreateBatch)
	api.HandleFunc("GET /api/v1/batches/available", s.handleAvailableBatches)
	api.HandleFunc("GET /api/v1/batches/{id}", s.handleGetBatch)
	api.HandleFunc("PUT /api/v1/batches/{id}", s.handleUpdateBatch)
	api.HandleFunc("DELETE /api/v1/batches/{id}", s.handleDeleteBatch)
	api.HandleFunc("GET /api/v1/batches/{id}/progress", s.handleBatchProgress)
	api.HandleFunc("GET /api/v1/batches/{id}/phases", s.handleBatchPhases)
	api.HandleFunc("POST /api/v1/batches/{id}/products", s.handleAttachProduct)
	api.HandleFunc("POST /api/v1/batches/{id}/duplicate", s.handleDuplicateBatch)

	// Catalog: products and recipes
	api.HandleFunc("GET /api/v1/products", s.handleListProducts)
	api.HandleFunc("POST /api/v1/products", s.handleCreateProduct)
	api.HandleFunc("GET /api/v1/products/{id}", s.handleGetProduct)
	api.HandleFunc("PUT /api/v1/products/{id}", s.handleUpdateProduct)
	api.HandleFunc("DELETE /api/v1/products/{id}", s.handleDeleteProduct)
	api.HandleFunc("GET /api/v1/products/{id}/recipe", s.handleGetRecipe)
	api.HandleFunc("PUT /api/v1/products/{id}/recipe", s.handleReplaceRecipe)

	// Catalog: phases and checklist items
	api.HandleFunc("GET /api/v1/phases", s.handleListPhases)
	api.HandleFunc("POST /api/v1/phases", s.handleCreatePhase)
	api.HandleFunc("PUT /api/v1/phases/{id}", s.handleUpdatePhase)
	api.HandleFunc("DELETE /api/v1/phases/{id}", s.handleDeletePhase)
	api.HandleFunc("GET /api/v1/checklist-items", s.handleListChecklistItems)
	api.HandleFunc("POST /api/v1/checklist-items", s.handleCreateChecklistItem)
	api.HandleFunc("PUT /api/v1/checklist-items/{id}", s.handleUpdateChecklistItem)
	api.HandleFunc("DELETE /api/v1/checklist-items/{id}", s.handleDeleteChecklistItem)

	// Catalog: machines
	api.HandleFunc("GET /api/v1/machines", s.handleListMachines)
	api.HandleFunc("POST /api/v1/machines", s.handleCreateMachine)
	api.HandleFunc("PUT /api/v1/machines/{id}", s.handleUpdateMachine)
	api.HandleFunc("DELETE /api/v1/machines/{id}", s.handleDeleteMachine)

	// User administration
	api.HandleFunc("GET /api/v1/users", s.handleListUsers)
	api.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	api.HandleFunc("GET /api/v1/users/{id}", s.handleGetUser)
	api.HandleFunc("PUT /api/v1/users/{id}", s.handleUpdateUser)
	api.HandleFunc("DELETE /api/v1/users/{id}", s.handleDeleteUser)

	// Admin reporting
	api.HandleFunc("GET /api/v1/admin/kpis", s.handleKPIs)
	api.HandleFunc("GET /api/v1/admin/summary", s.handleAdminSummary)
	api.HandleFunc("GET /api/v1/admin/recent-batches", s.handleRecentBatches)
	api.HandleFunc("GET /api/v1/admin/appointments", s.handleListAppointments)

	// Public routes plus the authenticated API
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.Handle("/api/v1/", middleware.Authenticate(s.jwtService.AsTokenValidator())(api))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.loginLimiter != nil {
		s.loginLimiter.Stop()
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; deployments behind a trusted
// proxy should terminate that proxy's X-Forwarded-For before this server.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

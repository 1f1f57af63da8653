package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsilveira/shopfloor/internal/db"
	"github.com/rsilveira/shopfloor/internal/server/middleware"
)

// testServer builds a Server without a database; only request parsing,
// validation and authorization paths can be exercised against it.
func testServer() *Server {
	return &Server{validate: validator.New()}
}

func authedRequest(method, target, body string, identity middleware.Identity) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func TestStartAppointmentRejectsBadBody(t *testing.T) {
	s := testServer()
	operator := middleware.Identity{ID: uuid.New(), Role: db.RoleOperator}

	rec := httptest.NewRecorder()
	s.handleStartAppointment(rec, authedRequest("POST", "/api/v1/appointments/start", "{not json", operator))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing batch_phase_id
	rec = httptest.NewRecorder()
	s.handleStartAppointment(rec, authedRequest("POST", "/api/v1/appointments/start", `{"notes":"x"}`, operator))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BatchPhaseID")
}

func TestStartAppointmentRequiresIdentity(t *testing.T) {
	s := testServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/appointments/start", strings.NewReader(`{}`))
	s.handleStartAppointment(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminHandlersRejectOperators(t *testing.T) {
	s := testServer()
	operator := middleware.Identity{ID: uuid.New(), Role: db.RoleOperator}

	handlers := map[string]http.HandlerFunc{
		"create batch":   s.handleCreateBatch,
		"create product": s.handleCreateProduct,
		"create user":    s.handleCreateUser,
		"kpis":           s.handleKPIs,
		"summary":        s.handleAdminSummary,
	}
	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, authedRequest("POST", "/", `{}`, operator))
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestPathIDRejectsMalformedID(t *testing.T) {
	s := testServer()
	admin := middleware.Identity{ID: uuid.New(), Role: db.RoleAdmin}

	req := authedRequest("POST", "/api/v1/appointments/nope/finish", "", middleware.Identity{ID: uuid.New(), Role: db.RoleOperator})
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	s.handleFinishAppointment(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = authedRequest("DELETE", "/api/v1/batches/nope", "", admin)
	req.SetPathValue("id", "nope")
	rec = httptest.NewRecorder()
	s.handleDeleteBatch(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKPIsValidatesPeriod(t *testing.T) {
	s := testServer()
	admin := middleware.Identity{ID: uuid.New(), Role: db.RoleAdmin}

	for _, period := range []string{"0", "-3", "abc", "9999"} {
		rec := httptest.NewRecorder()
		s.handleKPIs(rec, authedRequest("GET", "/api/v1/admin/kpis?period_days="+period, "", admin))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "period_days=%s", period)
	}
}

func TestDomainErrorPayloads(t *testing.T) {
	s := testServer()

	// Gate failures list the outstanding items
	rec := httptest.NewRecorder()
	s.domainError(rec, &db.ChecklistIncompleteError{Missing: []string{"Blade inspected"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_items")
	assert.Contains(t, rec.Body.String(), "Blade inspected")

	// Claim conflicts name the holder
	rec = httptest.NewRecorder()
	s.domainError(rec, &db.ConflictError{
		Reason:       "phase already in progress",
		OperatorID:   uuid.New(),
		OperatorName: "Ana Lima",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ana Lima")
}

func TestUpdateBatchRejectsCompletedStatus(t *testing.T) {
	s := testServer()
	admin := middleware.Identity{ID: uuid.New(), Role: db.RoleAdmin}

	req := authedRequest("PUT", "/api/v1/batches/"+uuid.NewString(), `{"code":"LOT-1","status":"completed"}`, admin)
	req.SetPathValue("id", uuid.NewString())
	rec := httptest.NewRecorder()
	s.handleUpdateBatch(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "oneof")
}

func TestCreateUserValidation(t *testing.T) {
	s := testServer()
	admin := middleware.Identity{ID: uuid.New(), Role: db.RoleAdmin}

	cases := map[string]string{
		"short password": `{"username":"ana","name":"Ana","password":"short","role":"operator"}`,
		"bad role":       `{"username":"ana","name":"Ana","password":"longenough","role":"root"}`,
		"bad email":      `{"username":"ana","name":"Ana","email":"nope","password":"longenough","role":"operator"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.handleCreateUser(rec, authedRequest("POST", "/api/v1/users", body, admin))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

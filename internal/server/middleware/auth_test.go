package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaims struct {
	identity Identity
}

func (c *fakeClaims) GetIdentity() Identity { return c.identity }

type fakeValidator struct {
	identity Identity
	err      error
}

func (v *fakeValidator) ValidateToken(tokenString string) (IdentityGetter, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &fakeClaims{identity: v.identity}, nil
}

func TestAuthenticateSetsIdentity(t *testing.T) {
	want := Identity{ID: uuid.New(), Role: "operator"}
	validator := &fakeValidator{identity: want}

	var got Identity
	handler := Authenticate(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := FromContext(r)
		require.NoError(t, err)
		got = identity
	}))

	req := httptest.NewRequest("GET", "/api/v1/appointments/active", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, got)
}

func TestAuthenticateRejectsMissingOrBadHeader(t *testing.T) {
	validator := &fakeValidator{identity: Identity{ID: uuid.New()}}
	handler := Authenticate(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc123",
		"empty token":  "Bearer ",
		"extra fields": "Bearer one two",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticateRejectsInvalidToken(t *testing.T) {
	validator := &fakeValidator{err: fmt.Errorf("token expired")}
	handler := Authenticate(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateAcceptsLowercaseBearer(t *testing.T) {
	validator := &fakeValidator{identity: Identity{ID: uuid.New(), Role: "admin"}}
	handler := Authenticate(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFromContextWithoutIdentity(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, err := FromContext(req)
	assert.Error(t, err)
}

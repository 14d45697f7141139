package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roleMap map[int64]Role

func (m roleMap) RoleByID(_ context.Context, id int64) (Role, error) {
	r, ok := m[id]
	if !ok {
		return "", errors.New("user not found")
	}
	return r, nil
}

func TestAuthenticate(t *testing.T) {
	issuer := &TokenIssuer{Secret: []byte("test-secret"), TTL: time.Hour}
	mw := &Middleware{Tokens: issuer, Roles: roleMap{42: RoleAdmin}}

	var got Identity
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for unknown user", func(t *testing.T) {
		token, err := issuer.Issue(7, time.Now())
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("role comes from the store, not the token", func(t *testing.T) {
		token, err := issuer.Issue(42, time.Now())
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Identity{UserID: 42, Role: RoleAdmin}, got)
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	guard := RequireRole(RoleAdmin)(next)

	serve := func(ident *Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if ident != nil {
			req = req.WithContext(WithIdentity(req.Context(), *ident))
		}
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&Identity{UserID: 1, Role: RoleUser}))
	assert.Equal(t, http.StatusOK, serve(&Identity{UserID: 1, Role: RoleAdmin}))
	assert.Equal(t, http.StatusOK, serve(&Identity{UserID: 1, Role: RoleSuperAdmin}))
}

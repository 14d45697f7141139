package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type Identity struct {
	UserID int64
	Role   Role
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// RoleSource re-checks the actor's role against the users table, so a stale
// token cannot keep privileges after a demotion.
type RoleSource interface {
	RoleByID(ctx context.Context, userID int64) (Role, error)
}

type Middleware struct {
	Tokens *TokenIssuer
	Roles  RoleSource
}

func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			deny(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := m.Tokens.Verify(token)
		if err != nil {
			deny(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		role, err := m.Roles.RoleByID(r.Context(), userID)
		if err != nil {
			deny(w, http.StatusUnauthorized, "unknown user")
			return
		}
		ctx := WithIdentity(r.Context(), Identity{UserID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits identities whose role is at least min. It assumes
// Authenticate ran earlier in the chain.
func RequireRole(min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !id.Role.AtLeast(min) {
				deny(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

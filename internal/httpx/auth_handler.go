package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"community-portal/internal/auth"
	"community-portal/internal/users"
)

type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (users.User, error)
	FindByEmail(ctx context.Context, email string) (users.User, error)
	FindByID(ctx context.Context, id int64) (users.User, error)
	UpdateProfile(ctx context.Context, id int64, username, email, newHash string) error
}

type AuthHandler struct {
	Users  UserStore
	Tokens *auth.TokenIssuer
	Logger *zap.SugaredLogger
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

type profileRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	u, err := h.Users.Create(r.Context(), req.Username, req.Email, hash)
	if errors.Is(err, users.ErrEmailTaken) {
		writeError(w, http.StatusBadRequest, "email already registered")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.Users.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, users.ErrNotFound) || (err == nil && !auth.CheckPassword(u.PasswordHash, req.Password)) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	token, err := h.Tokens.Issue(u.ID, time.Now())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: u})
}

func (h *AuthHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	u, err := h.Users.FindByID(r.Context(), id.UserID)
	if errors.Is(err, users.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "username and email are required")
		return
	}

	// the password changes only when a new one is supplied
	hash := ""
	if req.Password != "" {
		var err error
		hash, err = auth.HashPassword(req.Password)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
	}

	err := h.Users.UpdateProfile(r.Context(), id.UserID, req.Username, req.Email, hash)
	switch {
	case errors.Is(err, users.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, users.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "email already registered")
	case err != nil:
		h.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
	}
}

func (h *AuthHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "server error")
}

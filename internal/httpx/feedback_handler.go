package httpx

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"community-portal/internal/auth"
	"community-portal/internal/feedback"
)

type FeedbackStore interface {
	Create(ctx context.Context, userID int64, message string) (feedback.Feedback, error)
	CreateAdminMessage(ctx context.Context, userID int64, message string) (feedback.Feedback, error)
	ListByUser(ctx context.Context, userID int64) ([]feedback.Feedback, error)
	ListAll(ctx context.Context) ([]feedback.Feedback, error)
	Reply(ctx context.Context, id int64, reply string) error
	UpdateStatus(ctx context.Context, id int64, status feedback.Status) error
	UsersWithFeedback(ctx context.Context) ([]feedback.UserRef, error)
}

type FeedbackHandler struct {
	Store  FeedbackStore
	Logger *zap.SugaredLogger
}

type feedbackRequest struct {
	Message string `json:"message" validate:"required"`
}

type adminMessageRequest struct {
	UserID  int64  `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type replyRequest struct {
	AdminReply string `json:"admin_reply" validate:"required"`
}

type feedbackStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// create files a message under the authenticated user's own id; the original
// portal took user_id from the body, which let anyone impersonate anyone.
func (h *FeedbackHandler) create(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	f, err := h.Store.Create(r.Context(), ident.UserID, req.Message)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FeedbackHandler) listMine(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	list, err := h.Store.ListByUser(r.Context(), ident.UserID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedbacks": list})
}

func (h *FeedbackHandler) listAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListAll(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// conversation returns one user's thread for the admin chat view.
func (h *FeedbackHandler) conversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	list, err := h.Store.ListByUser(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *FeedbackHandler) reply(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req replyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "admin_reply is required")
		return
	}
	err := h.Store.Reply(r.Context(), id, req.AdminReply)
	if errors.Is(err, feedback.ErrNotFound) {
		writeError(w, http.StatusNotFound, "feedback not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reply saved"})
}

func (h *FeedbackHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req feedbackStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	status := feedback.Status(req.Status)
	if !feedback.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	err := h.Store.UpdateStatus(r.Context(), id, status)
	if errors.Is(err, feedback.ErrNotFound) {
		writeError(w, http.StatusNotFound, "feedback not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

func (h *FeedbackHandler) adminMessage(w http.ResponseWriter, r *http.Request) {
	var req adminMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id and message are required")
		return
	}
	f, err := h.Store.CreateAdminMessage(r.Context(), req.UserID, req.Message)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FeedbackHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.UsersWithFeedback(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *FeedbackHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "server error")
}

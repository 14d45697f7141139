package httpx

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"community-portal/internal/articles"
)

type ArticleStore interface {
	List(ctx context.Context, category articles.Category) ([]articles.Article, error)
	Get(ctx context.Context, id int64) (articles.Article, error)
	Create(ctx context.Context, in articles.ArticleInput) (articles.Article, error)
	Update(ctx context.Context, id int64, in articles.ArticleInput) (articles.Article, error)
	Delete(ctx context.Context, id int64) error
}

type ArticlesHandler struct {
	Store  ArticleStore
	Logger *zap.SugaredLogger
}

func (h *ArticlesHandler) list(w http.ResponseWriter, r *http.Request) {
	category := articles.Category(r.URL.Query().Get("category"))
	list, err := h.Store.List(r.Context(), category)
	if errors.Is(err, articles.ErrInvalidCategory) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ArticlesHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, articles.ErrNotFound) {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ArticlesHandler) create(w http.ResponseWriter, r *http.Request) {
	var in articles.ArticleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, "title and category are required")
		return
	}
	a, err := h.Store.Create(r.Context(), in)
	if errors.Is(err, articles.ErrInvalidCategory) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *ArticlesHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in articles.ArticleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := Validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, "title and category are required")
		return
	}
	a, err := h.Store.Update(r.Context(), id, in)
	switch {
	case errors.Is(err, articles.ErrNotFound):
		writeError(w, http.StatusNotFound, "article not found")
	case errors.Is(err, articles.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, "invalid category")
	case err != nil:
		h.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, a)
	}
}

func (h *ArticlesHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err := h.Store.Delete(r.Context(), id)
	if errors.Is(err, articles.ErrNotFound) {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "article deleted"})
}

func (h *ArticlesHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "server error")
}

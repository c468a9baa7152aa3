package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/middleware"
	"github.com/atinyakov/mockshare/internal/models"
	"github.com/atinyakov/mockshare/internal/service"
)

const authorTokenHeader = "X-Author-Token"

// CommentService defines the comment ledger operations used by the handlers.
type CommentService interface {
	Add(ctx context.Context, mockupID string, in service.NewComment) (*models.Comment, error)
	List(ctx context.Context, mockupID string, version int) ([]models.Comment, error)
	Edit(ctx context.Context, mockupID, commentID, body, authorToken string) (*models.Comment, error)
	Resolve(ctx context.Context, mockupID, commentID string, resolved bool) error
	Remove(ctx context.Context, mockupID, commentID, authorToken string, designer bool) error
	RemoveAll(ctx context.Context, mockupID string) (int64, error)
}

// CommentHandler serves the comment endpoints.
type CommentHandler struct {
	Comments CommentService
	Mockups  MockupService
	Validate *validator.Validate
	Log      *zap.Logger
}

type addCommentRequest struct {
	models.Position
	Body        string `json:"body" validate:"required,max=5000"`
	AuthorName  string `json:"authorName" validate:"required,max=100"`
	AuthorToken string `json:"authorToken" validate:"max=200"`
}

// addCommentResponse hands the author token back once, so the author can
// later edit or remove the comment.
type addCommentResponse struct {
	*models.Comment
	AuthorToken string `json:"authorToken"`
}

type editCommentRequest struct {
	Body        string `json:"body" validate:"required,max=5000"`
	AuthorToken string `json:"authorToken" validate:"max=200"`
}

type resolveCommentRequest struct {
	Resolved *bool `json:"resolved"`
}

type removeAllResponse struct {
	Removed int64 `json:"removed"`
}

// List handles GET /mockups/{id}/comments?version=.
// Without a version, or with "current", it lists the live ledger; an
// archived version number returns that version's frozen comments.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	version, err := commentVersion(r.URL.Query().Get("version"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := authorizeViewer(r, h.Mockups, id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	list, err := h.Comments.List(r.Context(), id, version)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Add handles POST /mockups/{id}/comments.
// The comment is bound to the current version. The response carries the
// author token, which is the only way to edit or remove the comment later.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req addCommentRequest
	if err := decodeBody(w, r, h.Validate, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := authorizeViewer(r, h.Mockups, id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Comments.Add(r.Context(), id, service.NewComment{
		Position:    req.Position,
		Body:        req.Body,
		AuthorName:  req.AuthorName,
		AuthorToken: req.AuthorToken,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, addCommentResponse{Comment: c, AuthorToken: c.AuthorToken})
}

// Edit handles PUT /mockups/{id}/comments/{cid}.
// The author token is taken from the body or the X-Author-Token header.
// A mismatch answers 403 forbidden without revealing the author.
func (h *CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editCommentRequest
	if err := decodeBody(w, r, h.Validate, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	token := req.AuthorToken
	if token == "" {
		token = r.Header.Get(authorTokenHeader)
	}
	c, err := h.Comments.Edit(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "cid"), req.Body, token)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Resolve handles PUT /mockups/{id}/comments/{cid}/resolve. An empty body
// or a missing "resolved" field marks the comment resolved.
func (h *CommentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	resolved := true
	if r.ContentLength != 0 {
		var req resolveCommentRequest
		if err := decodeBody(w, r, h.Validate, &req); err != nil {
			writeError(w, h.Log, err)
			return
		}
		if req.Resolved != nil {
			resolved = *req.Resolved
		}
	}
	if err := h.Comments.Resolve(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "cid"), resolved); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /mockups/{id}/comments/{cid}. The designer may
// remove any comment; others must present the author token.
func (h *CommentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(authorTokenHeader)
	if token == "" {
		token = r.URL.Query().Get("authorToken")
	}
	designer := middleware.IsDesigner(r.Context())
	if err := h.Comments.Remove(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "cid"), token, designer); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveAll handles DELETE /mockups/{id}/comments and reports how many
// live comments were removed.
func (h *CommentHandler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Comments.RemoveAll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, removeAllResponse{Removed: n})
}

// commentVersion maps the version query to the ledger's convention where
// 0 selects the current version.
func commentVersion(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, service.CurrentVersion) {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: version %q", models.ErrInvalidInput, raw)
	}
	return n, nil
}

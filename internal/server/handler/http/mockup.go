package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/middleware"
	"github.com/atinyakov/mockshare/internal/models"
	"github.com/atinyakov/mockshare/internal/service"
)

const passwordHeader = "X-Mockup-Password"

// MockupService defines the mockup store operations used by the handlers.
type MockupService interface {
	Create(ctx context.Context, content json.RawMessage, password string) (*models.Mockup, error)
	List(ctx context.Context) ([]models.MockupSummary, error)
	// Authorize checks a viewer password without counting a view.
	Authorize(ctx context.Context, id, password string) (*models.Mockup, error)
	Read(ctx context.Context, id, password, version string) (*models.ReadResult, error)
	Update(ctx context.Context, id string, in service.UpdateInput) error
	Delete(ctx context.Context, id string) error
}

// MockupHandler serves the mockup endpoints.
type MockupHandler struct {
	Mockups  MockupService
	Validate *validator.Validate
	Log      *zap.Logger
}

type createMockupRequest struct {
	Content  json.RawMessage `json:"content" validate:"required"`
	Password string          `json:"password" validate:"max=72"`
}

type createMockupResponse struct {
	ID string `json:"id"`
}

type updateMockupRequest struct {
	Content        json.RawMessage `json:"content" validate:"required"`
	Password       string          `json:"password" validate:"max=72"`
	RemovePassword bool            `json:"removePassword"`
}

// Create handles POST /mockups.
// It expects a JSON body with the opaque "content" document and an
// optional "password". On success it responds 201 with the new id.
func (h *MockupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMockupRequest
	if err := decodeBody(w, r, h.Validate, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	m, err := h.Mockups.Create(r.Context(), req.Content, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, createMockupResponse{ID: m.ID})
}

// List handles GET /mockups.
func (h *MockupHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Mockups.List(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Read handles GET /mockups/{id}?password=&version=.
// The password comes from the X-Mockup-Password header or the query.
// A missing password answers 401 password_required and a wrong one 403
// invalid_password; neither carries content. Every 200 counts one view.
func (h *MockupHandler) Read(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.Mockups.Read(r.Context(), id, viewerPassword(r), r.URL.Query().Get("version"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Update handles PUT /mockups/{id}.
// The content is replaced in place. A non-empty "password" resets the
// guard, "removePassword" clears it, and omitting both keeps it.
// Responds 204.
func (h *MockupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateMockupRequest
	if err := decodeBody(w, r, h.Validate, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	err := h.Mockups.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateInput{
		Content:        req.Content,
		Password:       req.Password,
		RemovePassword: req.RemovePassword,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /mockups/{id}. The mockup goes together with its
// archived versions and comments. Responds 204.
func (h *MockupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Mockups.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// viewerPassword takes the password from the header, falling back to the
// query string used by share links.
func viewerPassword(r *http.Request) string {
	if pw := r.Header.Get(passwordHeader); pw != "" {
		return pw
	}
	return r.URL.Query().Get("password")
}

// authorizeViewer applies the read password to designer-facing reads that
// do not count a view. The designer is always admitted.
func authorizeViewer(r *http.Request, mockups MockupService, id string) error {
	if middleware.IsDesigner(r.Context()) {
		return nil
	}
	_, err := mockups.Authorize(r.Context(), id, viewerPassword(r))
	return err
}

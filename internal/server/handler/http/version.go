package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/models"
)

// VersionCutter performs the version cut.
type VersionCutter interface {
	Cut(ctx context.Context, mockupID string) (*models.CutResult, error)
}

// VersionArchive defines the archive operations used by the handlers.
type VersionArchive interface {
	Get(ctx context.Context, mockupID string, version int) (*models.VersionSnapshot, error)
	List(ctx context.Context, mockupID string, descending bool) ([]models.VersionSummary, error)
	Delete(ctx context.Context, mockupID string, version int) error
}

// VersionHandler serves the version endpoints.
type VersionHandler struct {
	Coordinator VersionCutter
	Versions    VersionArchive
	Mockups     MockupService
	Log         *zap.Logger
}

// Cut handles POST /mockups/{id}/versions.
// The live version is archived with its comments and the next version
// starts from the same content with an empty ledger. Responds 201 with
// the previous and new version numbers.
func (h *VersionHandler) Cut(w http.ResponseWriter, r *http.Request) {
	res, err := h.Coordinator.Cut(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// List handles GET /mockups/{id}/versions?order=asc|desc.
// Newest first by default. The live version is included and marked
// "current". Password protected mockups require the viewer password.
func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	var descending bool
	switch r.URL.Query().Get("order") {
	case "", "desc":
		descending = true
	case "asc":
	default:
		writeError(w, h.Log, fmt.Errorf("%w: order must be asc or desc", models.ErrInvalidInput))
		return
	}
	id := chi.URLParam(r, "id")
	if err := authorizeViewer(r, h.Mockups, id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	list, err := h.Versions.List(r.Context(), id, descending)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /mockups/{id}/versions/{version}.
// It returns the archived snapshot with its frozen comments, gated by the
// viewer password like a read but without counting a view.
func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	version, err := versionParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := authorizeViewer(r, h.Mockups, id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	snap, err := h.Versions.Get(r.Context(), id, version)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Delete handles DELETE /mockups/{id}/versions/{version}.
// The live version and later ones answer 409
// cannot_delete_current_version. Responds 204.
func (h *VersionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	version, err := versionParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Versions.Delete(r.Context(), chi.URLParam(r, "id"), version); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func versionParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "version")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: version %q", models.ErrInvalidInput, raw)
	}
	return n, nil
}

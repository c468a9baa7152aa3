package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/models"
)

// maxBodyBytes bounds request bodies. Mockup content carries image
// references, not image data.
const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP. Password and ownership
// failures never carry content or author details.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var storage *models.StorageError
	switch {
	case errors.Is(err, models.ErrPasswordRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "password_required"})
	case errors.Is(err, models.ErrInvalidPassword):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid_password"})
	case errors.Is(err, models.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
	case errors.Is(err, models.ErrCannotDeleteCurrent):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "cannot_delete_current_version"})
	case errors.Is(err, models.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Detail: err.Error()})
	case errors.As(err, &storage):
		log.Error("storage failure", zap.Error(err))
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage_unavailable"})
	default:
		log.Error("unexpected error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
	}
}

// decodeBody reads a JSON body into dst and validates its struct tags.
// Every failure is reported as models.ErrInvalidInput.
func decodeBody(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid body", models.ErrInvalidInput)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %s", models.ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

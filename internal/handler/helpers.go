package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"filevault/internal/domain"
	"filevault/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var dupErr *domain.DuplicatePathError
	var httpErr domain.HTTPError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &dupErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, dupErr.Error(), map[string]any{
			"path":        dupErr.Path,
			"existing_id": dupErr.ExistingID,
		})
	case errors.As(err, &tooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &httpErr):
		status := httpErr.StatusCode()
		if status >= http.StatusInternalServerError {
			slog.Error("storage inconsistency", "error", err)
			httputil.RespondError(w, status, "file content is unavailable")
			return
		}
		httputil.RespondError(w, status, httpErr.Error())
	default:
		slog.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUserID reads the caller identity set by the identity middleware
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

func validationError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

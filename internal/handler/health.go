package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	vaultSvc "filevault/internal/domain/services/vault"
	"filevault/internal/httputil"
)

// Pinger reports whether the metadata database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and blob store health
type HealthHandler struct {
	db     Pinger
	blobs  vaultSvc.BlobStore
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, blobs vaultSvc.BlobStore, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		blobs:  blobs,
		logger: logger,
	}
}

// HealthCheck pings the database and validates the blob store
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"database": "ok", "blob_store": "ok"}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check: database unreachable", "error", err)
		status["database"] = "unavailable"
		healthy = false
	}
	if err := h.blobs.ValidateSetup(ctx); err != nil {
		h.logger.Warn("health check: blob store unavailable", "error", err)
		status["blob_store"] = "unavailable"
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	httputil.RespondJSON(w, code, status)
}

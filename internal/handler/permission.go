package handler

import (
	"log/slog"
	"net/http"

	vaultSvc "filevault/internal/domain/services/vault"
	"filevault/internal/httputil"
)

// PermissionHandler handles folder permission HTTP requests
type PermissionHandler struct {
	permService vaultSvc.PermissionService
	logger      *slog.Logger
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(permService vaultSvc.PermissionService, logger *slog.Logger) *PermissionHandler {
	return &PermissionHandler{
		permService: permService,
		logger:      logger,
	}
}

// ListGrants lists project members with their grant on a scope
// GET /api/projects/{projectID}/permissions?folder_id=
func (h *PermissionHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	grants, err := h.permService.ListGrants(r.Context(), userID, r.PathValue("projectID"),
		httputil.QueryOptionalString(r, "folder_id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, grants)
}

// SetGrant upserts (or with both flags false, removes) a grant
// PUT /api/projects/{projectID}/permissions
func (h *PermissionHandler) SetGrant(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req vaultSvc.GrantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ProjectID = r.PathValue("projectID")
	req.ActorID = userID

	outcome, err := h.permService.Grant(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"folder_id": req.FolderID,
		"user_id":   req.UserID,
		"can_read":  req.CanRead,
		"can_write": req.CanWrite,
		"outcome":   outcome,
	})
}

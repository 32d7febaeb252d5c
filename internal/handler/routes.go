package handler

import (
	"net/http"
)

// Handlers groups the vault's HTTP handlers
type Handlers struct {
	Folders     *FolderHandler
	Files       *FileHandler
	Permissions *PermissionHandler
	Health      *HealthHandler
}

// RegisterRoutes registers every vault route on mux (Go 1.22+ patterns)
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	// Health check
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Folder routes
	mux.HandleFunc("POST /api/projects/{projectID}/folders", h.Folders.CreateFolder)
	mux.HandleFunc("GET /api/projects/{projectID}/folders", h.Folders.ListFolders)
	mux.HandleFunc("GET /api/folders/{id}", h.Folders.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", h.Folders.UpdateFolder)

	// File routes
	mux.HandleFunc("GET /api/projects/{projectID}/files", h.Files.ListFiles)
	mux.HandleFunc("POST /api/projects/{projectID}/files", h.Files.UploadFile)
	mux.HandleFunc("GET /api/files/{id}", h.Files.GetFile)
	mux.HandleFunc("PATCH /api/files/{id}", h.Files.MoveFile)
	mux.HandleFunc("DELETE /api/files/{id}", h.Files.DeleteFile)
	mux.HandleFunc("GET /api/files/{id}/content", h.Files.DownloadFile)
	mux.HandleFunc("PUT /api/files/{id}/content", h.Files.ReplaceFile)

	// Revision routes
	mux.HandleFunc("GET /api/files/{id}/revisions", h.Files.ListRevisions)
	mux.HandleFunc("GET /api/files/{id}/revisions/{no}", h.Files.GetRevision)
	mux.HandleFunc("POST /api/files/{id}/revisions/{no}/restore", h.Files.RestoreRevision)

	// Permission routes
	mux.HandleFunc("GET /api/projects/{projectID}/permissions", h.Permissions.ListGrants)
	mux.HandleFunc("PUT /api/projects/{projectID}/permissions", h.Permissions.SetGrant)
}

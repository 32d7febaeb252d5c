package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	vaultSvc "filevault/internal/domain/services/vault"
	"filevault/internal/httputil"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file
const multipartMemory = 8 << 20

// FileHandler handles file and revision HTTP requests
type FileHandler struct {
	fileService    vaultSvc.FileService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService vaultSvc.FileService, maxUploadBytes int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListFiles lists the files of one folder
// GET /api/projects/{projectID}/files?folder=Design/IFC
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	files, err := h.fileService.ListFiles(r.Context(), userID, r.PathValue("projectID"), r.URL.Query().Get("folder"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}

// UploadFile uploads a new file (multipart fields: file, folder)
// POST /api/projects/{projectID}/files
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	part, header, err := h.formFile(w, r)
	if err != nil {
		handleError(w, err)
		return
	}
	defer part.Close()

	file, err := h.fileService.UploadFile(r.Context(), &vaultSvc.UploadFileRequest{
		ProjectID:   r.PathValue("projectID"),
		UserID:      userID,
		FolderPath:  r.FormValue("folder"),
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     part,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// GetFile retrieves file metadata
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	file, err := h.fileService.GetFile(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// MoveFile moves and/or renames a file
// PATCH /api/files/{id}
func (h *FileHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req vaultSvc.MoveFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	file, err := h.fileService.MoveFile(r.Context(), userID, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// DeleteFile soft-deletes a file
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.fileService.DeleteFile(r.Context(), userID, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReplaceFile uploads new content as the next revision (multipart fields: file, name)
// PUT /api/files/{id}/content
func (h *FileHandler) ReplaceFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	part, header, err := h.formFile(w, r)
	if err != nil {
		handleError(w, err)
		return
	}
	defer part.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	rev, err := h.fileService.ReplaceFile(r.Context(), &vaultSvc.ReplaceFileRequest{
		FileID:      r.PathValue("id"),
		UserID:      userID,
		Name:        name,
		ContentType: header.Header.Get("Content-Type"),
		Content:     part,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, rev)
}

// DownloadFile streams the current content, or a revision's with ?revision=n
// GET /api/files/{id}/content
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	revisionNo, err := httputil.QueryOptionalInt(r, "revision")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := h.fileService.OpenFile(r.Context(), userID, r.PathValue("id"), revisionNo)
	if err != nil {
		handleError(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(content.SizeBytes, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": content.Name}))
	w.Header().Set("X-Revision-No", strconv.Itoa(content.RevisionNo))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		// Headers are gone; all that is left is to log
		h.logger.Warn("download interrupted",
			"file_id", r.PathValue("id"),
			"error", err,
		)
	}
}

// ListRevisions lists a file's revisions
// GET /api/files/{id}/revisions
func (h *FileHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	revs, err := h.fileService.ListRevisions(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, revs)
}

// GetRevision retrieves one revision
// GET /api/files/{id}/revisions/{no}
func (h *FileHandler) GetRevision(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	no, err := httputil.PathInt(r, "no")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rev, err := h.fileService.GetRevision(r.Context(), userID, r.PathValue("id"), no)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rev)
}

// RestoreRevision appends a revision pointing at an earlier one's content
// POST /api/files/{id}/revisions/{no}/restore
func (h *FileHandler) RestoreRevision(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	no, err := httputil.PathInt(r, "no")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rev, err := h.fileService.RestoreRevision(r.Context(), userID, r.PathValue("id"), no)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, rev)
}

var errMissingFilePart = errors.New("multipart field \"file\" is required")

// formFile parses a bounded multipart body and returns its "file" part
func (h *FileHandler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, validationError(err)
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, validationError(errMissingFilePart)
	}
	return part, header, nil
}

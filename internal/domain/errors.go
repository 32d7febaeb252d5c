package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicatePath        = errors.New("path already exists")
	ErrInvalidParent        = errors.New("invalid parent")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrStorageInconsistency = errors.New("storage inconsistency")
	ErrValidation           = errors.New("validation failed")
	ErrUnauthorized         = errors.New("unauthorized")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a folder, file or revision is missing
	NotFoundError struct {
		Resource string
		ID       string
	}

	// PermissionDeniedError indicates a membership or folder read/write gate failed
	PermissionDeniedError struct {
		Message string
	}

	// InvalidParentError indicates a move would make a folder its own ancestor
	InvalidParentError struct {
		FolderID string
		ParentID string
	}

	// StorageInconsistencyError indicates metadata references a blob the store cannot read
	StorageInconsistencyError struct {
		Location string
		Err      error
	}
)

func (e *NotFoundError) Error() string { return e.Resource + " " + e.ID + ": not found" }
func (e *PermissionDeniedError) Error() string {
	return "permission denied: " + e.Message
}
func (e *InvalidParentError) Error() string {
	return "invalid parent (cycle): folder " + e.FolderID + " cannot move under " + e.ParentID
}
func (e *StorageInconsistencyError) Error() string {
	if e.Err != nil {
		return "blob " + e.Location + " is unreadable: " + e.Err.Error()
	}
	return "blob " + e.Location + " is unreadable"
}

func (e *NotFoundError) StatusCode() int             { return http.StatusNotFound }
func (e *PermissionDeniedError) StatusCode() int     { return http.StatusForbidden }
func (e *InvalidParentError) StatusCode() int        { return http.StatusBadRequest }
func (e *StorageInconsistencyError) StatusCode() int { return http.StatusBadGateway }

func (e *NotFoundError) Is(target error) bool             { return target == ErrNotFound }
func (e *PermissionDeniedError) Is(target error) bool     { return target == ErrPermissionDenied }
func (e *InvalidParentError) Is(target error) bool        { return target == ErrInvalidParent }
func (e *StorageInconsistencyError) Is(target error) bool { return target == ErrStorageInconsistency }
func (e *StorageInconsistencyError) Unwrap() error        { return e.Err }

// DuplicatePathError represents a folder path collision with details about the existing folder
type DuplicatePathError struct {
	Path       string // Path that already exists in the project
	ExistingID string // ID of the folder holding that path, if known
}

// Error implements the error interface
func (e *DuplicatePathError) Error() string {
	return "folder path '" + e.Path + "' already exists"
}

// StatusCode implements the HTTPError interface
func (e *DuplicatePathError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrDuplicatePath
func (e *DuplicatePathError) Is(target error) bool {
	return target == ErrDuplicatePath
}

// NewNotFound builds a NotFoundError for the given resource kind and id
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewPermissionDenied builds a PermissionDeniedError
func NewPermissionDenied(message string) error {
	return &PermissionDeniedError{Message: message}
}

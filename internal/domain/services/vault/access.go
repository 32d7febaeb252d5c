package vault

import (
	"context"

	models "filevault/internal/domain/models/vault"
)

// AccessGate answers project membership and admin questions. It is owned by
// the identity/project layer; the vault only consumes it.
type AccessGate interface {
	// IsMember reports whether the user belongs to the project
	IsMember(ctx context.Context, userID, projectID string) (bool, error)

	// IsAdmin reports whether the user bypasses folder permissions everywhere
	IsAdmin(ctx context.Context, userID string) (bool, error)

	// ListMembers lists the members of a project
	ListMembers(ctx context.Context, projectID string) ([]models.Member, error)
}

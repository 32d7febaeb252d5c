package vault

import (
	"context"
	"fmt"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultSvc "filevault/internal/domain/services/vault"
)

// Authorizer gates vault operations: project membership first, then
// folder-level read/write through the resolver.
type Authorizer struct {
	gate     vaultSvc.AccessGate
	resolver *Resolver
}

// NewAuthorizer creates a new membership + folder permission authorizer
func NewAuthorizer(gate vaultSvc.AccessGate, resolver *Resolver) *Authorizer {
	return &Authorizer{
		gate:     gate,
		resolver: resolver,
	}
}

// CanAccessProject checks the user is a project member (admins always are)
func (a *Authorizer) CanAccessProject(ctx context.Context, userID, projectID string) error {
	admin, err := a.gate.IsAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if admin {
		return nil
	}

	member, err := a.gate.IsMember(ctx, userID, projectID)
	if err != nil {
		return fmt.Errorf("check project membership: %w", err)
	}
	if !member {
		return domain.NewPermissionDenied("not a member of project " + projectID)
	}
	return nil
}

// CanRead checks read access on a folder scope (nil = project root)
func (a *Authorizer) CanRead(ctx context.Context, userID, projectID string, folderID *string) error {
	access, err := a.resolver.Effective(ctx, projectID, userID, folderID)
	if err != nil {
		return err
	}
	if !access.CanRead {
		return domain.NewPermissionDenied("no read access to " + describeScope(folderID))
	}
	return nil
}

// CanWrite checks write access on a folder scope (nil = project root)
func (a *Authorizer) CanWrite(ctx context.Context, userID, projectID string, folderID *string) error {
	access, err := a.resolver.Effective(ctx, projectID, userID, folderID)
	if err != nil {
		return err
	}
	if !access.CanWrite {
		return domain.NewPermissionDenied("no write access to " + describeScope(folderID))
	}
	return nil
}

// Effective exposes the resolver for callers that need both flags
func (a *Authorizer) Effective(ctx context.Context, projectID, userID string, folderID *string) (models.Access, error) {
	return a.resolver.Effective(ctx, projectID, userID, folderID)
}

func describeScope(folderID *string) string {
	if folderID == nil {
		return "project root"
	}
	return "folder " + *folderID
}

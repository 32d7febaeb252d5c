package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filevault/internal/config"
	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultRepo "filevault/internal/domain/repositories/vault"
	vaultSvc "filevault/internal/domain/services/vault"
)

// parentLookup resolves a folder's parent. found=false means the folder
// record is missing, which ends the walk.
type parentLookup func(ctx context.Context, folderID string) (parentID *string, found bool, err error)

// ancestorChain lists scopes from the folder itself up to its top-level
// ancestor, followed by a nil sentinel for the project root scope. The walk
// never trusts parent pointers: it stops on a revisited id (cycle), a missing
// record or the depth bound.
func ancestorChain(ctx context.Context, start *string, lookup parentLookup) ([]*string, error) {
	chain := []*string{}
	visited := make(map[string]struct{})

	current := start
	for current != nil && len(chain) < config.MaxFolderDepth {
		id := *current
		if _, seen := visited[id]; seen {
			break
		}
		visited[id] = struct{}{}
		chain = append(chain, &id)

		parent, found, err := lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		current = parent
	}

	return append(chain, nil), nil
}

// mostSpecific walks scopes in order and returns the first explicit entry.
// It knows nothing about folders; deeper inheritance rules only need to
// produce a longer or differently ordered scope list.
func mostSpecific[S, T any](scopes []S, lookup func(S) (T, bool)) (T, bool) {
	for _, scope := range scopes {
		if v, ok := lookup(scope); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// scopeKey indexes grants by folder scope; "" is the project root
func scopeKey(folderID *string) string {
	if folderID == nil {
		return ""
	}
	return *folderID
}

// resolveAccess applies the grants to an ancestor chain. No grant anywhere in
// the chain is a deny.
func resolveAccess(chain []*string, grants map[string]models.FolderPermission) models.Access {
	grant, ok := mostSpecific(chain, func(scope *string) (models.FolderPermission, bool) {
		g, ok := grants[scopeKey(scope)]
		return g, ok
	})
	if !ok {
		return models.NoAccess
	}
	return models.Access{CanRead: grant.CanRead, CanWrite: grant.CanWrite}
}

// Resolver computes effective folder permissions.
//
// Admins get full access. A project without any grant is open to every
// member; once a single grant exists anywhere in the project, access is
// denied unless a grant on the folder or one of its ancestors (or the
// project root scope) says otherwise. The most specific grant wins.
type Resolver struct {
	gate       vaultSvc.AccessGate
	folderRepo vaultRepo.FolderRepository
	permRepo   vaultRepo.PermissionRepository
	logger     *slog.Logger
}

// NewResolver creates a permission resolver
func NewResolver(
	gate vaultSvc.AccessGate,
	folderRepo vaultRepo.FolderRepository,
	permRepo vaultRepo.PermissionRepository,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		gate:       gate,
		folderRepo: folderRepo,
		permRepo:   permRepo,
		logger:     logger,
	}
}

// Effective computes the user's access on one folder (nil = project root)
func (r *Resolver) Effective(ctx context.Context, projectID, userID string, folderID *string) (models.Access, error) {
	open, err := r.unrestricted(ctx, projectID, userID)
	if err != nil || open {
		return models.FullAccess, err
	}

	grants, err := r.userGrants(ctx, projectID, userID)
	if err != nil {
		return models.NoAccess, err
	}

	chain, err := ancestorChain(ctx, folderID, r.repoParents(projectID))
	if err != nil {
		return models.NoAccess, err
	}

	access := resolveAccess(chain, grants)
	r.logger.Debug("effective permission resolved",
		"project_id", projectID,
		"user_id", userID,
		"folder_id", folderID,
		"chain_length", len(chain),
		"can_read", access.CanRead,
		"can_write", access.CanWrite,
	)
	return access, nil
}

// EffectiveForFolders computes access on many folders of one project with a
// constant number of queries, walking parent pointers in memory.
func (r *Resolver) EffectiveForFolders(ctx context.Context, projectID, userID string, folders []models.Folder) (map[string]models.Access, error) {
	result := make(map[string]models.Access, len(folders))

	open, err := r.unrestricted(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if open {
		for _, f := range folders {
			result[f.ID] = models.FullAccess
		}
		return result, nil
	}

	grants, err := r.userGrants(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	parents := make(map[string]*string, len(folders))
	for _, f := range folders {
		parents[f.ID] = f.ParentID
	}
	lookup := func(_ context.Context, id string) (*string, bool, error) {
		parent, ok := parents[id]
		return parent, ok, nil
	}

	for _, f := range folders {
		id := f.ID
		chain, err := ancestorChain(ctx, &id, lookup)
		if err != nil {
			return nil, err
		}
		result[f.ID] = resolveAccess(chain, grants)
	}
	return result, nil
}

// unrestricted reports whether the user bypasses folder grants: admins always,
// everyone while the project has no grant rows at all
func (r *Resolver) unrestricted(ctx context.Context, projectID, userID string) (bool, error) {
	admin, err := r.gate.IsAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if admin {
		return true, nil
	}

	count, err := r.permRepo.CountByProject(ctx, projectID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *Resolver) userGrants(ctx context.Context, projectID, userID string) (map[string]models.FolderPermission, error) {
	perms, err := r.permRepo.ListForUser(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	grants := make(map[string]models.FolderPermission, len(perms))
	for _, p := range perms {
		grants[scopeKey(p.FolderID)] = p
	}
	return grants, nil
}

func (r *Resolver) repoParents(projectID string) parentLookup {
	return func(ctx context.Context, folderID string) (*string, bool, error) {
		folder, err := r.folderRepo.GetByID(ctx, folderID, projectID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, false, nil
			}
			return nil, false, err
		}
		return folder.ParentID, true, nil
	}
}

package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	"filevault/internal/domain/repositories"
	vaultRepo "filevault/internal/domain/repositories/vault"
	vaultSvc "filevault/internal/domain/services/vault"
)

type permissionService struct {
	permRepo   vaultRepo.PermissionRepository
	folderRepo vaultRepo.FolderRepository
	gate       vaultSvc.AccessGate
	txManager  repositories.TransactionManager
	authorizer *Authorizer
	resolver   *Resolver
	logger     *slog.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	permRepo vaultRepo.PermissionRepository,
	folderRepo vaultRepo.FolderRepository,
	gate vaultSvc.AccessGate,
	txManager repositories.TransactionManager,
	authorizer *Authorizer,
	resolver *Resolver,
	logger *slog.Logger,
) vaultSvc.PermissionService {
	return &permissionService{
		permRepo:   permRepo,
		folderRepo: folderRepo,
		gate:       gate,
		txManager:  txManager,
		authorizer: authorizer,
		resolver:   resolver,
		logger:     logger,
	}
}

// Effective computes the user's access on a folder (nil = project root)
func (s *permissionService) Effective(ctx context.Context, projectID, userID string, folderID *string) (models.Access, error) {
	return s.resolver.Effective(ctx, projectID, userID, emptyToNil(folderID))
}

// Grant upserts the explicit grant of a user on a folder scope. Granting
// neither read nor write deletes the grant, so a (false,false) row never exists.
// Any project member may manage grants; folder access does not gate it, so a
// member who restricts the project can still see and undo their grants.
func (s *permissionService) Grant(ctx context.Context, req *vaultSvc.GrantRequest) (models.GrantOutcome, error) {
	err := validateRequired(map[string]string{
		"project_id": req.ProjectID,
		"actor_id":   req.ActorID,
		"user_id":    req.UserID,
	})
	if err != nil {
		return "", err
	}
	folderID := emptyToNil(req.FolderID)

	if err := s.authorizeScope(ctx, req.ActorID, req.ProjectID, folderID); err != nil {
		return "", err
	}

	var outcome models.GrantOutcome
	err = s.txManager.ExecProjectTx(ctx, req.ProjectID, func(txCtx context.Context) error {
		existing, err := s.permRepo.Get(txCtx, req.ProjectID, folderID, req.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		switch {
		case !req.CanRead && !req.CanWrite:
			if existing == nil {
				outcome = models.GrantUnchanged
				return nil
			}
			outcome = models.GrantDeleted
			return s.permRepo.Delete(txCtx, existing.ID)

		case existing == nil:
			outcome = models.GrantCreated
			return s.permRepo.Create(txCtx, &models.FolderPermission{
				ProjectID: req.ProjectID,
				FolderID:  folderID,
				UserID:    req.UserID,
				CanRead:   req.CanRead,
				CanWrite:  req.CanWrite,
			})

		case existing.CanRead == req.CanRead && existing.CanWrite == req.CanWrite:
			outcome = models.GrantUnchanged
			return nil

		default:
			outcome = models.GrantUpdated
			existing.CanRead = req.CanRead
			existing.CanWrite = req.CanWrite
			return s.permRepo.Update(txCtx, existing)
		}
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("folder permission set",
		"project_id", req.ProjectID,
		"folder_id", folderID,
		"user_id", req.UserID,
		"actor_id", req.ActorID,
		"can_read", req.CanRead,
		"can_write", req.CanWrite,
		"outcome", outcome,
	)

	return outcome, nil
}

// ListGrants lists every project member merged with their explicit grant on
// the scope. Members without a grant are reported with both flags false.
func (s *permissionService) ListGrants(ctx context.Context, actorID, projectID string, folderID *string) ([]models.MemberGrant, error) {
	folderID = emptyToNil(folderID)
	if err := s.authorizeScope(ctx, actorID, projectID, folderID); err != nil {
		return nil, err
	}

	members, err := s.gate.ListMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}

	perms, err := s.permRepo.ListForScope(ctx, projectID, folderID)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]models.FolderPermission, len(perms))
	for _, p := range perms {
		byUser[p.UserID] = p
	}

	grants := make([]models.MemberGrant, 0, len(members))
	for _, m := range members {
		g := models.MemberGrant{Member: m}
		if p, ok := byUser[m.UserID]; ok {
			g.CanRead = p.CanRead
			g.CanWrite = p.CanWrite
		}
		grants = append(grants, g)
	}
	return grants, nil
}

// authorizeScope checks membership and that the folder scope exists in the project
func (s *permissionService) authorizeScope(ctx context.Context, actorID, projectID string, folderID *string) error {
	if err := s.authorizer.CanAccessProject(ctx, actorID, projectID); err != nil {
		return err
	}
	if folderID == nil {
		return nil
	}
	if _, err := s.folderRepo.GetByID(ctx, *folderID, projectID); err != nil {
		return fmt.Errorf("get folder: %w", err)
	}
	return nil
}

func emptyToNil(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	"filevault/internal/domain/repositories"
	vaultRepo "filevault/internal/domain/repositories/vault"
	vaultSvc "filevault/internal/domain/services/vault"
)

type folderService struct {
	folderRepo vaultRepo.FolderRepository
	fileRepo   vaultRepo.FileRepository
	txManager  repositories.TransactionManager
	authorizer *Authorizer
	resolver   *Resolver
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo vaultRepo.FolderRepository,
	fileRepo vaultRepo.FileRepository,
	txManager repositories.TransactionManager,
	authorizer *Authorizer,
	resolver *Resolver,
	logger *slog.Logger,
) vaultSvc.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		txManager:  txManager,
		authorizer: authorizer,
		resolver:   resolver,
		logger:     logger,
	}
}

// CreateFolder creates a folder under an optional parent. Project membership
// is the only gate.
func (s *folderService) CreateFolder(ctx context.Context, req *vaultSvc.CreateFolderRequest) (*models.Folder, error) {
	if err := validateRequired(map[string]string{"project_id": req.ProjectID, "user_id": req.UserID}); err != nil {
		return nil, err
	}

	name := normalizeFolderName(req.Name)
	if err := validateFolderName(name); err != nil {
		return nil, err
	}

	// Empty string means root, same as null
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	if err := s.authorizer.CanAccessProject(ctx, req.UserID, req.ProjectID); err != nil {
		return nil, err
	}

	parentPath := ""
	if req.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *req.ParentID, req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("get parent folder: %w", err)
		}
		parentPath = parent.Path
	}

	path := joinPath(parentPath, name)
	if err := validateFolderPath(path); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	folder := &models.Folder{
		ProjectID: req.ProjectID,
		ParentID:  req.ParentID,
		Name:      name,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.txManager.ExecProjectTx(ctx, req.ProjectID, func(txCtx context.Context) error {
		// Parent may have moved since the unlocked read
		if folder.ParentID != nil {
			parent, err := s.folderRepo.GetByID(txCtx, *folder.ParentID, folder.ProjectID)
			if err != nil {
				return fmt.Errorf("get parent folder: %w", err)
			}
			folder.Path = joinPath(parent.Path, name)
		}
		if err := s.ensurePathFree(txCtx, folder.ProjectID, folder.Path); err != nil {
			return err
		}
		return s.folderRepo.Create(txCtx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"project_id", folder.ProjectID,
		"parent_id", folder.ParentID,
		"path", folder.Path,
	)

	return folder, nil
}

// GetFolder retrieves a folder after the membership gate
func (s *folderService) GetFolder(ctx context.Context, userID, folderID string) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByIDOnly(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessProject(ctx, userID, folder.ProjectID); err != nil {
		return nil, err
	}
	return folder, nil
}

// MoveOrRenameFolder renames and/or reparents a folder. The new path is
// cascaded to every descendant folder and to every file (deleted ones
// included) that lives in the folder or below it, all in one project-locked
// transaction.
func (s *folderService) MoveOrRenameFolder(ctx context.Context, userID, folderID string, req *vaultSvc.UpdateFolderRequest) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByIDOnly(ctx, folderID)
	if err != nil {
		return nil, err
	}
	projectID := folder.ProjectID

	if err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if err := s.authorizer.CanWrite(ctx, userID, projectID, &folder.ID); err != nil {
		return nil, err
	}

	newName := folder.Name
	if req.Name != nil {
		newName = normalizeFolderName(*req.Name)
		if err := validateFolderName(newName); err != nil {
			return nil, err
		}
	}

	newParentID := req.ParentID.Resolve(folder.ParentID)
	parentChanged := !samePtr(newParentID, folder.ParentID)

	if newParentID != nil && *newParentID == folder.ID {
		return nil, &domain.InvalidParentError{FolderID: folder.ID, ParentID: *newParentID}
	}

	if parentChanged {
		if newParentID != nil {
			if _, err := s.folderRepo.GetByID(ctx, *newParentID, projectID); err != nil {
				return nil, fmt.Errorf("get destination folder: %w", err)
			}
		}
		if err := s.authorizer.CanWrite(ctx, userID, projectID, newParentID); err != nil {
			return nil, err
		}
	}

	var oldPath string
	var cascaded, filesMoved int64

	err = s.txManager.ExecProjectTx(ctx, projectID, func(txCtx context.Context) error {
		// Re-read under the project lock; a concurrent move may have changed the path
		current, err := s.folderRepo.GetByID(txCtx, folder.ID, projectID)
		if err != nil {
			return err
		}

		parentPath := ""
		if newParentID != nil {
			parent, err := s.folderRepo.GetByID(txCtx, *newParentID, projectID)
			if err != nil {
				return fmt.Errorf("get destination folder: %w", err)
			}
			if err := s.checkNotDescendant(txCtx, current, parent); err != nil {
				return err
			}
			parentPath = parent.Path
		}

		newPath := joinPath(parentPath, newName)
		if err := validateFolderPath(newPath); err != nil {
			return err
		}

		oldPath = current.Path
		if newPath != oldPath {
			if err := s.ensurePathFree(txCtx, projectID, newPath); err != nil {
				return err
			}
		}

		current.Name = newName
		current.ParentID = newParentID
		current.Path = newPath
		current.UpdatedAt = time.Now().UTC()
		if err := s.folderRepo.Update(txCtx, current); err != nil {
			return err
		}

		if newPath != oldPath {
			cascaded, err = s.folderRepo.ReplacePathPrefix(txCtx, projectID, oldPath+pathSeparator, newPath+pathSeparator)
			if err != nil {
				return fmt.Errorf("cascade folder paths: %w", err)
			}
			filesMoved, err = s.fileRepo.ReplaceFolderPrefix(txCtx, projectID, oldPath, newPath)
			if err != nil {
				return fmt.Errorf("cascade file folders: %w", err)
			}
		}

		folder = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder moved",
		"id", folder.ID,
		"project_id", projectID,
		"old_path", oldPath,
		"new_path", folder.Path,
		"descendant_folders", cascaded,
		"files", filesMoved,
	)

	return folder, nil
}

// ListFolders lists every folder of the project, each annotated with the
// caller's effective access. Entries are not filtered by access.
func (s *folderService) ListFolders(ctx context.Context, userID, projectID string) ([]models.FolderListing, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	folders, err := s.folderRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	access, err := s.resolver.EffectiveForFolders(ctx, projectID, userID, folders)
	if err != nil {
		return nil, err
	}

	listings := make([]models.FolderListing, 0, len(folders))
	for _, f := range folders {
		a := access[f.ID]
		listings = append(listings, models.FolderListing{
			Folder:   f,
			CanRead:  a.CanRead,
			CanWrite: a.CanWrite,
		})
	}
	return listings, nil
}

// ensurePathFree fails with DuplicatePathError when a folder already holds path
func (s *folderService) ensurePathFree(ctx context.Context, projectID, path string) error {
	existing, err := s.folderRepo.GetByPath(ctx, projectID, path)
	if err == nil {
		return &domain.DuplicatePathError{Path: path, ExistingID: existing.ID}
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("check folder path: %w", err)
}

// checkNotDescendant rejects moving folder under itself or one of its
// descendants. Paths are checked first; parent pointers are walked as well
// so a stale path cannot hide a cycle.
func (s *folderService) checkNotDescendant(ctx context.Context, folder, parent *models.Folder) error {
	cycle := &domain.InvalidParentError{FolderID: folder.ID, ParentID: parent.ID}
	if isSelfOrDescendantPath(parent.Path, folder.Path) {
		return cycle
	}

	chain, err := ancestorChain(ctx, &parent.ID, s.resolver.repoParents(folder.ProjectID))
	if err != nil {
		return err
	}
	for _, scope := range chain {
		if scope != nil && *scope == folder.ID {
			return cycle
		}
	}
	return nil
}

package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	"filevault/internal/domain/repositories"
	vaultRepo "filevault/internal/domain/repositories/vault"
	vaultSvc "filevault/internal/domain/services/vault"
)

type fileService struct {
	fileRepo     vaultRepo.FileRepository
	revisionRepo vaultRepo.RevisionRepository
	folderRepo   vaultRepo.FolderRepository
	blobs        vaultSvc.BlobStore
	txManager    repositories.TransactionManager
	authorizer   *Authorizer
	logger       *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	fileRepo vaultRepo.FileRepository,
	revisionRepo vaultRepo.RevisionRepository,
	folderRepo vaultRepo.FolderRepository,
	blobs vaultSvc.BlobStore,
	txManager repositories.TransactionManager,
	authorizer *Authorizer,
	logger *slog.Logger,
) vaultSvc.FileService {
	return &fileService{
		fileRepo:     fileRepo,
		revisionRepo: revisionRepo,
		folderRepo:   folderRepo,
		blobs:        blobs,
		txManager:    txManager,
		authorizer:   authorizer,
		logger:       logger,
	}
}

// UploadFile stores the content, then records the file and its revision 1 in
// one transaction. The caller needs write access on the destination folder.
func (s *fileService) UploadFile(ctx context.Context, req *vaultSvc.UploadFileRequest) (*models.File, error) {
	if err := validateRequired(map[string]string{"project_id": req.ProjectID, "user_id": req.UserID}); err != nil {
		return nil, err
	}
	if req.Content == nil {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	if err := s.authorizer.CanAccessProject(ctx, req.UserID, req.ProjectID); err != nil {
		return nil, err
	}

	folderPath := normalizeFolderPath(req.FolderPath)
	folderID, err := s.destinationFolder(ctx, req.ProjectID, folderPath)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanWrite(ctx, req.UserID, req.ProjectID, folderID); err != nil {
		return nil, err
	}

	name := sanitizeFileName(req.Name)
	blob, err := s.writeBlob(ctx, req.ProjectID, name, req.ContentType, req.Content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	file := &models.File{
		ProjectID:    req.ProjectID,
		Folder:       ptrOrNil(folderPath),
		OriginalName: name,
		Blob:         blob,
		UploadedAt:   now,
		UpdatedAt:    now,
	}
	uploader := req.UserID

	err = s.txManager.ExecProjectTx(ctx, req.ProjectID, func(txCtx context.Context) error {
		// The folder may have been renamed while the blob was written
		if _, err := s.destinationFolder(txCtx, req.ProjectID, folderPath); err != nil {
			return err
		}
		if err := s.fileRepo.Create(txCtx, file); err != nil {
			return err
		}
		return s.revisionRepo.Append(txCtx, &models.FileRevision{
			FileID:     file.ID,
			RevisionNo: 1,
			Blob:       blob,
			UploadedBy: &uploader,
			UploadedAt: now,
		})
	})
	if err != nil {
		s.logOrphan(blob, err)
		return nil, err
	}

	s.logger.Info("file uploaded",
		"id", file.ID,
		"project_id", file.ProjectID,
		"folder", folderPath,
		"name", file.OriginalName,
		"size_bytes", blob.SizeBytes,
	)

	return file, nil
}

// ReplaceFile appends a revision holding new content and moves the file's
// pointer to it. A file without any revision gets revision 1 synthesized from
// its current pointer first, so the new content becomes revision 2.
func (s *fileService) ReplaceFile(ctx context.Context, req *vaultSvc.ReplaceFileRequest) (*models.FileRevision, error) {
	if err := validateRequired(map[string]string{"file_id": req.FileID, "user_id": req.UserID}); err != nil {
		return nil, err
	}
	if req.Content == nil {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	file, err := s.authorizeFile(ctx, req.UserID, req.FileID, true)
	if err != nil {
		return nil, err
	}

	name := file.OriginalName
	if strings.TrimSpace(req.Name) != "" {
		name = sanitizeFileName(req.Name)
	}

	blob, err := s.writeBlob(ctx, file.ProjectID, name, req.ContentType, req.Content)
	if err != nil {
		return nil, err
	}

	rev, err := s.appendRevision(ctx, file, req.UserID, func(context.Context) (models.BlobRef, error) {
		return blob, nil
	}, name)
	if err != nil {
		s.logOrphan(blob, err)
		return nil, err
	}

	s.logger.Info("file replaced",
		"id", file.ID,
		"project_id", file.ProjectID,
		"revision_no", rev.RevisionNo,
		"size_bytes", blob.SizeBytes,
	)

	return rev, nil
}

// RestoreRevision appends a revision pointing at the blob of an earlier
// revision. History is never rewritten; restoring revision 1 of a file at
// revision 2 yields revision 3.
func (s *fileService) RestoreRevision(ctx context.Context, userID, fileID string, revisionNo int) (*models.FileRevision, error) {
	if err := validateRevisionNo(revisionNo); err != nil {
		return nil, err
	}

	file, err := s.authorizeFile(ctx, userID, fileID, true)
	if err != nil {
		return nil, err
	}

	rev, err := s.appendRevision(ctx, file, userID, func(txCtx context.Context) (models.BlobRef, error) {
		target, err := s.revisionRepo.Get(txCtx, file.ID, revisionNo)
		if err != nil {
			return models.BlobRef{}, err
		}
		return target.Blob, nil
	}, file.OriginalName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("file revision restored",
		"id", file.ID,
		"project_id", file.ProjectID,
		"restored_from", revisionNo,
		"revision_no", rev.RevisionNo,
	)

	return rev, nil
}

// MoveFile changes the logical folder and/or name of a file. The caller needs
// write access on the source folder and, when a folder is given, on the
// destination. Name collisions in the destination are allowed.
func (s *fileService) MoveFile(ctx context.Context, userID, fileID string, req *vaultSvc.MoveFileRequest) (*models.File, error) {
	file, err := s.authorizeFile(ctx, userID, fileID, true)
	if err != nil {
		return nil, err
	}

	newFolder := file.FolderPath()
	if req.Folder.Present {
		newFolder = ""
		if dest := req.Folder.Resolve(nil); dest != nil {
			newFolder = normalizeFolderPath(*dest)
		}
		destID, err := s.destinationFolder(ctx, file.ProjectID, newFolder)
		if err != nil {
			return nil, err
		}
		if err := s.authorizer.CanWrite(ctx, userID, file.ProjectID, destID); err != nil {
			return nil, err
		}
	}

	newName := file.OriginalName
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		newName = sanitizeFileName(*req.Name)
	}

	err = s.txManager.ExecProjectTx(ctx, file.ProjectID, func(txCtx context.Context) error {
		current, err := s.fileRepo.GetByID(txCtx, file.ID)
		if err != nil {
			return err
		}
		if req.Folder.Present {
			// Destination may have been renamed since the unlocked check
			if _, err := s.destinationFolder(txCtx, current.ProjectID, newFolder); err != nil {
				return err
			}
		} else {
			newFolder = current.FolderPath()
		}
		current.Folder = ptrOrNil(newFolder)
		current.OriginalName = newName
		current.UpdatedAt = time.Now().UTC()
		if err := s.fileRepo.UpdateLocation(txCtx, current); err != nil {
			return err
		}
		file = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file moved",
		"id", file.ID,
		"project_id", file.ProjectID,
		"folder", newFolder,
		"name", file.OriginalName,
	)

	return file, nil
}

// DeleteFile soft-deletes a file; it disappears from every read path
func (s *fileService) DeleteFile(ctx context.Context, userID, fileID string) error {
	file, err := s.authorizeFile(ctx, userID, fileID, true)
	if err != nil {
		return err
	}

	if err := s.fileRepo.SoftDelete(ctx, file.ID); err != nil {
		return err
	}

	s.logger.Info("file deleted",
		"id", file.ID,
		"project_id", file.ProjectID,
	)
	return nil
}

// GetFile retrieves an active file
func (s *fileService) GetFile(ctx context.Context, userID, fileID string) (*models.File, error) {
	return s.authorizeFile(ctx, userID, fileID, false)
}

// ListFiles lists the active files living exactly in folderPath
func (s *fileService) ListFiles(ctx context.Context, userID, projectID, folderPath string) ([]models.FileListing, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	folderPath = normalizeFolderPath(folderPath)
	folderID, err := s.destinationFolder(ctx, projectID, folderPath)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanRead(ctx, userID, projectID, folderID); err != nil {
		return nil, err
	}

	return s.fileRepo.ListByFolder(ctx, projectID, folderPath)
}

// ListRevisions lists a file's revisions ascending
func (s *fileService) ListRevisions(ctx context.Context, userID, fileID string) ([]models.FileRevision, error) {
	file, err := s.authorizeFile(ctx, userID, fileID, false)
	if err != nil {
		return nil, err
	}
	return s.revisionRepo.ListByFile(ctx, file.ID)
}

// GetRevision retrieves one revision of a file
func (s *fileService) GetRevision(ctx context.Context, userID, fileID string, revisionNo int) (*models.FileRevision, error) {
	if err := validateRevisionNo(revisionNo); err != nil {
		return nil, err
	}
	file, err := s.authorizeFile(ctx, userID, fileID, false)
	if err != nil {
		return nil, err
	}
	return s.revisionRepo.Get(ctx, file.ID, revisionNo)
}

// OpenFile opens the current content of a file, or of one of its revisions.
// The caller must close the returned content.
func (s *fileService) OpenFile(ctx context.Context, userID, fileID string, revisionNo *int) (*vaultSvc.FileContent, error) {
	file, err := s.authorizeFile(ctx, userID, fileID, false)
	if err != nil {
		return nil, err
	}

	blob := file.Blob
	var no int
	if revisionNo != nil {
		if err := validateRevisionNo(*revisionNo); err != nil {
			return nil, err
		}
		rev, err := s.revisionRepo.Get(ctx, file.ID, *revisionNo)
		if err != nil {
			return nil, err
		}
		blob = rev.Blob
		no = rev.RevisionNo
	} else {
		no, err = s.revisionRepo.MaxRevisionNo(ctx, file.ID)
		if err != nil {
			return nil, err
		}
		if no == 0 {
			no = 1
		}
	}

	rc, err := s.blobs.Read(ctx, blob.Location)
	if err != nil {
		if errors.Is(err, vaultSvc.ErrBlobNotFound) {
			s.logger.Error("blob missing for file",
				"file_id", file.ID,
				"revision_no", no,
				"location", blob.Location,
			)
			return nil, &domain.StorageInconsistencyError{Location: blob.Location, Err: err}
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}

	return &vaultSvc.FileContent{
		ReadCloser:  rc,
		Name:        file.OriginalName,
		ContentType: blob.ContentType,
		SizeBytes:   blob.SizeBytes,
		RevisionNo:  no,
	}, nil
}

// appendRevision runs the revision append protocol under the project lock:
// synthesize revision 1 for a file without history, append max+1 with the
// blob chosen by pick, and move the file pointer to it.
func (s *fileService) appendRevision(
	ctx context.Context,
	file *models.File,
	userID string,
	pick func(txCtx context.Context) (models.BlobRef, error),
	name string,
) (*models.FileRevision, error) {
	var rev *models.FileRevision

	err := s.txManager.ExecProjectTx(ctx, file.ProjectID, func(txCtx context.Context) error {
		current, err := s.fileRepo.GetByID(txCtx, file.ID)
		if err != nil {
			return err
		}

		maxNo, err := s.revisionRepo.MaxRevisionNo(txCtx, current.ID)
		if err != nil {
			return err
		}
		if maxNo == 0 {
			if err := s.revisionRepo.Append(txCtx, &models.FileRevision{
				FileID:     current.ID,
				RevisionNo: 1,
				Blob:       current.Blob,
				UploadedAt: current.UploadedAt,
			}); err != nil {
				return fmt.Errorf("synthesize first revision: %w", err)
			}
			maxNo = 1
		}

		blob, err := pick(txCtx)
		if err != nil {
			return err
		}

		uploader := userID
		rev = &models.FileRevision{
			FileID:     current.ID,
			RevisionNo: maxNo + 1,
			Blob:       blob,
			UploadedBy: &uploader,
			UploadedAt: time.Now().UTC(),
		}
		if err := s.revisionRepo.Append(txCtx, rev); err != nil {
			return err
		}

		current.Blob = blob
		current.OriginalName = name
		current.UpdatedAt = rev.UploadedAt
		return s.fileRepo.UpdateBlob(txCtx, current)
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// authorizeFile loads an active file and gates it: membership, then read or
// write on the folder the file lives in
func (s *fileService) authorizeFile(ctx context.Context, userID, fileID string, write bool) (*models.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessProject(ctx, userID, file.ProjectID); err != nil {
		return nil, err
	}

	folderID, err := s.currentFolder(ctx, file)
	if err != nil {
		return nil, err
	}
	if write {
		err = s.authorizer.CanWrite(ctx, userID, file.ProjectID, folderID)
	} else {
		err = s.authorizer.CanRead(ctx, userID, file.ProjectID, folderID)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// currentFolder resolves the folder scope a stored file lives in. A folder
// string naming no folder falls back to the project root scope.
func (s *fileService) currentFolder(ctx context.Context, file *models.File) (*string, error) {
	if file.FolderPath() == "" {
		return nil, nil
	}
	folder, err := s.folderRepo.GetByPath(ctx, file.ProjectID, file.FolderPath())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("file references unknown folder",
				"file_id", file.ID,
				"folder", file.FolderPath(),
			)
			return nil, nil
		}
		return nil, err
	}
	return &folder.ID, nil
}

// destinationFolder resolves a folder path that new content is written to or
// listed from. "" is the project root; any other path must name a folder.
func (s *fileService) destinationFolder(ctx context.Context, projectID, folderPath string) (*string, error) {
	if folderPath == "" {
		return nil, nil
	}
	folder, err := s.folderRepo.GetByPath(ctx, projectID, folderPath)
	if err != nil {
		return nil, fmt.Errorf("get folder %q: %w", folderPath, err)
	}
	return &folder.ID, nil
}

// writeBlob durably stores content before any metadata references it
func (s *fileService) writeBlob(ctx context.Context, projectID, name, contentType string, content io.ReadSeeker) (models.BlobRef, error) {
	info, err := s.blobs.Write(ctx, blobKey(projectID, name), content)
	if err != nil {
		return models.BlobRef{}, fmt.Errorf("write blob: %w", err)
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = models.DefaultContentType
	}
	return models.BlobRef{
		Location:    info.Location,
		ContentType: contentType,
		SizeBytes:   info.Size,
	}, nil
}

// logOrphan records a blob that was written but never referenced
func (s *fileService) logOrphan(blob models.BlobRef, cause error) {
	s.logger.Warn("orphaned blob after failed commit",
		"location", blob.Location,
		"error", cause,
	)
}

package testutil

import (
	"context"
	"sort"
	"strings"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultRepo "filevault/internal/domain/repositories/vault"
)

// Folders returns a folder repository over the store
func (s *Store) Folders() vaultRepo.FolderRepository {
	return &folderRepo{s: s}
}

type folderRepo struct{ s *Store }

func (r *folderRepo) Create(_ context.Context, folder *models.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("folders.Create"); err != nil {
		return err
	}

	for _, f := range r.s.folders {
		if f.ProjectID == folder.ProjectID && f.Path == folder.Path {
			return &domain.DuplicatePathError{Path: folder.Path, ExistingID: f.ID}
		}
	}
	if folder.ParentID != nil {
		if _, ok := r.s.folders[*folder.ParentID]; !ok {
			return domain.NewNotFound("folder", *folder.ParentID)
		}
	}
	folder.ID = newID()
	r.s.folders[folder.ID] = *folder
	return nil
}

func (r *folderRepo) GetByID(_ context.Context, id, projectID string) (*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok || f.ProjectID != projectID {
		return nil, domain.NewNotFound("folder", id)
	}
	return &f, nil
}

func (r *folderRepo) GetByIDOnly(_ context.Context, id string) (*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok {
		return nil, domain.NewNotFound("folder", id)
	}
	return &f, nil
}

func (r *folderRepo) GetByPath(_ context.Context, projectID, path string) (*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.folders {
		if f.ProjectID == projectID && f.Path == path {
			return &f, nil
		}
	}
	return nil, domain.NewNotFound("folder", path)
}

func (r *folderRepo) Update(_ context.Context, folder *models.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("folders.Update"); err != nil {
		return err
	}

	if _, ok := r.s.folders[folder.ID]; !ok {
		return domain.NewNotFound("folder", folder.ID)
	}
	for _, f := range r.s.folders {
		if f.ID != folder.ID && f.ProjectID == folder.ProjectID && f.Path == folder.Path {
			return &domain.DuplicatePathError{Path: folder.Path, ExistingID: f.ID}
		}
	}
	r.s.folders[folder.ID] = *folder
	return nil
}

func (r *folderRepo) ReplacePathPrefix(_ context.Context, projectID, oldPrefix, newPrefix string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("folders.ReplacePathPrefix"); err != nil {
		return 0, err
	}

	var n int64
	for id, f := range r.s.folders {
		if f.ProjectID == projectID && strings.HasPrefix(f.Path, oldPrefix) {
			f.Path = newPrefix + f.Path[len(oldPrefix):]
			r.s.folders[id] = f
			n++
		}
	}
	return n, nil
}

func (r *folderRepo) ListByProject(_ context.Context, projectID string) ([]models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	folders := []models.Folder{}
	for _, f := range r.s.folders {
		if f.ProjectID == projectID {
			folders = append(folders, f)
		}
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Path < folders[j].Path })
	return folders, nil
}

// PutFolder stores a folder as is, bypassing every check. Tests use it to
// build corrupted trees (cycles, stale paths).
func (s *Store) PutFolder(folder models.Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if folder.ID == "" {
		folder.ID = newID()
	}
	s.folders[folder.ID] = folder
}

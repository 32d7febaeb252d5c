package testutil

import (
	"context"
	"sort"
	"strings"
	"time"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultRepo "filevault/internal/domain/repositories/vault"
)

// Files returns a file repository over the store
func (s *Store) Files() vaultRepo.FileRepository {
	return &fileRepo{s: s}
}

type fileRepo struct{ s *Store }

func (r *fileRepo) Create(_ context.Context, file *models.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("files.Create"); err != nil {
		return err
	}
	file.ID = newID()
	r.s.files[file.ID] = *file
	return nil
}

func (r *fileRepo) GetByID(_ context.Context, id string) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok || f.IsDeleted() {
		return nil, domain.NewNotFound("file", id)
	}
	return &f, nil
}

func (r *fileRepo) UpdateBlob(_ context.Context, file *models.File) error {
	return r.update(file.ID, "files.UpdateBlob", func(f *models.File) {
		f.OriginalName = file.OriginalName
		f.Blob = file.Blob
		f.UpdatedAt = file.UpdatedAt
	})
}

func (r *fileRepo) UpdateLocation(_ context.Context, file *models.File) error {
	return r.update(file.ID, "files.UpdateLocation", func(f *models.File) {
		f.Folder = file.Folder
		f.OriginalName = file.OriginalName
		f.UpdatedAt = file.UpdatedAt
	})
}

func (r *fileRepo) SoftDelete(_ context.Context, id string) error {
	return r.update(id, "files.SoftDelete", func(f *models.File) {
		now := time.Now().UTC()
		f.DeletedAt = &now
	})
}

func (r *fileRepo) ListByFolder(_ context.Context, projectID, folderPath string) ([]models.FileListing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	files := []models.FileListing{}
	for _, f := range r.s.files {
		if f.ProjectID != projectID || f.IsDeleted() || f.FolderPath() != folderPath {
			continue
		}
		latest := 1
		for _, rev := range r.s.revisions[f.ID] {
			if rev.RevisionNo > latest {
				latest = rev.RevisionNo
			}
		}
		files = append(files, models.FileListing{File: f, LatestRevision: latest})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].OriginalName != files[j].OriginalName {
			return files[i].OriginalName < files[j].OriginalName
		}
		return files[i].ID < files[j].ID
	})
	return files, nil
}

func (r *fileRepo) ReplaceFolderPrefix(_ context.Context, projectID, oldPath, newPath string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("files.ReplaceFolderPrefix"); err != nil {
		return 0, err
	}

	var n int64
	for id, f := range r.s.files {
		if f.ProjectID != projectID || f.Folder == nil {
			continue
		}
		folder := *f.Folder
		switch {
		case folder == oldPath:
			folder = newPath
		case strings.HasPrefix(folder, oldPath+"/"):
			folder = newPath + folder[len(oldPath):]
		default:
			continue
		}
		f.Folder = &folder
		r.s.files[id] = f
		n++
	}
	return n, nil
}

func (r *fileRepo) update(id, op string, apply func(*models.File)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(op); err != nil {
		return err
	}
	f, ok := r.s.files[id]
	if !ok || f.IsDeleted() {
		return domain.NewNotFound("file", id)
	}
	apply(&f)
	r.s.files[id] = f
	return nil
}

// PutFile stores a file as is, bypassing every check. Tests use it to seed
// files that predate revision tracking.
func (s *Store) PutFile(file models.File) models.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	if file.ID == "" {
		file.ID = newID()
	}
	s.files[file.ID] = file
	return file
}

// RawFile returns a file regardless of soft deletion
func (s *Store) RawFile(id string) (models.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	return f, ok
}

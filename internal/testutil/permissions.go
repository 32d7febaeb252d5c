package testutil

import (
	"context"
	"sort"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultRepo "filevault/internal/domain/repositories/vault"
)

// Permissions returns a folder permission repository over the store
func (s *Store) Permissions() vaultRepo.PermissionRepository {
	return &permissionRepo{s: s}
}

type permissionRepo struct{ s *Store }

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *permissionRepo) CountByProject(_ context.Context, projectID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.perms {
		if p.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

func (r *permissionRepo) Get(_ context.Context, projectID string, folderID *string, userID string) (*models.FolderPermission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.perms {
		if p.ProjectID == projectID && p.UserID == userID && sameScope(p.FolderID, folderID) {
			return &p, nil
		}
	}
	return nil, domain.NewNotFound("folder permission", userID)
}

func (r *permissionRepo) ListForUser(_ context.Context, projectID, userID string) ([]models.FolderPermission, error) {
	return r.list(func(p models.FolderPermission) bool {
		return p.ProjectID == projectID && p.UserID == userID
	}), nil
}

func (r *permissionRepo) ListForScope(_ context.Context, projectID string, folderID *string) ([]models.FolderPermission, error) {
	return r.list(func(p models.FolderPermission) bool {
		return p.ProjectID == projectID && sameScope(p.FolderID, folderID)
	}), nil
}

func (r *permissionRepo) Create(_ context.Context, perm *models.FolderPermission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("permissions.Create"); err != nil {
		return err
	}
	for _, p := range r.s.perms {
		if p.ProjectID == perm.ProjectID && p.UserID == perm.UserID && sameScope(p.FolderID, perm.FolderID) {
			return domain.ErrValidation
		}
	}
	perm.ID = newID()
	r.s.perms[perm.ID] = *perm
	return nil
}

func (r *permissionRepo) Update(_ context.Context, perm *models.FolderPermission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.perms[perm.ID]; !ok {
		return domain.NewNotFound("folder permission", perm.ID)
	}
	r.s.perms[perm.ID] = *perm
	return nil
}

func (r *permissionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.perms[id]; !ok {
		return domain.NewNotFound("folder permission", id)
	}
	delete(r.s.perms, id)
	return nil
}

func (r *permissionRepo) list(match func(models.FolderPermission) bool) []models.FolderPermission {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	perms := []models.FolderPermission{}
	for _, p := range r.s.perms {
		if match(p) {
			perms = append(perms, p)
		}
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms
}

// PermissionRows returns every stored grant of a project
func (s *Store) PermissionRows(projectID string) []models.FolderPermission {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []models.FolderPermission{}
	for _, p := range s.perms {
		if p.ProjectID == projectID {
			rows = append(rows, p)
		}
	}
	return rows
}

package testutil

import (
	"context"
	"fmt"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultRepo "filevault/internal/domain/repositories/vault"
)

// Revisions returns a revision repository over the store
func (s *Store) Revisions() vaultRepo.RevisionRepository {
	return &revisionRepo{s: s}
}

type revisionRepo struct{ s *Store }

func (r *revisionRepo) Append(_ context.Context, rev *models.FileRevision) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("revisions.Append"); err != nil {
		return err
	}
	if _, ok := r.s.files[rev.FileID]; !ok {
		return domain.NewNotFound("file", rev.FileID)
	}
	for _, existing := range r.s.revisions[rev.FileID] {
		if existing.RevisionNo == rev.RevisionNo {
			return fmt.Errorf("revision %d of file %s already exists", rev.RevisionNo, rev.FileID)
		}
	}
	rev.ID = newID()
	r.s.revisions[rev.FileID] = append(r.s.revisions[rev.FileID], *rev)
	return nil
}

func (r *revisionRepo) MaxRevisionNo(_ context.Context, fileID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	maxNo := 0
	for _, rev := range r.s.revisions[fileID] {
		maxNo = max(maxNo, rev.RevisionNo)
	}
	return maxNo, nil
}

func (r *revisionRepo) Get(_ context.Context, fileID string, revisionNo int) (*models.FileRevision, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rev := range r.s.revisions[fileID] {
		if rev.RevisionNo == revisionNo {
			return &rev, nil
		}
	}
	return nil, domain.NewNotFound("file revision", fmt.Sprintf("%s#%d", fileID, revisionNo))
}

func (r *revisionRepo) ListByFile(_ context.Context, fileID string) ([]models.FileRevision, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	revs := append([]models.FileRevision{}, r.s.revisions[fileID]...)
	// Appends are ordered by revision number already
	return revs, nil
}

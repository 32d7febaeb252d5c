package testutil

import (
	"context"
	"errors"
	"maps"
	"sync"

	models "filevault/internal/domain/models/vault"
	"filevault/internal/domain/repositories"

	"github.com/google/uuid"
)

// Store is an in-memory stand-in for the vault tables. Repositories built
// from one Store share its state; the Store's transaction manager snapshots
// that state and restores it when the transaction function fails.
type Store struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	folders   map[string]models.Folder
	perms     map[string]models.FolderPermission
	files     map[string]models.File
	revisions map[string][]models.FileRevision
	faults    map[string]error

	// ProjectLocks counts project-locked transactions per project
	ProjectLocks map[string]int
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		folders:      make(map[string]models.Folder),
		perms:        make(map[string]models.FolderPermission),
		files:        make(map[string]models.File),
		revisions:    make(map[string][]models.FileRevision),
		faults:       make(map[string]error),
		ProjectLocks: make(map[string]int),
	}
}

// FailOn makes the named repository operation (e.g. "files.ReplaceFolderPrefix")
// return err until cleared with a nil error
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	return s.faults[op]
}

func newID() string {
	return uuid.NewString()
}

type snapshot struct {
	folders   map[string]models.Folder
	perms     map[string]models.FolderPermission
	files     map[string]models.File
	revisions map[string][]models.FileRevision
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	revs := make(map[string][]models.FileRevision, len(s.revisions))
	for k, v := range s.revisions {
		revs[k] = append([]models.FileRevision(nil), v...)
	}
	return snapshot{
		folders:   maps.Clone(s.folders),
		perms:     maps.Clone(s.perms),
		files:     maps.Clone(s.files),
		revisions: revs,
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = snap.folders
	s.perms = snap.perms
	s.files = snap.files
	s.revisions = snap.revisions
}

// TxManager returns a transaction manager with rollback on error
func (s *Store) TxManager() repositories.TransactionManager {
	return &txManager{store: s}
}

type txKey struct{}

type txManager struct {
	store *Store
}

func (m *txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return m.exec(ctx, "", fn)
}

func (m *txManager) ExecProjectTx(ctx context.Context, projectID string, fn repositories.TxFn) error {
	if projectID == "" {
		return errors.New("project transaction requires a project id")
	}
	return m.exec(ctx, projectID, fn)
}

func (m *txManager) exec(ctx context.Context, projectID string, fn repositories.TxFn) error {
	if projectID != "" {
		m.store.mu.Lock()
		m.store.ProjectLocks[projectID]++
		m.store.mu.Unlock()
	}

	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	// One transaction at a time stands in for row and advisory locks
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

package vault_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	models "filevault/internal/domain/models/vault"
	vaultSvc "filevault/internal/domain/services/vault"
	"filevault/internal/httputil"
	"filevault/internal/service/vault"
	"filevault/internal/storage/blob"
	"filevault/internal/testutil"

	"github.com/stretchr/testify/require"
)

const (
	projectID = "11111111-1111-1111-1111-111111111111"
	otherProj = "22222222-2222-2222-2222-222222222222"
	alice     = "alice"
	bob       = "bob"
	admin     = "admin"
	outsider  = "mallory"
)

type env struct {
	ctx     context.Context
	store   *testutil.Store
	gate    *testutil.Gate
	blobs   *blob.MemoryStore
	folders vaultSvc.FolderService
	perms   vaultSvc.PermissionService
	files   vaultSvc.FileService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := testutil.NewStore()
	gate := testutil.NewGate()
	gate.AddMember(projectID, alice)
	gate.AddMember(projectID, bob)
	gate.AddMember(otherProj, alice)
	gate.SetAdmin(admin)

	blobs := blob.NewMemoryStore()
	logger := testutil.NewLogger()
	txm := store.TxManager()

	resolver := vault.NewResolver(gate, store.Folders(), store.Permissions(), logger)
	authorizer := vault.NewAuthorizer(gate, resolver)

	return &env{
		ctx:     context.Background(),
		store:   store,
		gate:    gate,
		blobs:   blobs,
		folders: vault.NewFolderService(store.Folders(), store.Files(), txm, authorizer, resolver, logger),
		perms:   vault.NewPermissionService(store.Permissions(), store.Folders(), gate, txm, authorizer, resolver, logger),
		files:   vault.NewFileService(store.Files(), store.Revisions(), store.Folders(), blobs, txm, authorizer, logger),
	}
}

func (e *env) mkdir(t *testing.T, name string, parent *models.Folder) *models.Folder {
	t.Helper()
	req := &vaultSvc.CreateFolderRequest{ProjectID: projectID, UserID: admin, Name: name}
	if parent != nil {
		req.ParentID = &parent.ID
	}
	f, err := e.folders.CreateFolder(e.ctx, req)
	require.NoError(t, err)
	return f
}

func (e *env) upload(t *testing.T, folder, name, content string) *models.File {
	t.Helper()
	f, err := e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
		ProjectID:   projectID,
		UserID:      admin,
		FolderPath:  folder,
		Name:        name,
		ContentType: "text/plain",
		Content:     body(content),
	})
	require.NoError(t, err)
	return f
}

func (e *env) grant(t *testing.T, folder *models.Folder, userID string, canRead, canWrite bool) {
	t.Helper()
	req := &vaultSvc.GrantRequest{
		ProjectID: projectID,
		ActorID:   admin,
		UserID:    userID,
		CanRead:   canRead,
		CanWrite:  canWrite,
	}
	if folder != nil {
		req.FolderID = &folder.ID
	}
	_, err := e.perms.Grant(e.ctx, req)
	require.NoError(t, err)
}

func (e *env) read(t *testing.T, userID, fileID string, revisionNo *int) string {
	t.Helper()
	content, err := e.files.OpenFile(e.ctx, userID, fileID, revisionNo)
	require.NoError(t, err)
	defer content.Close()
	data, err := io.ReadAll(content)
	require.NoError(t, err)
	return string(data)
}

func body(s string) io.ReadSeeker {
	return bytes.NewReader([]byte(s))
}

func ptr[T any](v T) *T {
	return &v
}

func present(v *string) httputil.OptionalString {
	return httputil.OptionalString{Present: true, Value: v}
}

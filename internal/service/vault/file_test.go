package vault_test

import (
	"errors"
	"testing"
	"time"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultSvc "filevault/internal/domain/services/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Folder Design/IFC, upload, replace, restore, then rename the top folder
func TestFileLifecycle(t *testing.T) {
	e := newEnv(t)
	design := e.mkdir(t, "Design", nil)
	e.mkdir(t, "IFC", design)

	file, err := e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
		ProjectID:   projectID,
		UserID:      alice,
		FolderPath:  "/Design/IFC/",
		Name:        "a.pdf",
		ContentType: "application/pdf",
		Content:     body("v1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Design/IFC", file.FolderPath())
	assert.Equal(t, "a.pdf", file.OriginalName)
	assert.Equal(t, int64(2), file.Blob.SizeBytes)

	rev2, err := e.files.ReplaceFile(e.ctx, &vaultSvc.ReplaceFileRequest{
		FileID:      file.ID,
		UserID:      alice,
		ContentType: "application/pdf",
		Content:     body("version two"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rev2.RevisionNo)
	assert.Equal(t, "version two", e.read(t, alice, file.ID, nil))

	rev3, err := e.files.RestoreRevision(e.ctx, alice, file.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, rev3.RevisionNo)

	revs, err := e.files.ListRevisions(e.ctx, alice, file.ID)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	for i, rev := range revs {
		assert.Equal(t, i+1, rev.RevisionNo)
	}
	assert.Equal(t, revs[0].Blob, revs[2].Blob, "restore copies the blob fields verbatim")
	assert.NotEqual(t, revs[1].Blob.Location, revs[2].Blob.Location)

	current, err := e.files.GetFile(e.ctx, alice, file.ID)
	require.NoError(t, err)
	assert.Equal(t, revs[2].Blob, current.Blob, "pointer mirrors the latest revision")
	assert.Equal(t, "v1", e.read(t, alice, file.ID, nil))
	assert.Equal(t, "version two", e.read(t, alice, file.ID, ptr(2)))

	_, err = e.folders.MoveOrRenameFolder(e.ctx, alice, design.ID, &vaultSvc.UpdateFolderRequest{Name: ptr("Design-2")})
	require.NoError(t, err)

	listing, err := e.files.ListFiles(e.ctx, alice, projectID, "Design-2/IFC")
	require.NoError(t, err)
	require.Len(t, listing, 1)
	assert.Equal(t, file.ID, listing[0].ID)
	assert.Equal(t, 3, listing[0].LatestRevision)

	_, err = e.files.ListFiles(e.ctx, alice, projectID, "Design/IFC")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUploadFile(t *testing.T) {
	e := newEnv(t)
	e.mkdir(t, "Docs", nil)

	tests := []struct {
		name        string
		fileName    string
		contentType string
		wantName    string
		wantType    string
	}{
		{"plain", "report.pdf", "application/pdf", "report.pdf", "application/pdf"},
		{"path stripped", "../../etc/passwd", "", "passwd", models.DefaultContentType},
		{"windows path", `C:\Users\me\notes.txt`, "text/plain", "C:_Users_me_notes.txt", "text/plain"},
		{"empty name", "   ", "", "upload.bin", models.DefaultContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
				ProjectID:   projectID,
				UserID:      bob,
				FolderPath:  "Docs",
				Name:        tt.fileName,
				ContentType: tt.contentType,
				Content:     body("data"),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, f.OriginalName)
			assert.Equal(t, tt.wantType, f.Blob.ContentType)

			revs, err := e.files.ListRevisions(e.ctx, bob, f.ID)
			require.NoError(t, err)
			require.Len(t, revs, 1)
			assert.Equal(t, 1, revs[0].RevisionNo)
			require.NotNil(t, revs[0].UploadedBy)
			assert.Equal(t, bob, *revs[0].UploadedBy)
		})
	}

	t.Run("no folder", func(t *testing.T) {
		f, err := e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
			ProjectID: projectID, UserID: bob, Name: "loose.txt", Content: body("x"),
		})
		require.NoError(t, err)
		assert.Nil(t, f.Folder)

		listing, err := e.files.ListFiles(e.ctx, bob, projectID, "")
		require.NoError(t, err)
		require.Len(t, listing, 1)
		assert.Equal(t, "loose.txt", listing[0].OriginalName)
	})

	t.Run("unknown folder", func(t *testing.T) {
		_, err := e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
			ProjectID: projectID, UserID: bob, FolderPath: "Nope", Name: "x", Content: body("x"),
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing content", func(t *testing.T) {
		_, err := e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
			ProjectID: projectID, UserID: bob, Name: "x",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("not a member", func(t *testing.T) {
		_, err := e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
			ProjectID: projectID, UserID: outsider, Name: "x", Content: body("x"),
		})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})
}

func TestUploadFile_FailedCommitLeavesNoMetadata(t *testing.T) {
	e := newEnv(t)
	e.store.FailOn("revisions.Append", errors.New("connection reset"))

	_, err := e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
		ProjectID: projectID, UserID: alice, Name: "x.txt", Content: body("x"),
	})
	require.Error(t, err)
	e.store.FailOn("revisions.Append", nil)

	listing, err := e.files.ListFiles(e.ctx, alice, projectID, "")
	require.NoError(t, err)
	assert.Empty(t, listing)
	assert.Equal(t, 1, e.blobs.Len(), "blob stays behind as an orphan")
}

func TestFilePermissions(t *testing.T) {
	e := newEnv(t)
	docs := e.mkdir(t, "Docs", nil)
	e.mkdir(t, "Private", nil)
	f := e.upload(t, "Docs", "notes.txt", "hello")
	secret := e.upload(t, "Private", "secret.txt", "shh")
	e.grant(t, docs, bob, true, false)

	assert.Equal(t, "hello", e.read(t, bob, f.ID, nil))

	_, err := e.files.ListFiles(e.ctx, bob, projectID, "Docs")
	assert.NoError(t, err)

	_, err = e.files.GetFile(e.ctx, bob, secret.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = e.files.ListFiles(e.ctx, bob, projectID, "Private")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = e.files.ReplaceFile(e.ctx, &vaultSvc.ReplaceFileRequest{FileID: f.ID, UserID: bob, Content: body("x")})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = e.files.RestoreRevision(e.ctx, bob, f.ID, 1)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	assert.ErrorIs(t, e.files.DeleteFile(e.ctx, bob, f.ID), domain.ErrPermissionDenied)

	_, err = e.files.UploadFile(e.ctx, &vaultSvc.UploadFileRequest{
		ProjectID: projectID, UserID: bob, FolderPath: "Docs", Name: "x", Content: body("x"),
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = e.files.GetFile(e.ctx, outsider, f.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestReplaceFile_LegacyFileWithoutRevisions(t *testing.T) {
	e := newEnv(t)
	uploaded := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := e.blobs.Write(e.ctx, "legacy/old.txt", body("old"))
	require.NoError(t, err)
	legacy := e.store.PutFile(models.File{
		ProjectID:    projectID,
		OriginalName: "old.txt",
		Blob:         models.BlobRef{Location: "legacy/old.txt", ContentType: "text/plain", SizeBytes: 3},
		UploadedAt:   uploaded,
		UpdatedAt:    uploaded,
	})

	listing, err := e.files.ListFiles(e.ctx, alice, projectID, "")
	require.NoError(t, err)
	require.Len(t, listing, 1)
	assert.Equal(t, 1, listing[0].LatestRevision, "no revisions reads as revision 1")

	rev, err := e.files.ReplaceFile(e.ctx, &vaultSvc.ReplaceFileRequest{
		FileID: legacy.ID, UserID: alice, Name: "new.txt", Content: body("new"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rev.RevisionNo)

	revs, err := e.files.ListRevisions(e.ctx, alice, legacy.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "legacy/old.txt", revs[0].Blob.Location)
	assert.Equal(t, uploaded, revs[0].UploadedAt)
	assert.Nil(t, revs[0].UploadedBy)

	got, err := e.files.GetFile(e.ctx, alice, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.txt", got.OriginalName)
	assert.Equal(t, "old", e.read(t, alice, legacy.ID, ptr(1)))
	assert.Equal(t, "new", e.read(t, alice, legacy.ID, nil))
}

func TestRestoreRevision_LegacyFile(t *testing.T) {
	e := newEnv(t)
	legacy := e.store.PutFile(models.File{
		ProjectID:    projectID,
		OriginalName: "old.txt",
		Blob:         models.BlobRef{Location: "legacy/old.txt", ContentType: "text/plain", SizeBytes: 3},
	})

	rev, err := e.files.RestoreRevision(e.ctx, alice, legacy.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, rev.RevisionNo)
	assert.Equal(t, "legacy/old.txt", rev.Blob.Location)
}

func TestRestoreRevision_Rejects(t *testing.T) {
	e := newEnv(t)
	f := e.upload(t, "", "a.txt", "a")

	_, err := e.files.RestoreRevision(e.ctx, alice, f.ID, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.files.RestoreRevision(e.ctx, alice, f.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.files.GetRevision(e.ctx, alice, f.ID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	revs, err := e.files.ListRevisions(e.ctx, alice, f.ID)
	require.NoError(t, err)
	assert.Len(t, revs, 1, "failed restores append nothing")

	rev, err := e.files.GetRevision(e.ctx, alice, f.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, f.Blob, rev.Blob)
}

func TestMoveFile(t *testing.T) {
	e := newEnv(t)
	e.mkdir(t, "In", nil)
	e.mkdir(t, "Out", nil)
	f := e.upload(t, "In", "a.txt", "a")
	e.upload(t, "Out", "a.txt", "other")

	moved, err := e.files.MoveFile(e.ctx, alice, f.ID, &vaultSvc.MoveFileRequest{Folder: present(ptr("Out"))})
	require.NoError(t, err)
	assert.Equal(t, "Out", moved.FolderPath())
	assert.Equal(t, "a.txt", moved.OriginalName)

	listing, err := e.files.ListFiles(e.ctx, alice, projectID, "Out")
	require.NoError(t, err)
	assert.Len(t, listing, 2, "same-named files may share a folder")

	moved, err = e.files.MoveFile(e.ctx, alice, f.ID, &vaultSvc.MoveFileRequest{Name: ptr("b.txt")})
	require.NoError(t, err)
	assert.Equal(t, "Out", moved.FolderPath())
	assert.Equal(t, "b.txt", moved.OriginalName)

	moved, err = e.files.MoveFile(e.ctx, alice, f.ID, &vaultSvc.MoveFileRequest{Folder: present(nil)})
	require.NoError(t, err)
	assert.Nil(t, moved.Folder)

	_, err = e.files.MoveFile(e.ctx, alice, f.ID, &vaultSvc.MoveFileRequest{Folder: present(ptr("Nowhere"))})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	revs, err := e.files.ListRevisions(e.ctx, alice, f.ID)
	require.NoError(t, err)
	assert.Len(t, revs, 1, "moves do not touch the revision log")
}

func TestMoveFile_RequiresWriteOnDestination(t *testing.T) {
	e := newEnv(t)
	in := e.mkdir(t, "In", nil)
	out := e.mkdir(t, "Out", nil)
	f := e.upload(t, "In", "a.txt", "a")
	e.grant(t, in, bob, true, true)
	e.grant(t, out, bob, true, false)

	_, err := e.files.MoveFile(e.ctx, bob, f.ID, &vaultSvc.MoveFileRequest{Folder: present(ptr("Out"))})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	raw, _ := e.store.RawFile(f.ID)
	assert.Equal(t, "In", raw.FolderPath())
}

func TestDeleteFile(t *testing.T) {
	e := newEnv(t)
	f := e.upload(t, "", "a.txt", "a")
	keep := e.upload(t, "", "b.txt", "b")

	require.NoError(t, e.files.DeleteFile(e.ctx, alice, f.ID))

	raw, ok := e.store.RawFile(f.ID)
	require.True(t, ok, "soft delete keeps the row")
	assert.True(t, raw.IsDeleted())

	_, err := e.files.GetFile(e.ctx, alice, f.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.files.ReplaceFile(e.ctx, &vaultSvc.ReplaceFileRequest{FileID: f.ID, UserID: alice, Content: body("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.files.RestoreRevision(e.ctx, alice, f.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.files.OpenFile(e.ctx, alice, f.ID, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, e.files.DeleteFile(e.ctx, alice, f.ID), domain.ErrNotFound)

	listing, err := e.files.ListFiles(e.ctx, alice, projectID, "")
	require.NoError(t, err)
	require.Len(t, listing, 1)
	assert.Equal(t, keep.ID, listing[0].ID)
}

func TestOpenFile_MissingBlob(t *testing.T) {
	e := newEnv(t)
	f := e.upload(t, "", "a.txt", "a")
	e.blobs.Remove(f.Blob.Location)

	_, err := e.files.OpenFile(e.ctx, alice, f.ID, nil)
	assert.ErrorIs(t, err, domain.ErrStorageInconsistency)

	var inconsistent *domain.StorageInconsistencyError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, f.Blob.Location, inconsistent.Location)
}

func TestListFiles_OrderedByName(t *testing.T) {
	e := newEnv(t)
	e.upload(t, "", "c.txt", "c")
	e.upload(t, "", "a.txt", "a")
	e.upload(t, "", "b.txt", "b")

	listing, err := e.files.ListFiles(e.ctx, alice, projectID, "/")
	require.NoError(t, err)
	var names []string
	for _, f := range listing {
		names = append(names, f.OriginalName)
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}

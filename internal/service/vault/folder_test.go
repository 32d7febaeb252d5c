package vault_test

import (
	"errors"
	"strings"
	"testing"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultSvc "filevault/internal/domain/services/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFolder(t *testing.T) {
	e := newEnv(t)

	design := e.mkdir(t, "  /Design/ ", nil)
	assert.Equal(t, "Design", design.Name)
	assert.Equal(t, "Design", design.Path)
	assert.Nil(t, design.ParentID)

	ifc := e.mkdir(t, "IFC", design)
	assert.Equal(t, "Design/IFC", ifc.Path)
	require.NotNil(t, ifc.ParentID)
	assert.Equal(t, design.ID, *ifc.ParentID)

	// Empty parent id means root
	root, err := e.folders.CreateFolder(e.ctx, &vaultSvc.CreateFolderRequest{
		ProjectID: projectID, UserID: alice, Name: "Docs", ParentID: ptr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, "Docs", root.Path)
}

func TestCreateFolder_Rejects(t *testing.T) {
	e := newEnv(t)
	design := e.mkdir(t, "Design", nil)
	foreign, err := e.folders.CreateFolder(e.ctx, &vaultSvc.CreateFolderRequest{
		ProjectID: otherProj, UserID: alice, Name: "Elsewhere",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     *vaultSvc.CreateFolderRequest
		wantErr error
	}{
		{
			name:    "blank name",
			req:     &vaultSvc.CreateFolderRequest{ProjectID: projectID, UserID: alice, Name: "  /  "},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "slash inside name",
			req:     &vaultSvc.CreateFolderRequest{ProjectID: projectID, UserID: alice, Name: "a/b"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "name too long",
			req:     &vaultSvc.CreateFolderRequest{ProjectID: projectID, UserID: alice, Name: strings.Repeat("x", 256)},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "parent in another project",
			req:     &vaultSvc.CreateFolderRequest{ProjectID: projectID, UserID: alice, Name: "x", ParentID: &foreign.ID},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unknown parent",
			req:     &vaultSvc.CreateFolderRequest{ProjectID: projectID, UserID: alice, Name: "x", ParentID: ptr("not-a-folder")},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "duplicate path",
			req:     &vaultSvc.CreateFolderRequest{ProjectID: projectID, UserID: alice, Name: "Design"},
			wantErr: domain.ErrDuplicatePath,
		},
		{
			name:    "not a member",
			req:     &vaultSvc.CreateFolderRequest{ProjectID: projectID, UserID: outsider, Name: "x"},
			wantErr: domain.ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.folders.CreateFolder(e.ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	t.Run("duplicate reports existing folder", func(t *testing.T) {
		_, err := e.folders.CreateFolder(e.ctx, &vaultSvc.CreateFolderRequest{
			ProjectID: projectID, UserID: alice, Name: "Design",
		})
		var dup *domain.DuplicatePathError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, design.ID, dup.ExistingID)
		assert.Equal(t, "Design", dup.Path)
	})
}

func TestCreateFolder_MembershipIsTheOnlyGate(t *testing.T) {
	e := newEnv(t)
	design := e.mkdir(t, "Design", nil)
	e.grant(t, design, bob, true, false)

	// Read-only on the parent, and no grant at all on the root scope
	ifc, err := e.folders.CreateFolder(e.ctx, &vaultSvc.CreateFolderRequest{
		ProjectID: projectID, UserID: bob, Name: "IFC", ParentID: &design.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Design/IFC", ifc.Path)

	_, err = e.folders.CreateFolder(e.ctx, &vaultSvc.CreateFolderRequest{
		ProjectID: projectID, UserID: bob, Name: "Contracts",
	})
	require.NoError(t, err)

	_, err = e.folders.CreateFolder(e.ctx, &vaultSvc.CreateFolderRequest{
		ProjectID: projectID, UserID: outsider, Name: "Outside",
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestMoveOrRenameFolder_CascadesPaths(t *testing.T) {
	e := newEnv(t)
	design := e.mkdir(t, "Design", nil)
	ifc := e.mkdir(t, "IFC", design)
	deep := e.mkdir(t, "Deep", ifc)
	lookalike := e.mkdir(t, "Design-old", nil)
	lookalikeChild := e.mkdir(t, "IFC", lookalike)

	direct := e.upload(t, "Design", "direct.txt", "d")
	nested := e.upload(t, "Design/IFC", "a.pdf", "a")
	gone := e.upload(t, "Design/IFC/Deep", "gone.txt", "g")
	require.NoError(t, e.files.DeleteFile(e.ctx, admin, gone.ID))
	untouched := e.upload(t, "Design-old/IFC", "keep.txt", "k")

	moved, err := e.folders.MoveOrRenameFolder(e.ctx, alice, design.ID, &vaultSvc.UpdateFolderRequest{
		Name: ptr("Design-2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Design-2", moved.Name)
	assert.Equal(t, "Design-2", moved.Path)

	paths := map[string]string{}
	listing, err := e.folders.ListFolders(e.ctx, alice, projectID)
	require.NoError(t, err)
	for _, f := range listing {
		paths[f.ID] = f.Path
	}
	assert.Equal(t, "Design-2/IFC", paths[ifc.ID])
	assert.Equal(t, "Design-2/IFC/Deep", paths[deep.ID])
	assert.Equal(t, "Design-old", paths[lookalike.ID])
	assert.Equal(t, "Design-old/IFC", paths[lookalikeChild.ID])

	folderOf := func(id string) string {
		f, ok := e.store.RawFile(id)
		require.True(t, ok)
		return f.FolderPath()
	}
	assert.Equal(t, "Design-2", folderOf(direct.ID))
	assert.Equal(t, "Design-2/IFC", folderOf(nested.ID))
	assert.Equal(t, "Design-2/IFC/Deep", folderOf(gone.ID), "soft-deleted files follow the cascade")
	assert.Equal(t, "Design-old/IFC", folderOf(untouched.ID))

	assert.Positive(t, e.store.ProjectLocks[projectID])
}

func TestMoveOrRenameFolder_Reparent(t *testing.T) {
	e := newEnv(t)
	a := e.mkdir(t, "A", nil)
	b := e.mkdir(t, "B", nil)
	child := e.mkdir(t, "Child", a)
	grandchild := e.mkdir(t, "Leaf", child)

	moved, err := e.folders.MoveOrRenameFolder(e.ctx, alice, child.ID, &vaultSvc.UpdateFolderRequest{
		ParentID: present(&b.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "B/Child", moved.Path)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, b.ID, *moved.ParentID)

	leaf, err := e.folders.GetFolder(e.ctx, alice, grandchild.ID)
	require.NoError(t, err)
	assert.Equal(t, "B/Child/Leaf", leaf.Path)

	// Null parent moves to the project root
	moved, err = e.folders.MoveOrRenameFolder(e.ctx, alice, child.ID, &vaultSvc.UpdateFolderRequest{
		ParentID: present(nil),
	})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, "Child", moved.Path)

	// Absent parent keeps it
	moved, err = e.folders.MoveOrRenameFolder(e.ctx, alice, child.ID, &vaultSvc.UpdateFolderRequest{
		Name: ptr("Renamed"),
	})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, "Renamed", moved.Path)
}

func TestMoveOrRenameFolder_RejectsCycles(t *testing.T) {
	e := newEnv(t)
	a := e.mkdir(t, "A", nil)
	b := e.mkdir(t, "B", a)
	c := e.mkdir(t, "C", b)

	_, err := e.folders.MoveOrRenameFolder(e.ctx, alice, a.ID, &vaultSvc.UpdateFolderRequest{ParentID: present(&a.ID)})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	_, err = e.folders.MoveOrRenameFolder(e.ctx, alice, a.ID, &vaultSvc.UpdateFolderRequest{ParentID: present(&c.ID)})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	got, err := e.folders.GetFolder(e.ctx, alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Path)
	assert.Nil(t, got.ParentID)
}

func TestMoveOrRenameFolder_RejectsCollision(t *testing.T) {
	e := newEnv(t)
	a := e.mkdir(t, "A", nil)
	e.mkdir(t, "B", nil)

	_, err := e.folders.MoveOrRenameFolder(e.ctx, alice, a.ID, &vaultSvc.UpdateFolderRequest{Name: ptr("B")})
	assert.ErrorIs(t, err, domain.ErrDuplicatePath)

	_, err = e.folders.MoveOrRenameFolder(e.ctx, alice, a.ID, &vaultSvc.UpdateFolderRequest{Name: ptr("a/b")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMoveOrRenameFolder_IsAtomic(t *testing.T) {
	e := newEnv(t)
	a := e.mkdir(t, "A", nil)
	b := e.mkdir(t, "B", a)
	f := e.upload(t, "A/B", "x.txt", "x")

	e.store.FailOn("files.ReplaceFolderPrefix", errors.New("disk on fire"))
	_, err := e.folders.MoveOrRenameFolder(e.ctx, alice, a.ID, &vaultSvc.UpdateFolderRequest{Name: ptr("Z")})
	require.Error(t, err)
	e.store.FailOn("files.ReplaceFolderPrefix", nil)

	gotA, err := e.folders.GetFolder(e.ctx, alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", gotA.Path)
	gotB, err := e.folders.GetFolder(e.ctx, alice, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "A/B", gotB.Path)
	raw, _ := e.store.RawFile(f.ID)
	assert.Equal(t, "A/B", raw.FolderPath())
}

func TestMoveOrRenameFolder_Permissions(t *testing.T) {
	e := newEnv(t)
	src := e.mkdir(t, "Src", nil)
	dst := e.mkdir(t, "Dst", nil)
	e.grant(t, src, bob, true, true)
	e.grant(t, dst, bob, true, false)

	_, err := e.folders.MoveOrRenameFolder(e.ctx, bob, src.ID, &vaultSvc.UpdateFolderRequest{ParentID: present(&dst.ID)})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied, "destination is read-only")

	_, err = e.folders.MoveOrRenameFolder(e.ctx, bob, dst.ID, &vaultSvc.UpdateFolderRequest{Name: ptr("Renamed")})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied, "folder itself is read-only")

	moved, err := e.folders.MoveOrRenameFolder(e.ctx, bob, src.ID, &vaultSvc.UpdateFolderRequest{Name: ptr("Source")})
	require.NoError(t, err)
	assert.Equal(t, "Source", moved.Path)

	_, err = e.folders.MoveOrRenameFolder(e.ctx, outsider, src.ID, &vaultSvc.UpdateFolderRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestListFolders(t *testing.T) {
	e := newEnv(t)
	b := e.mkdir(t, "b", nil)
	e.mkdir(t, "B", nil)
	e.mkdir(t, "a", nil)
	e.mkdir(t, "child", b)

	listing, err := e.folders.ListFolders(e.ctx, bob, projectID)
	require.NoError(t, err)

	var paths []string
	for _, f := range listing {
		paths = append(paths, f.Path)
		assert.True(t, f.CanRead && f.CanWrite, "no grants in project means full access")
	}
	assert.Equal(t, []string{"B", "a", "b", "b/child"}, paths, "byte-wise ordering")

	e.grant(t, b, bob, true, false)
	listing, err = e.folders.ListFolders(e.ctx, bob, projectID)
	require.NoError(t, err)
	require.Len(t, listing, 4, "listing is not filtered by access")

	access := map[string]models.Access{}
	for _, f := range listing {
		access[f.Path] = models.Access{CanRead: f.CanRead, CanWrite: f.CanWrite}
	}
	assert.Equal(t, models.NoAccess, access["a"])
	assert.Equal(t, models.Access{CanRead: true}, access["b"])
	assert.Equal(t, models.Access{CanRead: true}, access["b/child"])

	_, err = e.folders.ListFolders(e.ctx, outsider, projectID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

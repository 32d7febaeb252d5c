package vault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"filevault/internal/config"
	models "filevault/internal/domain/models/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(parents map[string]*string) parentLookup {
	return func(_ context.Context, id string) (*string, bool, error) {
		p, ok := parents[id]
		return p, ok, nil
	}
}

func ids(chain []*string) []string {
	out := make([]string, 0, len(chain))
	for _, s := range chain {
		if s == nil {
			out = append(out, "<root>")
			continue
		}
		out = append(out, *s)
	}
	return out
}

func TestAncestorChain(t *testing.T) {
	ctx := context.Background()
	a, b, c := "a", "b", "c"

	tests := []struct {
		name    string
		start   *string
		parents map[string]*string
		want    []string
	}{
		{
			name:  "project root",
			start: nil,
			want:  []string{"<root>"},
		},
		{
			name:    "nested",
			start:   &c,
			parents: map[string]*string{"a": nil, "b": &a, "c": &b},
			want:    []string{"c", "b", "a", "<root>"},
		},
		{
			name:    "cycle",
			start:   &a,
			parents: map[string]*string{"a": &b, "b": &a},
			want:    []string{"a", "b", "<root>"},
		},
		{
			name:    "self parent",
			start:   &a,
			parents: map[string]*string{"a": &a},
			want:    []string{"a", "<root>"},
		},
		{
			name:    "missing record",
			start:   &c,
			parents: map[string]*string{"c": &b},
			want:    []string{"c", "b", "<root>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := ancestorChain(ctx, tt.start, mapLookup(tt.parents))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(chain))
		})
	}
}

func TestAncestorChain_DepthBound(t *testing.T) {
	parents := map[string]*string{}
	var prev *string
	for i := 0; i < config.MaxFolderDepth*2; i++ {
		id := fmt.Sprintf("f%d", i)
		parents[id] = prev
		prev = &id
	}

	chain, err := ancestorChain(context.Background(), prev, mapLookup(parents))
	require.NoError(t, err)
	assert.Len(t, chain, config.MaxFolderDepth+1)
	assert.Nil(t, chain[len(chain)-1])
}

func TestAncestorChain_LookupError(t *testing.T) {
	boom := errors.New("boom")
	start := "a"
	_, err := ancestorChain(context.Background(), &start, func(context.Context, string) (*string, bool, error) {
		return nil, false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestMostSpecific(t *testing.T) {
	scopes := []string{"leaf", "mid", "top"}
	table := map[string]int{"mid": 2, "top": 3}

	v, ok := mostSpecific(scopes, func(s string) (int, bool) {
		n, ok := table[s]
		return n, ok
	})
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = mostSpecific(scopes, func(string) (int, bool) { return 0, false })
	assert.False(t, ok)
}

func TestResolveAccess(t *testing.T) {
	folder, parent := "folder", "parent"
	chain := []*string{&folder, &parent, nil}

	grants := map[string]models.FolderPermission{
		"":       {CanRead: true},
		"parent": {CanRead: true, CanWrite: true},
	}
	assert.Equal(t, models.FullAccess, resolveAccess(chain, grants))

	delete(grants, "parent")
	assert.Equal(t, models.Access{CanRead: true}, resolveAccess(chain, grants))

	assert.Equal(t, models.NoAccess, resolveAccess(chain, map[string]models.FolderPermission{}))
}

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	fileKV, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	sqliteKV, err := OpenSQLiteKV(filepath.Join(t.TempDir(), "tutorme.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestKV_GetSetDelete(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "chatTabs")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "chatTabs", `[{"id":"a"}]`))
			v, ok, err := kv.Get(ctx, "chatTabs")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"a"}]`, v)

			require.NoError(t, kv.Set(ctx, "chatTabs", `[]`))
			v, _, err = kv.Get(ctx, "chatTabs")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v)

			require.NoError(t, kv.Delete(ctx, "chatTabs"))
			_, ok, err = kv.Get(ctx, "chatTabs")
			require.NoError(t, err)
			assert.False(t, ok)

			// deleting a missing key is not an error
			require.NoError(t, kv.Delete(ctx, "chatTabs"))
		})
	}
}

func TestFileKV_KeysWithSeparators(t *testing.T) {
	ctx := context.Background()
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, "chat:42/../x", "v"))
	v, ok, err := kv.Get(ctx, "chat:42/../x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryKV()
	a := Namespace(base, "chat:1:")
	b := Namespace(base, "chat:2:")

	require.NoError(t, a.Set(ctx, "chatTabs", "one"))
	require.NoError(t, b.Set(ctx, "chatTabs", "two"))

	v, _, _ := a.Get(ctx, "chatTabs")
	assert.Equal(t, "one", v)
	v, _, _ = base.Get(ctx, "chat:2:chatTabs")
	assert.Equal(t, "two", v)

	require.NoError(t, a.Delete(ctx, "chatTabs"))
	_, ok, _ := base.Get(ctx, "chat:1:chatTabs")
	assert.False(t, ok)
	_, ok, _ = base.Get(ctx, "chat:2:chatTabs")
	assert.True(t, ok)
}

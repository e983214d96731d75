package backup

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	store := NewStore(t.TempDir())

	path, err := store.Save(3, "config/database.yml", []byte("adapter: sqlite3\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "3-database.yml"), path)
	assert.True(t, strings.HasSuffix(store.Dir(), "reciper-"+store.RunID()))

	data, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "adapter: sqlite3\n", string(data))
}

func TestSave_SameTargetTwiceKeepsBoth(t *testing.T) {
	store := NewStoreFs(afero.NewMemMapFs(), "/backups")

	first, err := store.Save(1, "Gemfile", []byte("v1"))
	require.NoError(t, err)
	second, err := store.Save(2, "Gemfile", []byte("v2"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	data, err := store.Load(first)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	data, err = store.Load(second)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestStoresAreIsolated(t *testing.T) {
	fsys := afero.NewMemMapFs()
	a := NewStoreFs(fsys, "/backups")
	b := NewStoreFs(fsys, "/backups")

	assert.NotEqual(t, a.RunID(), b.RunID())
	assert.NotEqual(t, a.Dir(), b.Dir())
}

func TestLoad_Missing(t *testing.T) {
	store := NewStoreFs(afero.NewMemMapFs(), "/backups")

	_, err := store.Load("/backups/nope")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackup))
}

func TestCleanup(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewStoreFs(fsys, "/backups")

	path, err := store.Save(1, "a.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Cleanup())

	exists, err := afero.Exists(fsys, path)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.DirExists(fsys, store.Dir())
	require.NoError(t, err)
	assert.False(t, exists)

	// nothing left to remove is fine
	assert.NoError(t, store.Cleanup())
}

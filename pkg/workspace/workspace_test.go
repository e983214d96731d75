package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A random recipe", "a_random_recipe"},
		{"Add users: part 2!", "add_users_part_2"},
		{"  leading and trailing  ", "leading_and_trailing"},
		{"already_snake", "already_snake"},
		{"Café au lait", "caf_au_lait"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parameterize(tt.in))
		})
	}
}

func makeTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "app", "models"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Gemfile"), []byte("gem 'rails'\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app", "models", "post.rb"), []byte("class Post\nend\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "setup"), []byte("#!/bin/sh\n"), 0755))
	return dir
}

func TestProvision(t *testing.T) {
	template := makeTemplate(t)
	base := t.TempDir()

	root, err := Provision("A random recipe", template, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "a_random_recipe"), root)

	data, err := os.ReadFile(filepath.Join(root, "app", "models", "post.rb"))
	require.NoError(t, err)
	assert.Equal(t, "class Post\nend\n", string(data))

	info, err := os.Stat(filepath.Join(root, "bin", "setup"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestProvision_ReplacesPreviousCopy(t *testing.T) {
	template := makeTemplate(t)
	base := t.TempDir()

	root, err := Provision("recipe", template, base)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "leftover.rb"), []byte("x"), 0644))

	root, err = Provision("recipe", template, base)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "leftover.rb"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "Gemfile"))
	assert.NoError(t, err)
}

func TestProvision_KeepsSymlinks(t *testing.T) {
	template := makeTemplate(t)
	require.NoError(t, os.Symlink("Gemfile", filepath.Join(template, "Gemfile.link")))

	root, err := Provision("links", template, t.TempDir())
	require.NoError(t, err)

	dest, err := os.Readlink(filepath.Join(root, "Gemfile.link"))
	require.NoError(t, err)
	assert.Equal(t, "Gemfile", dest)
}

func TestProvision_WithoutTemplate(t *testing.T) {
	base := t.TempDir()

	root, err := Provision("empty", "", base)
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProvision_Errors(t *testing.T) {
	base := t.TempDir()

	_, err := Provision("???", "", base)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = Provision("recipe", filepath.Join(base, "missing"), base)
	assert.True(t, errors.IsErrorCode(err, errors.ErrWorkspaceProvision))

	same := filepath.Join(base, "same")
	require.NoError(t, os.MkdirAll(same, 0755))
	_, err = Provision("same", same, base)
	assert.True(t, errors.IsErrorCode(err, errors.ErrWorkspaceProvision))
	_, err = os.Stat(same)
	assert.NoError(t, err, "template survives")
}

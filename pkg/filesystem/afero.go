package filesystem

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// NewOS returns a read-write filesystem rooted at root. Every name is
// resolved relative to root and names that climb out of it are rejected.
func NewOS(root string) afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), filepath.Clean(root))
}

// NewReadOnlyOS returns a read-only filesystem rooted at root.
func NewReadOnlyOS(root string) afero.Fs {
	return afero.NewReadOnlyFs(NewOS(root))
}

// Exists reports whether name exists on fsys.
func Exists(fsys afero.Fs, name string) bool {
	ok, err := afero.Exists(fsys, name)
	return err == nil && ok
}

// IsFile reports whether name exists on fsys and is not a directory.
func IsFile(fsys afero.Fs, name string) bool {
	info, err := fsys.Stat(name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const defaultFileMode os.FileMode = 0644

// WriteFileAtomic replaces name with data. The bytes go to a temp file in the
// same directory first and are renamed over name, so readers see either the
// old or the new content, never a truncated file.
func WriteFileAtomic(fsys afero.Fs, name string, data []byte, perm os.FileMode) error {
	tmp := filepath.Join(filepath.Dir(name), fmt.Sprintf(".%s.%s.tmp", filepath.Base(name), uuid.NewString()[:8]))

	if err := afero.WriteFile(fsys, tmp, data, perm); err != nil {
		_ = fsys.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := fsys.Rename(tmp, name); err != nil {
		_ = fsys.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// FileMode returns the permission bits of name, or the default file mode when
// name does not exist.
func FileMode(fsys afero.Fs, name string) os.FileMode {
	info, err := fsys.Stat(name)
	if err != nil {
		return defaultFileMode
	}
	return info.Mode().Perm()
}

// CopyFile copies srcName from src to dstName on dst byte for byte, keeping
// the source permissions. The destination directory must exist.
func CopyFile(src afero.Fs, srcName string, dst afero.Fs, dstName string) error {
	data, err := afero.ReadFile(src, srcName)
	if err != nil {
		return err
	}
	return WriteFileAtomic(dst, dstName, data, FileMode(src, srcName))
}

// MkdirAllTracked behaves like MkdirAll and returns the directories it had to
// create, outermost first. An existing dir yields an empty slice.
func MkdirAllTracked(fsys afero.Fs, dir string, perm os.FileMode) ([]string, error) {
	dir = filepath.Clean(dir)
	if dir == "." || dir == "" || dir == string(filepath.Separator) {
		return nil, nil
	}

	var missing []string
	for current := dir; current != "." && current != string(filepath.Separator); current = filepath.Dir(current) {
		if Exists(fsys, current) {
			break
		}
		missing = append(missing, current)
	}

	if len(missing) == 0 {
		return nil, nil
	}

	if err := fsys.MkdirAll(dir, perm); err != nil {
		return nil, err
	}

	// collected innermost first
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}
	return missing, nil
}

// RemoveEmptyDirs removes dirs innermost first, skipping any directory that
// still has entries. It returns the directories it actually removed.
func RemoveEmptyDirs(fsys afero.Fs, dirs []string) ([]string, error) {
	var removed []string
	for i := len(dirs) - 1; i >= 0; i-- {
		dir := dirs[i]
		entries, err := afero.ReadDir(fsys, dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, err
		}
		if len(entries) > 0 {
			continue
		}
		if err := fsys.Remove(dir); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

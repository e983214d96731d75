// Package workspace provisions the working copy a recipe run mutates: a
// fresh copy of an app template under a base directory, named after the
// recipe.
package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/filesystem"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/arthur-debert/reciper/pkg/paths"
	"github.com/spf13/afero"
)

// Parameterize turns a recipe name into a directory name: lower case ASCII
// letters and digits, every other run of characters collapsed to "_".
func Parameterize(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Provision replaces <baseDir>/<parameterized name> with a copy of
// templatePath and returns the new working copy root. An empty templatePath
// yields an empty working copy.
func Provision(name, templatePath, baseDir string) (string, error) {
	return provision(afero.NewOsFs(), name, templatePath, baseDir)
}

func provision(fsys afero.Fs, name, templatePath, baseDir string) (string, error) {
	logger := logging.GetLogger("workspace")

	dirName := Parameterize(name)
	if dirName == "" {
		return "", errors.Newf(errors.ErrInvalidInput, "recipe name %q has no usable characters", name)
	}
	root := filepath.Join(baseDir, dirName)

	if templatePath != "" {
		info, err := fsys.Stat(templatePath)
		if err != nil || !info.IsDir() {
			return "", errors.Newf(errors.ErrWorkspaceProvision, "template is not a directory: %s", templatePath).
				WithDetail("template", templatePath)
		}
		absTemplate, _ := filepath.Abs(templatePath)
		absRoot, _ := filepath.Abs(root)
		if paths.ContainsPath(absRoot, absTemplate) {
			return "", errors.Newf(errors.ErrWorkspaceProvision, "template %s lies inside the working copy %s", templatePath, root)
		}
	}

	if err := fsys.RemoveAll(root); err != nil {
		return "", errors.Wrapf(err, errors.ErrWorkspaceProvision, "failed to remove previous working copy %s", root)
	}

	if templatePath == "" {
		if err := fsys.MkdirAll(root, 0755); err != nil {
			return "", errors.Wrapf(err, errors.ErrWorkspaceProvision, "failed to create working copy %s", root)
		}
	} else if err := copyTree(fsys, templatePath, root); err != nil {
		return "", errors.Wrapf(err, errors.ErrWorkspaceProvision, "failed to copy template %s", templatePath)
	}

	logger.Info().
		Str("name", name).
		Str("template", templatePath).
		Str("root", root).
		Msg("Provisioned working copy")

	return root, nil
}

// copyTree copies src into dst, keeping permissions and symlinks.
func copyTree(fsys afero.Fs, src, dst string) error {
	return afero.Walk(fsys, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return fsys.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			return copySymlink(fsys, path, target)
		default:
			return filesystem.CopyFile(fsys, path, fsys, target)
		}
	})
}

func copySymlink(fsys afero.Fs, path, target string) error {
	reader, ok := fsys.(afero.LinkReader)
	linker, ok2 := fsys.(afero.Linker)
	if !ok || !ok2 {
		return filesystem.CopyFile(fsys, path, fsys, target)
	}
	dest, err := reader.ReadlinkIfPossible(path)
	if err != nil {
		return err
	}
	return linker.SymlinkIfPossible(dest, target)
}

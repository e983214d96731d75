package paths

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// globMeta holds the characters that turn a target into a pattern.
const globMeta = "*?[{"

// Resolver turns target specifications into paths relative to the working
// copy root. A target is either an exact relative path or a glob such as
// "db/migrate/*create_users.rb" that must match exactly one file.
type Resolver struct {
	fs afero.Fs
}

// NewResolver creates a resolver over the working copy filesystem.
func NewResolver(fs afero.Fs) *Resolver {
	return &Resolver{fs: fs}
}

// IsPattern reports whether target contains glob metacharacters.
func IsPattern(target string) bool {
	return strings.ContainsAny(target, globMeta)
}

// Resolve returns the relative path target designates. Exact paths come back
// cleaned without touching the filesystem; existence is the caller's concern.
// Patterns must match exactly one regular file.
func (r *Resolver) Resolve(target string) (string, error) {
	rel, err := Clean(target)
	if err != nil {
		return "", err
	}

	if !IsPattern(rel) {
		return rel, nil
	}

	matches, err := r.Glob(rel)
	if err != nil {
		return "", err
	}

	logger := logging.GetLogger("paths.resolver")
	logger.Debug().
		Str("pattern", rel).
		Strs("matches", matches).
		Msg("Resolved pattern")

	if len(matches) != 1 {
		return "", errors.Newf(errors.ErrAmbiguousTarget,
			"pattern %q matched %d files, expected exactly one", target, len(matches)).
			WithDetail("pattern", target).
			WithDetail("matches", matches)
	}

	return matches[0], nil
}

// Glob expands pattern against the working copy and returns the matching
// regular files, sorted.
func (r *Resolver) Glob(pattern string) ([]string, error) {
	slashed := filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(slashed) {
		return nil, errors.Newf(errors.ErrInvalidInput, "invalid pattern: %q", pattern)
	}

	matches, err := doublestar.Glob(afero.NewIOFS(r.fs), slashed, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "matching pattern %q", pattern)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.FromSlash(m))
	}
	sort.Strings(out)

	return out, nil
}

// Clean normalizes a path relative to a root and rejects anything that would
// leave it: absolute paths and paths climbing above the root with "..".
func Clean(target string) (string, error) {
	if err := ValidatePath(target); err != nil {
		return "", err
	}

	slashed := filepath.ToSlash(target)
	if filepath.IsAbs(target) || strings.HasPrefix(slashed, "/") {
		return "", errors.Newf(errors.ErrPathEscape, "path must be relative: %q", target).
			WithDetail("path", target)
	}

	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Newf(errors.ErrPathEscape, "path escapes root: %q", target).
			WithDetail("path", target)
	}

	return filepath.FromSlash(cleaned), nil
}

// Join cleans dir and name as one relative path. An empty dir means the root.
func Join(dir, name string) (string, error) {
	if dir == "" {
		return Clean(name)
	}
	return Clean(path.Join(filepath.ToSlash(dir), filepath.ToSlash(name)))
}

// Package backup keeps the pre-override contents of working copy files for
// the duration of a run. Each run writes into its own directory named after
// a random run id, and each backup is keyed by the journal sequence number of
// the override that produced it, so overriding the same target twice keeps
// both versions.
package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/filesystem"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Store writes backups under <dir>/reciper-<runID>/.
type Store struct {
	fs     afero.Fs
	runID  string
	dir    string
	logger zerolog.Logger
}

// NewStore creates a store rooted at baseDir on the host filesystem. An empty
// baseDir means the OS temp directory.
func NewStore(baseDir string) *Store {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return NewStoreFs(afero.NewOsFs(), baseDir)
}

// NewStoreFs creates a store on an arbitrary filesystem.
func NewStoreFs(fsys afero.Fs, baseDir string) *Store {
	runID := uuid.NewString()
	return &Store{
		fs:     fsys,
		runID:  runID,
		dir:    filepath.Join(baseDir, "reciper-"+runID),
		logger: logging.GetLogger("backup"),
	}
}

// RunID returns the id that namespaces this store's directory.
func (s *Store) RunID() string {
	return s.runID
}

// Dir returns the directory holding this run's backups.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data as the backup for target and returns the backup path.
func (s *Store) Save(seq int, target string, data []byte) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0700); err != nil {
		return "", errors.Wrapf(err, errors.ErrBackup, "failed to create backup directory %s", s.dir)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%d-%s", seq, filepath.Base(target)))
	if err := filesystem.WriteFileAtomic(s.fs, path, data, 0600); err != nil {
		return "", errors.Wrapf(err, errors.ErrBackup, "failed to back up %s", target)
	}

	s.logger.Debug().
		Str("target", target).
		Str("backup", path).
		Int("bytes", len(data)).
		Msg("Saved backup")

	return path, nil
}

// Load returns the bytes of a backup written by Save.
func (s *Store) Load(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackup, "failed to read backup %s", path).
			WithDetail("path", path)
	}
	return data, nil
}

// Cleanup removes the run directory and everything in it.
func (s *Store) Cleanup() error {
	if err := s.fs.RemoveAll(s.dir); err != nil {
		return errors.Wrapf(err, errors.ErrBackup, "failed to remove backup directory %s", s.dir)
	}
	s.logger.Debug().Str("dir", s.dir).Msg("Removed backups")
	return nil
}

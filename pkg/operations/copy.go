package operations

import (
	"path/filepath"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/filesystem"
	"github.com/arthur-debert/reciper/pkg/journal"
	"github.com/arthur-debert/reciper/pkg/paths"
	"github.com/spf13/afero"
)

// CopyOptions controls where CopyFile puts the file.
type CopyOptions struct {
	// To is the destination directory. Empty means the working copy root.
	To string
	// As renames the file. Empty keeps the source base name.
	As string
}

// CopyFile copies source from the source tree into the working copy and
// returns the destination path. Missing destination directories are created
// and recorded so rollback can remove them again once they are empty. An
// existing destination file is backed up first and restored on rollback.
func (o *Operations) CopyFile(source string, opts CopyOptions) (string, error) {
	src, err := paths.Clean(source)
	if err != nil {
		return "", err
	}

	name := opts.As
	if name == "" {
		name = filepath.Base(src)
	}
	dest, err := paths.Join(opts.To, name)
	if err != nil {
		return "", err
	}

	logger := o.logger.With().Str("op", "copy_file").Str("source", src).Str("destination", dest).Logger()

	if !filesystem.IsFile(o.source, src) {
		return "", errors.Newf(errors.ErrSourceNotFound, "source file not found: %s", src).
			WithDetail("source", src)
	}

	var backupPath string
	if filesystem.IsFile(o.work, dest) {
		backupPath, err = o.backupExisting(dest)
		if err != nil {
			return "", err
		}
	}

	created, err := filesystem.MkdirAllTracked(o.work, filepath.Dir(dest), 0755)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory for %s", dest)
	}

	if err := filesystem.CopyFile(o.source, src, o.work, dest); err != nil {
		if _, cleanupErr := filesystem.RemoveEmptyDirs(o.work, created); cleanupErr != nil {
			logger.Warn().Err(cleanupErr).Msg("Failed to remove directories after failed copy")
		}
		return "", errors.Wrapf(err, errors.ErrFileWrite, "failed to copy %s to %s", src, dest)
	}

	rec := o.journal.Append(journal.Record{
		Kind:        journal.KindCopyFile,
		Destination: dest,
		CreatedDirs: created,
		BackupPath:  backupPath,
	})

	logger.Debug().
		Int("seq", rec.Seq).
		Strs("created_dirs", created).
		Str("backup", backupPath).
		Msg("Copied file")

	return dest, nil
}

// backupExisting saves the current bytes of dest under the sequence number
// the next record will get.
func (o *Operations) backupExisting(dest string) (string, error) {
	if o.backups == nil {
		return "", errors.Newf(errors.ErrInternal, "no backup store to save %s", dest)
	}
	original, err := afero.ReadFile(o.work, dest)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", dest)
	}
	return o.backups.Save(o.journal.NextSeq(), dest, original)
}

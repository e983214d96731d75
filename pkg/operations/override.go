package operations

import (
	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/filesystem"
	"github.com/arthur-debert/reciper/pkg/journal"
	"github.com/arthur-debert/reciper/pkg/paths"
	"github.com/spf13/afero"
)

// OverrideFile replaces an existing working copy file with a file from the
// source tree. The previous bytes are backed up and journaled before the
// target is touched.
func (o *Operations) OverrideFile(source, target string) error {
	src, err := paths.Clean(source)
	if err != nil {
		return err
	}
	dest, err := paths.Clean(target)
	if err != nil {
		return err
	}

	if !filesystem.IsFile(o.work, dest) {
		return errors.Newf(errors.ErrNoFileToOverride, "no file to override: %s", dest).
			WithDetail("target", dest)
	}

	original, err := afero.ReadFile(o.work, dest)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", dest)
	}

	seq := o.journal.NextSeq()
	backupPath, err := o.backups.Save(seq, dest, original)
	if err != nil {
		return err
	}

	rec := o.journal.Append(journal.Record{
		Kind:       journal.KindOverrideFile,
		Target:     dest,
		BackupPath: backupPath,
	})

	logger := o.logger.With().Str("op", "override_file").Str("source", src).Str("target", dest).Int("seq", rec.Seq).Logger()

	if !filesystem.IsFile(o.source, src) {
		return errors.Newf(errors.ErrSourceNotFound, "source file not found: %s", src).
			WithDetail("source", src)
	}

	data, err := afero.ReadFile(o.source, src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", src)
	}

	if err := filesystem.WriteFileAtomic(o.work, dest, data, filesystem.FileMode(o.work, dest)); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to override %s", dest)
	}

	logger.Debug().Str("backup", backupPath).Msg("Overrode file")
	return nil
}

// Package rollback undoes a run's journaled operations, newest first.
package rollback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/reciper/pkg/backup"
	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/filesystem"
	"github.com/arthur-debert/reciper/pkg/journal"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/arthur-debert/reciper/pkg/runner"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Event reports one compensation. Index is the record's position in the
// journal at the time of the rollback, 0 being the oldest.
type Event struct {
	Index  int
	Record journal.Record
	Err    error
}

// Observer is called after every compensation, successful or not.
type Observer func(Event)

// FailedError reports the compensation a rollback stopped at.
type FailedError struct {
	Index  int
	Record journal.Record
	Cause  error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("[%s] rollback failed at record %d (%s): %v",
		errors.ErrRollbackFailed, e.Index, e.Record.Describe(), e.Cause)
}

func (e *FailedError) Unwrap() error {
	return e.Cause
}

// Is matches errors.RollbackFailed.
func (e *FailedError) Is(target error) bool {
	return errors.IsErrorCode(target, errors.ErrRollbackFailed)
}

// Config wires an Engine.
type Config struct {
	WorkingCopy afero.Fs
	Journal     *journal.Journal
	Backups     *backup.Store
	Commands    runner.Commander
	Observer    Observer
}

// Engine compensates journal records.
type Engine struct {
	work     afero.Fs
	journal  *journal.Journal
	backups  *backup.Store
	commands runner.Commander
	observer Observer
	logger   zerolog.Logger
}

// New creates an engine from cfg.
func New(cfg Config) *Engine {
	return &Engine{
		work:     cfg.WorkingCopy,
		journal:  cfg.Journal,
		backups:  cfg.Backups,
		commands: cfg.Commands,
		observer: cfg.Observer,
		logger:   logging.GetLogger("rollback"),
	}
}

// SetObserver replaces the observer.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// Rollback drains the journal and compensates every record last to first.
//
// After a complete pass the journal is empty, so calling Rollback again does
// nothing. If a compensation fails the pass stops there and a *FailedError is
// returned; the failed record and everything older go back into the journal
// so a later call picks up where this one stopped.
func (e *Engine) Rollback(ctx context.Context) error {
	records := e.journal.Drain()
	if len(records) == 0 {
		return nil
	}

	done := logging.LogOperationStart(e.logger, "rollback")
	defer done()

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]

		err := ctx.Err()
		if err == nil {
			err = e.compensate(ctx, rec)
		}

		if e.observer != nil {
			e.observer(Event{Index: i, Record: rec, Err: err})
		}

		if err != nil {
			e.journal.Restore(records[:i+1])
			e.logger.Error().
				Err(err).
				Int("index", i).
				Int("seq", rec.Seq).
				Str("kind", rec.Kind.String()).
				Msg("Rollback stopped")
			return &FailedError{Index: i, Record: rec, Cause: err}
		}

		e.logger.Info().
			Int("seq", rec.Seq).
			Str("kind", rec.Kind.String()).
			Msg("Rolled back " + rec.Describe())
	}

	if e.backups != nil {
		if err := e.backups.Cleanup(); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to remove backups")
		}
	}

	return nil
}

func (e *Engine) compensate(ctx context.Context, rec journal.Record) error {
	switch rec.Kind {
	case journal.KindCopyFile:
		return e.undoCopy(rec)
	case journal.KindLineRangePatch:
		return e.restore(rec.Target, rec.OriginalContent)
	case journal.KindOverrideFile:
		return e.restoreBackup(rec.Target, rec.BackupPath)
	case journal.KindRunCommand:
		return e.undoCommand(ctx, rec)
	default:
		return errors.Newf(errors.ErrInternal, "unknown record kind %s", rec.Kind)
	}
}

// undoCopy deletes the copied file, or puts back the file it replaced.
func (e *Engine) undoCopy(rec journal.Record) error {
	if rec.BackupPath != "" {
		return e.restoreBackup(rec.Destination, rec.BackupPath)
	}
	if err := e.work.Remove(rec.Destination); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to remove %s", rec.Destination)
	}
	if _, err := filesystem.RemoveEmptyDirs(e.work, rec.CreatedDirs); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to remove directories created for %s", rec.Destination)
	}
	return nil
}

func (e *Engine) restoreBackup(target, backupPath string) error {
	if e.backups == nil {
		return errors.New(errors.ErrInternal, "no backup store to restore from")
	}
	data, err := e.backups.Load(backupPath)
	if err != nil {
		return err
	}
	return e.restore(target, data)
}

func (e *Engine) restore(target string, data []byte) error {
	if err := e.work.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to recreate directory for %s", target)
	}
	if err := filesystem.WriteFileAtomic(e.work, target, data, filesystem.FileMode(e.work, target)); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to restore %s", target)
	}
	return nil
}

// undoCommand runs the rollback command. Its outcome is only logged.
func (e *Engine) undoCommand(ctx context.Context, rec journal.Record) error {
	if rec.RollbackCommand == "" {
		return nil
	}
	if e.commands == nil {
		return errors.New(errors.ErrInternal, "no command runner for rollback command")
	}

	result, err := e.commands.Run(ctx, rec.RollbackCommand)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	e.logger.Debug().
		Err(err).
		Str("command", rec.RollbackCommand).
		Bool("successful", result.Successful).
		Msg("Ran rollback command")
	return nil
}

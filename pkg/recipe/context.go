package recipe

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/reciper/pkg/backup"
	"github.com/arthur-debert/reciper/pkg/config"
	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/filesystem"
	"github.com/arthur-debert/reciper/pkg/journal"
	"github.com/arthur-debert/reciper/pkg/operations"
	"github.com/arthur-debert/reciper/pkg/rollback"
	"github.com/arthur-debert/reciper/pkg/runner"
	"github.com/spf13/afero"
)

// CopyOptions controls CopyFile.
type CopyOptions = operations.CopyOptions

// PatchOptions controls LineRangePatch.
type PatchOptions = operations.PatchOptions

// LineRange selects source lines for LineRangePatch.
type LineRange = operations.LineRange

// Options configures a Context.
type Options struct {
	SourceRoot      string
	WorkingCopyRoot string
	// Config supplies command, test, task and backup settings. Nil means
	// config.Default().
	Config *config.Config
	// Observer is told about every rollback compensation.
	Observer rollback.Observer
}

// Context owns everything one recipe run touches. It is not safe for
// concurrent use; parallel runs each need their own Context.
type Context struct {
	sourceRoot string
	workRoot   string
	cfg        *config.Config

	journal  *journal.Journal
	backups  *backup.Store
	commands *runner.CommandRunner
	tests    *runner.TestRunner
	ops      *operations.Operations
	engine   *rollback.Engine
}

// New creates a Context. Both roots must be existing directories.
func New(opts Options) (*Context, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	sourceRoot, err := existingDir(opts.SourceRoot, "source root")
	if err != nil {
		return nil, err
	}
	workRoot, err := existingDir(opts.WorkingCopyRoot, "working copy root")
	if err != nil {
		return nil, err
	}

	c := &Context{
		sourceRoot: sourceRoot,
		workRoot:   workRoot,
		cfg:        cfg,
		journal:    journal.New(),
		backups:    backup.NewStore(cfg.Backup.Dir),
		commands: runner.NewCommandRunner(workRoot, runner.Options{
			Shell:   cfg.Commands.Shell,
			Timeout: cfg.Commands.Timeout,
			Env:     cfg.Commands.Env,
		}),
	}
	c.tests = runner.NewTestRunner(c.commands, cfg.Tests.Command)

	source := filesystem.NewReadOnlyOS(sourceRoot)
	work := filesystem.NewOS(workRoot)

	c.ops = operations.New(operations.Config{
		Source:      source,
		WorkingCopy: work,
		Journal:     c.journal,
		Backups:     c.backups,
		Commands:    c.commands,
	})
	c.engine = rollback.New(rollback.Config{
		WorkingCopy: work,
		Journal:     c.journal,
		Backups:     c.backups,
		Commands:    c.commands,
		Observer:    opts.Observer,
	})

	return c, nil
}

func existingDir(path, what string) (string, error) {
	if path == "" {
		return "", errors.Newf(errors.ErrInvalidInput, "%s is required", what)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "invalid %s %s", what, path)
	}
	if ok, _ := afero.DirExists(afero.NewOsFs(), abs); !ok {
		return "", errors.Newf(errors.ErrInvalidInput, "%s is not a directory: %s", what, path).
			WithDetail("path", path)
	}
	return abs, nil
}

// SourceRoot returns the absolute source tree path.
func (c *Context) SourceRoot() string { return c.sourceRoot }

// WorkingCopyRoot returns the absolute working copy path.
func (c *Context) WorkingCopyRoot() string { return c.workRoot }

// Config returns the settings the context was built with.
func (c *Context) Config() *config.Config { return c.cfg }

// Journal returns the run's journal.
func (c *Context) Journal() *journal.Journal { return c.journal }

// CopyFile copies a source file into the working copy.
func (c *Context) CopyFile(source string, opts CopyOptions) (string, error) {
	return c.ops.CopyFile(source, opts)
}

// OverrideFile replaces an existing working copy file with a source file.
func (c *Context) OverrideFile(source, target string) error {
	return c.ops.OverrideFile(source, target)
}

// LineRangePatch inserts source lines into the file matched by targetPattern.
func (c *Context) LineRangePatch(source, targetPattern string, opts PatchOptions) (string, error) {
	return c.ops.LineRangePatch(source, targetPattern, opts)
}

// RunCommand runs command in the working copy. rollbackCommand, if not
// empty, runs when the run is rolled back.
func (c *Context) RunCommand(ctx context.Context, command, rollbackCommand string) (runner.CommandResult, error) {
	return c.ops.RunCommand(ctx, command, rollbackCommand)
}

// RunTask runs a named task through the configured task prefix.
func (c *Context) RunTask(ctx context.Context, task, rollbackTask string) (runner.CommandResult, error) {
	rollbackCommand := ""
	if rollbackTask != "" {
		rollbackCommand = c.cfg.TaskCommand(rollbackTask)
	}
	return c.ops.RunCommand(ctx, c.cfg.TaskCommand(task), rollbackCommand)
}

// RunTests runs the test suite and returns the failure count. Nothing is
// journaled.
func (c *Context) RunTests(ctx context.Context) (int, error) {
	return c.tests.RunTests(ctx)
}

// Rollback undoes every journaled operation, newest first.
func (c *Context) Rollback(ctx context.Context) error {
	return c.engine.Rollback(ctx)
}

// SetObserver replaces the rollback observer.
func (c *Context) SetObserver(o rollback.Observer) {
	c.engine.SetObserver(o)
}

// Commit ends the run keeping its changes: the journal is emptied and the
// backups are removed, so a later Rollback does nothing.
func (c *Context) Commit() error {
	c.journal.Drain()
	return c.backups.Cleanup()
}

// RunID identifies this run; it also names the backup directory.
func (c *Context) RunID() string {
	return c.backups.RunID()
}

// BackupDir returns where override backups are kept for this run.
func (c *Context) BackupDir() string {
	return c.backups.Dir()
}

package operations

import (
	"github.com/arthur-debert/reciper/pkg/backup"
	"github.com/arthur-debert/reciper/pkg/journal"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/arthur-debert/reciper/pkg/paths"
	"github.com/arthur-debert/reciper/pkg/runner"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Config wires the collaborators of an Operations value.
type Config struct {
	Source      afero.Fs
	WorkingCopy afero.Fs
	Journal     *journal.Journal
	Backups     *backup.Store
	Commands    runner.Commander
}

// Operations applies journaled mutations to a working copy. It is not safe
// for concurrent use.
type Operations struct {
	source   afero.Fs
	work     afero.Fs
	resolver *paths.Resolver
	journal  *journal.Journal
	backups  *backup.Store
	commands runner.Commander
	logger   zerolog.Logger
}

// New creates an Operations value from cfg.
func New(cfg Config) *Operations {
	return &Operations{
		source:   cfg.Source,
		work:     cfg.WorkingCopy,
		resolver: paths.NewResolver(cfg.WorkingCopy),
		journal:  cfg.Journal,
		backups:  cfg.Backups,
		commands: cfg.Commands,
		logger:   logging.GetLogger("operations"),
	}
}


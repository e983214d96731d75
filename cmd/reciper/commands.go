package reciper

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/reciper/internal/version"
	"github.com/arthur-debert/reciper/pkg/config"
	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/arthur-debert/reciper/pkg/recipe"
	"github.com/arthur-debert/reciper/pkg/rollback"
	"github.com/arthur-debert/reciper/pkg/ui"
	"github.com/arthur-debert/reciper/pkg/workspace"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	var (
		verbosity int
		settings  configFlags
	)

	rootCmd := &cobra.Command{
		Use:     "reciper",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&settings.file, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringArrayVar(&settings.overrides, "set", nil, MsgFlagSet)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newRunCmd(&settings))
	rootCmd.AddCommand(newValidateCmd(&settings))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// configFlags are the global flags that shape configuration.
type configFlags struct {
	file      string
	overrides []string
}

// RunOptions holds the flags of the run command.
type RunOptions struct {
	ConfigFile string
	Workdir    string
	Rollback   bool
	Keep       bool
	Journal    string

	// Overrides are key=value config settings applied last.
	Overrides []string
}

func newRunCmd(settings *configFlags) *cobra.Command {
	var (
		opts   RunOptions
		format string
	)

	cmd := &cobra.Command{
		Use:     "run <recipe-file>",
		Short:   MsgRunShort,
		Long:    MsgRunLong,
		Example: MsgRunExample,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ui.ParseFormat(format)
			if err != nil {
				return err
			}
			renderer, err := ui.NewRenderer(f, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			opts.ConfigFile = settings.file
			opts.Overrides = settings.overrides
			report, runErr := RunRecipe(cmd.Context(), args[0], opts, cmd.ErrOrStderr())
			if report != nil {
				if err := renderer.RenderReport(report); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&opts.Workdir, "workdir", "w", "", MsgFlagWorkdir)
	cmd.Flags().BoolVar(&opts.Rollback, "rollback", false, MsgFlagRollback)
	cmd.Flags().BoolVar(&opts.Keep, "keep", false, MsgFlagKeep)
	cmd.Flags().StringVar(&opts.Journal, "journal", "", MsgFlagJournal)
	cmd.Flags().StringVarP(&format, "format", "f", "auto", MsgFlagFormat)
	cmd.MarkFlagsMutuallyExclusive("rollback", "keep")

	return cmd
}

// RunRecipe loads the recipe at path, runs it and settles the journal:
// the run is rolled back when opts.Rollback is set, committed otherwise.
// A report is returned whenever execution started, even when the run failed.
func RunRecipe(ctx context.Context, path string, opts RunOptions, stderr io.Writer) (*recipe.Report, error) {
	logger := logging.GetLogger("cmd.run")

	cfg, err := loadConfig(opts.ConfigFile, opts.Overrides)
	if err != nil {
		return nil, err
	}

	rec, err := recipe.Load(path)
	if err != nil {
		return nil, err
	}

	root := opts.Workdir
	if root == "" {
		root, err = workspace.Provision(rec.Name, rec.TemplateDir(), cfg.Workspace.BaseDir)
		if err != nil {
			return nil, err
		}
	}

	rc, err := recipe.New(recipe.Options{
		SourceRoot:      rec.SourceDir(),
		WorkingCopyRoot: root,
		Config:          cfg,
		Observer: func(ev rollback.Event) {
			e := logger.Info()
			if ev.Err != nil {
				e = logger.Error().Err(ev.Err)
			}
			e.Int("seq", ev.Record.Seq).Msg("Undo " + ev.Record.Describe())
		},
	})
	if err != nil {
		return nil, err
	}

	logger = logging.WithFields(map[string]interface{}{
		"component": "cmd.run",
		"recipe":    rec.Name,
		"run_id":    rc.RunID(),
	})
	logger.Info().Str("workdir", root).Msg("Running recipe")

	rollbackOnFailure := cfg.Run.RollbackOnFailure && !opts.Keep
	report, runErr := recipe.NewExecutor(rollbackOnFailure).Execute(ctx, rc, rec)

	if opts.Journal != "" {
		if err := writeJournal(rc, opts.Journal); err != nil {
			return report, err
		}
	}

	switch {
	case report.RollbackErr != nil:
		fmt.Fprintf(stderr, MsgBackupsKept, rc.BackupDir())
		if runErr == nil {
			runErr = report.RollbackErr
		}
	case report.RolledBack:
	case opts.Rollback:
		if err := rc.Rollback(context.WithoutCancel(ctx)); err != nil {
			report.RollbackErr = err
			fmt.Fprintf(stderr, MsgBackupsKept, rc.BackupDir())
			if runErr == nil {
				runErr = err
			}
		} else {
			report.RolledBack = true
		}
	default:
		if err := rc.Commit(); err != nil {
			logger.Warn().Err(err).Str("dir", rc.BackupDir()).Msg("Could not remove backups")
		}
	}

	return report, runErr
}

func writeJournal(rc *recipe.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to create journal file %s", path)
	}
	if err := rc.Journal().WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write journal file %s", path)
	}
	return nil
}

func loadConfig(file string, pairs []string) (*config.Config, error) {
	overrides, err := config.ParseOverrides(pairs)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to get working directory")
	}
	return config.Load(config.LoadOptions{ProjectDir: cwd, File: file, Overrides: overrides})
}

func newValidateCmd(settings *configFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "validate <recipe-file>",
		Short:   MsgValidateShort,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ui.ParseFormat(format)
			if err != nil {
				return err
			}
			renderer, err := ui.NewRenderer(f, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if _, err := loadConfig(settings.file, settings.overrides); err != nil {
				return err
			}
			rec, err := recipe.Load(args[0])
			if err != nil {
				return err
			}
			if err := checkDir(rec.SourceDir(), "source"); err != nil {
				return err
			}
			if dir := rec.TemplateDir(); dir != "" {
				if err := checkDir(dir, "template"); err != nil {
					return err
				}
			}

			if err := renderer.RenderPlan(rec); err != nil {
				return err
			}
			return renderer.RenderMessage(fmt.Sprintf(MsgValidateOK, args[0]))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "auto", MsgFlagFormat)
	return cmd
}

func checkDir(path, what string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return errors.Newf(errors.ErrRecipeInvalid, "%s directory not found: %s", what, path).
			WithDetail(what, path)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		Args:    cobra.NoArgs,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "reciper %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

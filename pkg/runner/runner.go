package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/rs/zerolog"
)

const (
	// DefaultShell interprets command lines.
	DefaultShell = "/bin/sh -c"

	// DefaultTimeout bounds a single command. Zero disables the limit.
	DefaultTimeout = 10 * time.Minute

	// waitDelay is how long Wait keeps reading pipes after the process group
	// was killed.
	waitDelay = 2 * time.Second
)

// CommandResult is the outcome of one command.
type CommandResult struct {
	Successful bool
	Output     string
	Stderr     string
	ExitCode   int
	TimedOut   bool
	Duration   time.Duration
}

// Commander runs command lines. Operations and rollback depend on this
// rather than on *CommandRunner so tests can substitute a fake.
type Commander interface {
	Run(ctx context.Context, command string) (CommandResult, error)
}

// Options configures a CommandRunner.
type Options struct {
	// Shell is the interpreter invocation the command line is appended to,
	// split on whitespace. Defaults to DefaultShell.
	Shell string
	// Timeout per command. Zero means no limit.
	Timeout time.Duration
	// Env is appended to the inherited environment.
	Env []string
}

// CommandRunner executes command lines with the working copy root as the
// current directory.
type CommandRunner struct {
	dir     string
	shell   []string
	timeout time.Duration
	env     []string
	logger  zerolog.Logger
}

// NewCommandRunner creates a runner for commands executed in dir.
func NewCommandRunner(dir string, opts Options) *CommandRunner {
	shell := strings.Fields(opts.Shell)
	if len(shell) == 0 {
		shell = strings.Fields(DefaultShell)
	}
	return &CommandRunner{
		dir:     dir,
		shell:   shell,
		timeout: opts.Timeout,
		env:     opts.Env,
		logger:  logging.GetLogger("runner"),
	}
}

// Dir returns the directory commands run in.
func (r *CommandRunner) Dir() string {
	return r.dir
}

// Run executes command and waits for it. Stdout and stderr are captured
// separately. When the timeout expires or ctx is cancelled the whole process
// group is killed and the partial result is returned with an error.
func (r *CommandRunner) Run(ctx context.Context, command string) (CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return CommandResult{}, errors.New(errors.ErrInvalidInput, "command cannot be empty")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := append(append([]string{}, r.shell[1:]...), command)
	cmd := exec.Command(r.shell[0], args...)
	cmd.Dir = r.dir
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	setProcGroup(cmd)

	logger := r.logger.With().Str("command", command).Str("dir", r.dir).Logger()
	logging.LogCommand(command, r.shell)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		logger.Error().Err(err).Msg("Command failed to start")
		return CommandResult{ExitCode: -1}, errors.Wrapf(err, errors.ErrCommandStart,
			"failed to start command: %s", command).
			WithDetail("command", command)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	var interrupted error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		killProcessGroup(cmd)
		waitErr = <-done
		interrupted = ctx.Err()
	}

	result := CommandResult{
		Output:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, waitErr),
		Duration: time.Since(start),
	}
	result.Successful = waitErr == nil && interrupted == nil && result.ExitCode == 0

	if interrupted != nil {
		if interrupted == context.DeadlineExceeded {
			result.TimedOut = true
			logger.Warn().Dur("timeout", r.timeout).Msg("Command timed out")
			return result, errors.Newf(errors.ErrCommandTimedOut,
				"command timed out after %s: %s", r.timeout, command).
				WithDetail("command", command)
		}
		logger.Warn().Err(interrupted).Msg("Command cancelled")
		return result, errors.Wrapf(interrupted, errors.ErrCommandCancelled,
			"command cancelled: %s", command).
			WithDetail("command", command)
	}

	event := logger.Debug()
	if !result.Successful {
		event = event.Str("stderr", result.Stderr)
	}
	event.
		Int("exit_code", result.ExitCode).
		Bool("successful", result.Successful).
		Dur("duration", result.Duration).
		Msg("Command finished")

	return result, nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

package runner

import (
	"context"
	"regexp"
	"strings"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/logging"
)

// DefaultTestCommand runs the app's test suite.
const DefaultTestCommand = "bundle exec rspec spec"

// progressPattern matches a run of progress characters: "." passed,
// "F" failed, "E" errored and "*" pending.
var progressPattern = regexp.MustCompile(`[.FE*]+`)

// progressLinePattern matches a line made only of progress characters.
var progressLinePattern = regexp.MustCompile(`(?m)^[ \t]*([.FE*]+)[ \t\r]*$`)

// ParseFailures counts the failures and errors in the progress line of
// output. Lines such as "Randomized with seed 4242." contain a stray dot, so
// a line holding nothing but progress characters wins; without one, the first
// run of progress characters anywhere is used.
func ParseFailures(output string) (int, error) {
	var progress string
	if m := progressLinePattern.FindStringSubmatch(output); m != nil {
		progress = m[1]
	} else {
		progress = progressPattern.FindString(output)
	}
	if progress == "" {
		return 0, errors.New(errors.ErrNoTestOutput, "no test output").
			WithDetail("output", output)
	}
	return strings.Count(progress, "F") + strings.Count(progress, "E"), nil
}

// TestRunner runs the test suite through a Commander and reports failures.
// Test runs change nothing that can be undone, so they are never journaled.
type TestRunner struct {
	commands Commander
	command  string
}

// NewTestRunner creates a test runner. An empty command means
// DefaultTestCommand.
func NewTestRunner(commands Commander, command string) *TestRunner {
	if command == "" {
		command = DefaultTestCommand
	}
	return &TestRunner{commands: commands, command: command}
}

// Command returns the test suite invocation.
func (t *TestRunner) Command() string {
	return t.command
}

// RunTests runs the suite and returns the number of failing examples.
func (t *TestRunner) RunTests(ctx context.Context) (int, error) {
	logger := logging.GetLogger("runner.tests")

	result, err := t.commands.Run(ctx, t.command)
	if err != nil {
		return 0, err
	}

	failures, err := ParseFailures(result.Output)
	if err != nil {
		logger.Warn().
			Str("command", t.command).
			Int("exit_code", result.ExitCode).
			Msg("Can't get any test output")
		return 0, err
	}

	logger.Info().
		Str("command", t.command).
		Int("failures", failures).
		Msg("Ran tests")

	return failures, nil
}

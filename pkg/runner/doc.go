// Package runner executes shell command lines inside a working copy and
// interprets test suite output.
//
// A command that runs and exits non-zero is a result, not an error: the
// returned CommandResult reports it. Errors are reserved for commands that
// could not be started at all and for commands killed by a timeout or a
// cancelled context.
package runner

package operations

import (
	"context"
	"strings"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/journal"
	"github.com/arthur-debert/reciper/pkg/runner"
)

// RunCommand runs command in the working copy. A record carrying
// rollbackCommand is appended whatever the outcome, because a failed
// command may still have changed the working copy. An empty
// rollbackCommand means nothing runs on rollback.
func (o *Operations) RunCommand(ctx context.Context, command, rollbackCommand string) (runner.CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return runner.CommandResult{}, errors.New(errors.ErrInvalidInput, "command cannot be empty")
	}

	result, err := o.commands.Run(ctx, command)

	rec := o.journal.Append(journal.Record{
		Kind:            journal.KindRunCommand,
		RollbackCommand: rollbackCommand,
	})

	o.logger.Debug().
		Str("op", "run_command").
		Str("command", command).
		Str("rollback_command", rollbackCommand).
		Bool("successful", result.Successful).
		Int("seq", rec.Seq).
		Msg("Ran command")

	return result, err
}

package reciper

import (
	stderrors "errors"

	"github.com/arthur-debert/reciper/pkg/errors"
)

// Exit statuses of the reciper binary.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitStepFailed     = 2
	ExitRollbackFailed = 3
	ExitUsage          = 64
)

// ExitCode maps an error returned by the root command to a process exit
// status. A failed step outranks a rollback failure that followed it.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	code := errors.GetErrorCode(err)
	switch {
	case code == errors.ErrStepFailed:
		return ExitStepFailed
	case stderrors.Is(err, errors.RollbackFailed):
		return ExitRollbackFailed
	case code == errors.ErrInvalidInput, code == errors.ErrRecipeInvalid, code == errors.ErrRecipeLoad,
		code == errors.ErrConfigLoad, code == errors.ErrConfigParse:
		return ExitUsage
	default:
		return ExitError
	}
}

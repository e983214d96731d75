package recipe

import (
	"context"
	"time"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/arthur-debert/reciper/pkg/runner"
	"github.com/rs/zerolog"
)

// StepStatus is the outcome of a step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult records what happened to one step.
type StepResult struct {
	Index       int
	Action      Action
	Description string
	Status      StepStatus
	// Path is the file a copy or patch step wrote.
	Path string
	// Command is set for run and task steps.
	Command *runner.CommandResult
	// Failures is set for tests steps.
	Failures *int
	Err      error
	Duration time.Duration
}

// Report summarizes an execution.
type Report struct {
	Recipe      string
	Steps       []StepResult
	RolledBack  bool
	RollbackErr error
	Duration    time.Duration
}

// Failed returns the first failed step, or nil.
func (r *Report) Failed() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Status == StepFailed {
			return &r.Steps[i]
		}
	}
	return nil
}

// Executor runs recipe steps in order against a Context.
type Executor struct {
	rollbackOnFailure bool
	logger            zerolog.Logger
}

// NewExecutor creates an executor. With rollbackOnFailure the working copy
// is rolled back as soon as a step fails.
func NewExecutor(rollbackOnFailure bool) *Executor {
	return &Executor{
		rollbackOnFailure: rollbackOnFailure,
		logger:            logging.GetLogger("recipe.executor"),
	}
}

// Execute runs every step of r. The first failing step stops the run; the
// remaining steps are reported as skipped and the returned error wraps the
// step's cause with ErrStepFailed.
func (e *Executor) Execute(ctx context.Context, rc *Context, r *Recipe) (*Report, error) {
	start := time.Now()
	defer logging.LogDuration(start, "recipe "+r.Name)
	report := &Report{Recipe: r.Name}
	logger := e.logger.With().Str("recipe", r.Name).Logger()

	var stepErr error
	for i, step := range r.Steps {
		action, _ := step.Action()
		result := StepResult{
			Index:       i + 1,
			Action:      action,
			Description: step.Describe(),
		}

		if stepErr != nil {
			result.Status = StepSkipped
			report.Steps = append(report.Steps, result)
			continue
		}

		stepStart := time.Now()
		err := e.runStep(ctx, rc, step, &result)
		result.Duration = time.Since(stepStart)

		if err != nil {
			result.Status = StepFailed
			result.Err = err
			stepErr = errors.Wrapf(err, errors.ErrStepFailed, "step %d (%s) failed", i+1, result.Description).
				WithDetails(map[string]interface{}{
					"step":   i + 1,
					"action": string(action),
				})
			logger.Error().Err(err).Int("step", i+1).Msg("Step failed")
		} else {
			result.Status = StepOK
			logger.Info().Int("step", i+1).Str("step_description", result.Description).Msg("Step done")
		}
		report.Steps = append(report.Steps, result)
	}

	if stepErr != nil && e.rollbackOnFailure {
		// An interrupted run still gets rolled back.
		if err := rc.Rollback(context.WithoutCancel(ctx)); err != nil {
			report.RollbackErr = err
			logger.Error().Err(err).Msg("Rollback after failure did not complete")
		} else {
			report.RolledBack = true
			logger.Info().Msg("Rolled back after failure")
		}
	}

	report.Duration = time.Since(start)
	return report, stepErr
}

func (e *Executor) runStep(ctx context.Context, rc *Context, step Step, result *StepResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch result.Action {
	case ActionCopy:
		dest, err := rc.CopyFile(step.Copy, CopyOptions{To: step.To, As: step.As})
		result.Path = dest
		return err

	case ActionOverride:
		result.Path = step.Target
		return rc.OverrideFile(step.Override, step.Target)

	case ActionPatch:
		target, err := rc.LineRangePatch(step.Patch, step.Target, PatchOptions{
			InsertAtLine: *step.InsertAtLine,
			SourceLines:  step.LineRange(),
		})
		result.Path = target
		return err

	case ActionRun, ActionTask:
		var res runner.CommandResult
		var err error
		if result.Action == ActionRun {
			res, err = rc.RunCommand(ctx, step.Run, step.Rollback)
		} else {
			res, err = rc.RunTask(ctx, step.Task, step.Rollback)
		}
		result.Command = &res
		if err != nil {
			return err
		}
		if !res.Successful && !step.AllowFailure {
			return errors.Newf(errors.ErrStepFailed, "command exited with status %d", res.ExitCode).
				WithDetail("exit_code", res.ExitCode).
				WithDetail("stderr", res.Stderr)
		}
		return nil

	case ActionTests:
		failures, err := rc.RunTests(ctx)
		if err != nil {
			return err
		}
		result.Failures = &failures
		expected := 0
		if step.ExpectFailures != nil {
			expected = *step.ExpectFailures
		}
		if failures != expected {
			return errors.Newf(errors.ErrStepFailed, "expected %d test failures, got %d", expected, failures).
				WithDetail("expected", expected).
				WithDetail("failures", failures)
		}
		return nil

	default:
		return errors.Newf(errors.ErrRecipeInvalid, "unknown action %q", result.Action)
	}
}

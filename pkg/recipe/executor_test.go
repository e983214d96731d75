//go:build !windows

package recipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_Success(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "user.rb", "class User\nend\n")
	e.writeWork(t, "config/routes.rb", "draw do\nend\n")
	e.writeSource(t, "routes.rb", "  resources :users\n")
	rc := e.context(t, nil)

	r := &Recipe{
		Name: "users",
		Steps: []Step{
			{Copy: "user.rb", To: "app/models"},
			{Patch: "routes.rb", Target: "config/routes.rb", InsertAtLine: intPtr(2)},
			{Run: "exit 1", AllowFailure: true},
			{Tests: true, ExpectFailures: intPtr(2)},
		},
	}
	require.NoError(t, r.Validate())

	report, err := NewExecutor(true).Execute(context.Background(), rc, r)
	require.NoError(t, err)

	require.Len(t, report.Steps, 4)
	for _, s := range report.Steps {
		assert.Equal(t, StepOK, s.Status, s.Description)
	}
	assert.Equal(t, filepath.Join("app", "models", "user.rb"), report.Steps[0].Path)
	require.NotNil(t, report.Steps[2].Command)
	assert.False(t, report.Steps[2].Command.Successful)
	require.NotNil(t, report.Steps[3].Failures)
	assert.Equal(t, 2, *report.Steps[3].Failures)
	assert.Nil(t, report.Failed())
	assert.False(t, report.RolledBack)
	assert.Equal(t, 3, rc.Journal().Len())
}

func TestExecute_FailureRollsBack(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "user.rb", "class User\nend\n")
	rc := e.context(t, nil)

	r := &Recipe{
		Name: "users",
		Steps: []Step{
			{Copy: "user.rb", To: "app/models"},
			{Run: "touch side_effect.txt", Rollback: "rm side_effect.txt"},
			{Run: "exit 3"},
			{Copy: "user.rb"},
		},
	}

	report, err := NewExecutor(true).Execute(context.Background(), rc, r)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStepFailed))
	assert.Equal(t, 3, errors.GetErrorDetails(err)["step"])
	assert.Equal(t, "run", errors.GetErrorDetails(err)["action"])

	statuses := []StepStatus{}
	for _, s := range report.Steps {
		statuses = append(statuses, s.Status)
	}
	assert.Equal(t, []StepStatus{StepOK, StepOK, StepFailed, StepSkipped}, statuses)
	assert.Equal(t, 3, report.Failed().Index)

	assert.True(t, report.RolledBack)
	assert.NoError(t, report.RollbackErr)
	assert.NoFileExists(t, filepath.Join(e.work, "side_effect.txt"))
	assert.NoDirExists(t, filepath.Join(e.work, "app"))
	assert.Equal(t, 0, rc.Journal().Len())
}

func TestExecute_FailureWithoutRollback(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "user.rb", "class User\nend\n")
	rc := e.context(t, nil)

	r := &Recipe{
		Name: "users",
		Steps: []Step{
			{Copy: "user.rb"},
			{Override: "user.rb", Target: "missing.rb"},
		},
	}

	report, err := NewExecutor(false).Execute(context.Background(), rc, r)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.NoFileToOverride)
	assert.False(t, report.RolledBack)
	assert.FileExists(t, filepath.Join(e.work, "user.rb"))
	assert.Equal(t, 1, rc.Journal().Len())
}

func TestExecute_TestExpectationMismatch(t *testing.T) {
	e := newEnv(t)
	rc := e.context(t, nil)

	r := &Recipe{Name: "tests", Steps: []Step{{Tests: true}}}

	report, err := NewExecutor(false).Execute(context.Background(), rc, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 0 test failures, got 2")
	require.NotNil(t, report.Steps[0].Failures)
	assert.Equal(t, 2, *report.Steps[0].Failures)
}

func TestExecute_CancelledContext(t *testing.T) {
	e := newEnv(t)
	rc := e.context(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Recipe{Name: "x", Steps: []Step{{Run: "true"}}}
	report, err := NewExecutor(false).Execute(ctx, rc, r)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StepFailed, report.Steps[0].Status)
	assert.Equal(t, 0, rc.Journal().Len())
}

func TestExecute_InterruptedRunRollsBack(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "user.rb", "class User\nend\n")
	rc := e.context(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	r := &Recipe{
		Name: "slow",
		Steps: []Step{
			{Copy: "user.rb"},
			{Run: "sleep 5"},
		},
	}
	report, err := NewExecutor(true).Execute(ctx, rc, r)
	require.Error(t, err)
	assert.Equal(t, StepFailed, report.Steps[1].Status)
	assert.True(t, report.RolledBack)
	assert.NoError(t, report.RollbackErr)

	_, statErr := os.Stat(filepath.Join(e.work, "user.rb"))
	assert.True(t, os.IsNotExist(statErr))
}

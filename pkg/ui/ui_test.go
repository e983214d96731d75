package ui_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/recipe"
	"github.com/arthur-debert/reciper/pkg/runner"
	"github.com/arthur-debert/reciper/pkg/ui"
	"github.com/charmbracelet/glamour/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failedReport() *recipe.Report {
	return &recipe.Report{
		Recipe: "demo",
		Steps: []recipe.StepResult{
			{Index: 1, Action: recipe.ActionCopy, Description: "copy a.rb to a.rb", Status: recipe.StepOK, Duration: 2 * time.Millisecond},
			{
				Index:       2,
				Action:      recipe.ActionRun,
				Description: "run grep a | wc -l",
				Status:      recipe.StepFailed,
				Err:         errors.New(errors.ErrStepFailed, "command exited with status 1"),
				Command:     &runner.CommandResult{ExitCode: 1, Stderr: "boom\n"},
			},
			{Index: 3, Action: recipe.ActionTests, Description: "run tests", Status: recipe.StepSkipped},
		},
		RolledBack: true,
		Duration:   1500 * time.Millisecond,
	}
}

func okReport() *recipe.Report {
	return &recipe.Report{
		Recipe: "demo",
		Steps: []recipe.StepResult{
			{Index: 1, Action: recipe.ActionCopy, Description: "copy a.rb to a.rb", Status: recipe.StepOK},
		},
		Duration: time.Second,
	}
}

func TestNewRenderer(t *testing.T) {
	var buf bytes.Buffer

	r, err := ui.NewRenderer(ui.FormatText, &buf)
	require.NoError(t, err)
	assert.IsType(t, &ui.TextRenderer{}, r)

	r, err = ui.NewRenderer(ui.FormatMarkdown, &buf)
	require.NoError(t, err)
	assert.IsType(t, &ui.MarkdownRenderer{}, r)

	r, err = ui.NewRenderer(ui.FormatAuto, &buf)
	require.NoError(t, err)
	assert.IsType(t, &ui.TextRenderer{}, r, "non-file writers get plain text")

	_, err = ui.NewRenderer(ui.Format(99), &buf)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestMarkdown(t *testing.T) {
	md := ui.Markdown(failedReport())

	assert.Contains(t, md, "# demo")
	assert.Contains(t, md, "| 1 | copy a.rb to a.rb | ok | 2ms |")
	assert.Contains(t, md, `| 2 | run grep a \| wc -l | failed |`)
	assert.Contains(t, md, "| 3 | run tests | skipped | - |")
	assert.Contains(t, md, "**Step 2 failed:**")
	assert.Contains(t, md, "```\nboom\n```")
	assert.Contains(t, md, "Working copy rolled back.")
	assert.Contains(t, md, "_Failed in 1.5s_")
}

func TestMarkdown_RollbackError(t *testing.T) {
	report := failedReport()
	report.RolledBack = false
	report.RollbackErr = errors.New(errors.ErrRollbackFailed, "rollback failed")

	md := ui.Markdown(report)
	assert.Contains(t, md, "**Rollback failed:**")
	assert.NotContains(t, md, "Working copy rolled back.")
}

func TestTextRenderer_RenderReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ui.NewText(&buf).RenderReport(failedReport()))

	out := buf.String()
	assert.Contains(t, out, "Recipe: demo\n")
	assert.Contains(t, out, "1. [ok]")
	assert.Contains(t, out, "2. [failed]  run grep a | wc -l\n")
	assert.Contains(t, out, "command exited with status 1")
	assert.Contains(t, out, "3. [skipped] run tests\n")
	assert.Contains(t, out, "Working copy rolled back.\n")
	assert.Contains(t, out, "Failed in 1.5s\n")

	buf.Reset()
	require.NoError(t, ui.NewText(&buf).RenderReport(okReport()))
	assert.Contains(t, buf.String(), "1 steps done in 1s\n")
}

func TestTextRenderer_RenderPlan(t *testing.T) {
	rec, err := recipe.Parse([]byte(`
name = "plan"
source = "src"
template = "app"

[[steps]]
copy = "a.rb"

[[steps]]
run = "echo hi"
`), recipe.FormatTOML)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ui.NewText(&buf).RenderPlan(rec))
	assert.Equal(t, "Recipe: plan\n   1. copy a.rb to a.rb\n   2. run echo hi\n", buf.String())
}

func TestTerminalRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := ui.NewTerminal(&buf, styles.NoTTYStyle)
	require.NoError(t, err)

	require.NoError(t, r.RenderReport(okReport()))
	assert.Contains(t, buf.String(), "demo")
	assert.Contains(t, buf.String(), "done")

	buf.Reset()
	require.NoError(t, r.RenderReport(failedReport()))
	assert.Contains(t, buf.String(), "failed, changes rolled back")

	buf.Reset()
	require.NoError(t, r.RenderError(errors.New(errors.ErrInternal, "kaput").WithDetail("path", "lib/a.rb")))
	assert.Contains(t, buf.String(), "kaput")
	assert.Contains(t, buf.String(), "path: lib/a.rb")
}

func TestRenderError_Details(t *testing.T) {
	err := errors.New(errors.ErrStepFailed, "step 2 failed").WithDetails(map[string]interface{}{
		"step":   2,
		"action": "patch",
	})

	var buf bytes.Buffer
	require.NoError(t, ui.NewText(&buf).RenderError(err))
	assert.Equal(t, "Error: [STEP_FAILED] step 2 failed\n  action: patch\n  step: 2\n", buf.String())

	buf.Reset()
	require.NoError(t, ui.NewMarkdown(&buf).RenderError(err))
	assert.Equal(t, "**Error:** `[STEP_FAILED] step 2 failed`\n- action: patch\n- step: 2\n", buf.String())

	buf.Reset()
	require.NoError(t, ui.NewText(&buf).RenderError(fmt.Errorf("no command specified")))
	assert.Equal(t, "Error: no command specified\n", buf.String())
}

func TestNewTerminal_UnknownStyle(t *testing.T) {
	_, err := ui.NewTerminal(&bytes.Buffer{}, "no-such-style")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInternal))
}

//go:build !windows

package reciper

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fixture struct {
	dir        string
	recipePath string
	configPath string
	workRoot   string
}

// newFixture lays out a recipe with its source files and template app, and
// a config file that provisions working copies under the fixture dir.
func newFixture(t *testing.T, steps string) fixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))

	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	write("src/greeting.rb", "def greeting\n  'hi'\nend\n")
	write("src/snippet.rb", "require 'greeting'\n")
	write("app/app.rb", "puts 1\nputs 2\n")
	write("recipe.toml", "name = \"Add Greeting\"\nsource = \"src\"\ntemplate = \"app\"\n"+steps)
	write("config.toml", "[workspace]\nbase_dir = \""+filepath.Join(dir, "work")+"\"\n")

	return fixture{
		dir:        dir,
		recipePath: filepath.Join(dir, "recipe.toml"),
		configPath: filepath.Join(dir, "config.toml"),
		workRoot:   filepath.Join(dir, "work", "add_greeting"),
	}
}

const goodSteps = `
[[steps]]
copy = "greeting.rb"
to = "lib"

[[steps]]
patch = "snippet.rb"
target = "app.rb"
insert_at_line = 1

[[steps]]
run = "test -f lib/greeting.rb"
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCmd_Success(t *testing.T) {
	fx := newFixture(t, goodSteps)

	out, err := execute(t, "run", fx.recipePath, "--config", fx.configPath, "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "Recipe: Add Greeting")
	assert.Contains(t, out, "3 steps done")
	assert.FileExists(t, filepath.Join(fx.workRoot, "lib", "greeting.rb"))

	patched, err := os.ReadFile(filepath.Join(fx.workRoot, "app.rb"))
	require.NoError(t, err)
	assert.Contains(t, string(patched), "require 'greeting'")

	// the template itself is untouched
	original, err := os.ReadFile(filepath.Join(fx.dir, "app", "app.rb"))
	require.NoError(t, err)
	assert.Equal(t, "puts 1\nputs 2\n", string(original))
}

func TestRunCmd_RollbackFlag(t *testing.T) {
	fx := newFixture(t, goodSteps)

	out, err := execute(t, "run", fx.recipePath, "--config", fx.configPath, "--format", "text", "--rollback")
	require.NoError(t, err)
	assert.Contains(t, out, "Working copy rolled back.")

	assert.NoDirExists(t, filepath.Join(fx.workRoot, "lib"))
	patched, err := os.ReadFile(filepath.Join(fx.workRoot, "app.rb"))
	require.NoError(t, err)
	assert.Equal(t, "puts 1\nputs 2\n", string(patched))
}

func TestRunCmd_FailureRollsBack(t *testing.T) {
	fx := newFixture(t, goodSteps+`
[[steps]]
run = "exit 3"

[[steps]]
copy = "snippet.rb"
`)

	out, err := execute(t, "run", fx.recipePath, "--config", fx.configPath, "--format", "text")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStepFailed))
	assert.Equal(t, ExitStepFailed, ExitCode(err))

	assert.Contains(t, out, "[failed]")
	assert.Contains(t, out, "[skipped]")
	assert.Contains(t, out, "Working copy rolled back.")
	assert.NoFileExists(t, filepath.Join(fx.workRoot, "lib", "greeting.rb"))
	assert.NoFileExists(t, filepath.Join(fx.workRoot, "snippet.rb"))
}

func TestRunCmd_KeepWritesJournal(t *testing.T) {
	fx := newFixture(t, goodSteps+`
[[steps]]
run = "false"
`)
	journalPath := filepath.Join(fx.dir, "journal.yaml")

	_, err := execute(t, "run", fx.recipePath, "--config", fx.configPath, "--format", "text",
		"--keep", "--journal", journalPath)
	require.Error(t, err)

	assert.FileExists(t, filepath.Join(fx.workRoot, "lib", "greeting.rb"))

	data, err := os.ReadFile(journalPath)
	require.NoError(t, err)
	var doc struct {
		Records []struct {
			Seq  int    `yaml:"seq"`
			Kind string `yaml:"kind"`
		} `yaml:"records"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.Len(t, doc.Records, 4)
	assert.Equal(t, "copy_file", doc.Records[0].Kind)
	assert.Equal(t, "line_range_patch", doc.Records[1].Kind)
	assert.Equal(t, "run_command", doc.Records[3].Kind)
}

func TestRunCmd_Workdir(t *testing.T) {
	fx := newFixture(t, goodSteps)
	workdir := filepath.Join(fx.dir, "checkout")
	require.NoError(t, os.MkdirAll(workdir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(workdir, "app.rb"), []byte("x\n"), 0644))

	_, err := execute(t, "run", fx.recipePath, "--config", fx.configPath, "--format", "text", "--workdir", workdir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(workdir, "lib", "greeting.rb"))
	assert.NoDirExists(t, fx.workRoot)
}

func TestRunCmd_Errors(t *testing.T) {
	fx := newFixture(t, goodSteps)

	_, err := execute(t, "run", filepath.Join(fx.dir, "missing.toml"), "--config", fx.configPath)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRecipeLoad))

	_, err = execute(t, "run", fx.recipePath, "--config", fx.configPath, "--format", "json")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = execute(t, "run", fx.recipePath, "--rollback", "--keep")
	assert.Error(t, err)
}

func TestRunCmd_SetOverridesConfig(t *testing.T) {
	fx := newFixture(t, goodSteps)
	other := filepath.Join(fx.dir, "elsewhere")

	_, err := execute(t, "run", fx.recipePath, "--config", fx.configPath, "--format", "text",
		"--set", "workspace.base_dir="+other)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(other, "add_greeting", "lib", "greeting.rb"))

	_, err = execute(t, "run", fx.recipePath, "--set", "nonsense")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestRunRecipe_CancelledContext(t *testing.T) {
	fx := newFixture(t, goodSteps)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := RunRecipe(ctx, fx.recipePath, RunOptions{ConfigFile: fx.configPath}, &bytes.Buffer{})
	require.Error(t, err)
	require.NotNil(t, report)
	assert.NotNil(t, report.Failed())
}

func TestValidateCmd(t *testing.T) {
	fx := newFixture(t, goodSteps)

	out, err := execute(t, "validate", fx.recipePath, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "1. copy greeting.rb to lib/greeting.rb")
	assert.Contains(t, out, "is valid")

	require.NoError(t, os.RemoveAll(filepath.Join(fx.dir, "app")))
	_, err = execute(t, "validate", fx.recipePath)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRecipeInvalid))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reciper dev")
}

func TestCompletionCmd(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "reciper")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestRootCmd_NoSubcommand(t *testing.T) {
	_, err := execute(t)
	assert.Error(t, err)
}

package recipe

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/logging"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a recipe file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.Newf(errors.ErrRecipeLoad, "unsupported recipe file extension: %s", path)
	}
}

// Action is what a step does.
type Action string

const (
	ActionCopy     Action = "copy"
	ActionOverride Action = "override"
	ActionPatch    Action = "patch"
	ActionRun      Action = "run"
	ActionTask     Action = "task"
	ActionTests    Action = "tests"
)

// Step is one entry of a recipe. Exactly one of the action fields is set;
// the remaining fields qualify it.
type Step struct {
	Copy     string `toml:"copy" yaml:"copy"`
	Override string `toml:"override" yaml:"override"`
	Patch    string `toml:"patch" yaml:"patch"`
	Run      string `toml:"run" yaml:"run"`
	Task     string `toml:"task" yaml:"task"`
	Tests    bool   `toml:"tests" yaml:"tests"`

	// copy
	To string `toml:"to" yaml:"to"`
	As string `toml:"as" yaml:"as"`

	// override, patch
	Target string `toml:"target" yaml:"target"`

	// patch
	InsertAtLine *int  `toml:"insert_at_line" yaml:"insert_at_line"`
	Lines        []int `toml:"lines" yaml:"lines"`

	// run, task
	Rollback     string `toml:"rollback" yaml:"rollback"`
	AllowFailure bool   `toml:"allow_failure" yaml:"allow_failure"`

	// tests; nil means no failures are expected
	ExpectFailures *int `toml:"expect_failures" yaml:"expect_failures"`
}

// Action returns the step's action, or an error when it names none or
// several.
func (s Step) Action() (Action, error) {
	var found []Action
	if s.Copy != "" {
		found = append(found, ActionCopy)
	}
	if s.Override != "" {
		found = append(found, ActionOverride)
	}
	if s.Patch != "" {
		found = append(found, ActionPatch)
	}
	if s.Run != "" {
		found = append(found, ActionRun)
	}
	if s.Task != "" {
		found = append(found, ActionTask)
	}
	if s.Tests {
		found = append(found, ActionTests)
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", errors.New(errors.ErrRecipeInvalid, "step has no action")
	default:
		return "", errors.Newf(errors.ErrRecipeInvalid, "step has several actions: %v", found)
	}
}

// Describe returns a one line summary for reports.
func (s Step) Describe() string {
	action, err := s.Action()
	if err != nil {
		return "invalid step"
	}
	switch action {
	case ActionCopy:
		dest := s.As
		if dest == "" {
			dest = filepath.Base(s.Copy)
		}
		if s.To != "" {
			dest = filepath.Join(s.To, dest)
		}
		return fmt.Sprintf("copy %s to %s", s.Copy, dest)
	case ActionOverride:
		return fmt.Sprintf("override %s with %s", s.Target, s.Override)
	case ActionPatch:
		if s.InsertAtLine == nil {
			return fmt.Sprintf("patch %s with %s", s.Target, s.Patch)
		}
		return fmt.Sprintf("patch %s at line %d with %s", s.Target, *s.InsertAtLine, s.Patch)
	case ActionRun:
		return "run " + s.Run
	case ActionTask:
		return "task " + s.Task
	default:
		return "run tests"
	}
}

// LineRange converts Lines into a range, nil when unset.
func (s Step) LineRange() *LineRange {
	if len(s.Lines) != 2 {
		return nil
	}
	return &LineRange{Start: s.Lines[0], End: s.Lines[1]}
}

func (s Step) validate() error {
	action, err := s.Action()
	if err != nil {
		return err
	}

	switch action {
	case ActionOverride, ActionPatch:
		if s.Target == "" {
			return errors.Newf(errors.ErrRecipeInvalid, "%s step needs a target", action)
		}
	}

	if action == ActionPatch && s.InsertAtLine == nil {
		return errors.New(errors.ErrRecipeInvalid, "patch step needs insert_at_line")
	}
	if action != ActionPatch && (s.InsertAtLine != nil || len(s.Lines) > 0) {
		return errors.Newf(errors.ErrRecipeInvalid, "insert_at_line and lines only apply to patch steps")
	}
	if action != ActionCopy && (s.To != "" || s.As != "") {
		return errors.Newf(errors.ErrRecipeInvalid, "to and as only apply to copy steps")
	}
	if action != ActionRun && action != ActionTask && (s.Rollback != "" || s.AllowFailure) {
		return errors.Newf(errors.ErrRecipeInvalid, "rollback and allow_failure only apply to run and task steps")
	}
	if action != ActionTests && s.ExpectFailures != nil {
		return errors.Newf(errors.ErrRecipeInvalid, "expect_failures only applies to tests steps")
	}

	if len(s.Lines) > 0 {
		if len(s.Lines) != 2 {
			return errors.Newf(errors.ErrRecipeInvalid, "lines must be [start, end], got %v", s.Lines)
		}
		if s.Lines[0] < 1 || s.Lines[1] < s.Lines[0] {
			return errors.Newf(errors.ErrRecipeInvalid, "invalid line range %v", s.Lines)
		}
	}
	if s.ExpectFailures != nil && *s.ExpectFailures < 0 {
		return errors.New(errors.ErrRecipeInvalid, "expect_failures cannot be negative")
	}
	return nil
}

// Recipe is a parsed recipe file.
type Recipe struct {
	Name string `toml:"name" yaml:"name"`
	// Source is the directory holding the files steps copy from, relative to
	// the recipe file. Defaults to the recipe file's directory.
	Source string `toml:"source" yaml:"source"`
	// Template is the app the working copy starts from, relative to the
	// recipe file. Empty starts from an empty working copy.
	Template string `toml:"template" yaml:"template"`
	Steps    []Step `toml:"steps" yaml:"steps"`

	// Path is where the recipe was loaded from, if anywhere.
	Path string `toml:"-" yaml:"-"`
}

// Validate checks the recipe and every step.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New(errors.ErrRecipeInvalid, "recipe needs a name")
	}
	if len(r.Steps) == 0 {
		return errors.New(errors.ErrRecipeInvalid, "recipe has no steps")
	}
	for i, step := range r.Steps {
		if err := step.validate(); err != nil {
			return errors.Wrapf(err, errors.ErrRecipeInvalid, "step %d", i+1).
				WithDetail("step", i+1)
		}
	}
	return nil
}

// SourceDir returns the absolute source directory.
func (r *Recipe) SourceDir() string {
	return r.resolve(r.Source)
}

// TemplateDir returns the absolute template directory, or "" when the
// recipe has none.
func (r *Recipe) TemplateDir() string {
	if r.Template == "" {
		return ""
	}
	return r.resolve(r.Template)
}

func (r *Recipe) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	base := "."
	if r.Path != "" {
		base = filepath.Dir(r.Path)
	}
	abs, err := filepath.Abs(filepath.Join(base, p))
	if err != nil {
		return filepath.Join(base, p)
	}
	return abs
}

// Parse decodes and validates a recipe. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Recipe, error) {
	var r Recipe

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&r); err != nil {
			return nil, errors.Wrap(err, errors.ErrRecipeInvalid, "failed to parse TOML recipe")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil {
			return nil, errors.Wrap(err, errors.ErrRecipeInvalid, "failed to parse YAML recipe")
		}
	default:
		return nil, errors.Newf(errors.ErrRecipeLoad, "unknown recipe format %q", format)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Load reads, parses and validates the recipe file at path.
func Load(path string) (*Recipe, error) {
	logger := logging.GetLogger("recipe").With().Str("path", path).Logger()

	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRecipeLoad, "failed to read recipe %s", path)
	}

	r, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	r.Path = path

	logger.Debug().
		Str("name", r.Name).
		Int("steps", len(r.Steps)).
		Msg("Recipe loaded")

	return r, nil
}

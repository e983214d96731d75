package config

import (
	"strings"
	"time"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/logging"
)

// Commands configures how command lines are executed.
type Commands struct {
	Shell   string        `koanf:"shell"`
	Timeout time.Duration `koanf:"timeout"`
	Env     []string      `koanf:"env"`
}

// Tests configures the test suite invocation.
type Tests struct {
	Command string `koanf:"command"`
}

// Tasks configures named task runs.
type Tasks struct {
	// Prefix is prepended to the task name, "bundle exec rake" by default.
	Prefix string `koanf:"prefix"`
}

// Backup configures where override backups go.
type Backup struct {
	Dir string `koanf:"dir"`
}

// Workspace configures working copy provisioning.
type Workspace struct {
	BaseDir string `koanf:"base_dir"`
}

// Run configures recipe execution.
type Run struct {
	RollbackOnFailure bool `koanf:"rollback_on_failure"`
}

// Config is the complete reciper configuration.
type Config struct {
	Commands  Commands  `koanf:"commands"`
	Tests     Tests     `koanf:"tests"`
	Tasks     Tasks     `koanf:"tasks"`
	Backup    Backup    `koanf:"backup"`
	Workspace Workspace `koanf:"workspace"`
	Run       Run       `koanf:"run"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := load(LoadOptions{SkipUserConfig: true, SkipProjectConfig: true, SkipEnv: true})
	logging.Must(err, "Embedded config defaults are invalid")
	return cfg
}

// Validate checks values that would make every run fail.
func (c *Config) Validate() error {
	if len(strings.Fields(c.Commands.Shell)) == 0 {
		return errors.New(errors.ErrConfigParse, "commands.shell cannot be empty")
	}
	if c.Commands.Timeout < 0 {
		return errors.Newf(errors.ErrConfigParse, "commands.timeout cannot be negative: %s", c.Commands.Timeout)
	}
	if strings.TrimSpace(c.Tests.Command) == "" {
		return errors.New(errors.ErrConfigParse, "tests.command cannot be empty")
	}
	for _, kv := range c.Commands.Env {
		if !strings.Contains(kv, "=") {
			return errors.Newf(errors.ErrConfigParse, "commands.env entry %q is not KEY=VALUE", kv)
		}
	}
	return nil
}

// TaskCommand returns the command line that runs task.
func (c *Config) TaskCommand(task string) string {
	if c.Tasks.Prefix == "" {
		return task
	}
	return c.Tasks.Prefix + " " + task
}

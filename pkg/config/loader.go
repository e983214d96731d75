package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/logging"
	"github.com/arthur-debert/reciper/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "RECIPER_"
	projectConfigFile = ".reciper.toml"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("not implemented")
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// ProjectDir is searched for .reciper.toml. Empty means the current
	// directory.
	ProjectDir string
	// File is an explicit config file, loaded after the project file. It must
	// exist.
	File string

	// Overrides are dotted keys (commands.timeout) applied last.
	Overrides map[string]interface{}

	SkipUserConfig    bool
	SkipProjectConfig bool
	SkipEnv           bool
}

// Load builds the configuration from every source in opts and validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg, err := load(opts)
	if err != nil {
		return nil, err
	}
	base := opts.ProjectDir
	if base == "" {
		base = "."
	}
	if err := cfg.resolveDirs(base); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User config, then project config, if present
	var optional []string
	if !opts.SkipUserConfig {
		optional = append(optional, UserConfigPath())
	}
	if !opts.SkipProjectConfig {
		projectDir := opts.ProjectDir
		if projectDir == "" {
			projectDir = "."
		}
		optional = append(optional, filepath.Join(projectDir, projectConfigFile))
	}

	for _, path := range optional {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 3. Explicit file
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file not found: %s", opts.File)
		}
		if err := loadFile(k, opts.File); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", opts.File).Msg("Loaded config file")
	}

	// 4. Env vars: RECIPER_WORKSPACE_BASE_DIR -> workspace.base_dir
	if !opts.SkipEnv {
		err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
			return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
		}), nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
		}
	}

	// 5. Overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	// 6. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
			WithDetail("path", path)
	}
	return nil
}

// resolveDirs expands ~ in directory settings and anchors relative ones at
// base. An empty backup.dir stays empty.
func (c *Config) resolveDirs(base string) error {
	for key, dir := range map[string]*string{
		"workspace.base_dir": &c.Workspace.BaseDir,
		"backup.dir":         &c.Backup.Dir,
	} {
		if *dir == "" {
			continue
		}
		p := paths.ExpandHome(*dir)
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		abs, err := paths.Absolute(p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrConfigParse, "invalid %s", key).WithDetail(key, *dir)
		}
		*dir = abs
	}
	return nil
}

// ParseOverrides turns key=value pairs into Overrides.
func ParseOverrides(pairs []string) (map[string]interface{}, error) {
	overrides := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, "override must be key=value, got %q", pair).
				WithDetail("override", pair)
		}
		overrides[key] = strings.TrimSpace(value)
	}
	return overrides, nil
}

// UserConfigPath returns $XDG_CONFIG_HOME/reciper/config.toml.
func UserConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	return filepath.Join(configHome, logging.AppName, "config.toml")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
	"github.com/dshills/keybind/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by NewViper.
const EnvPrefix = "KEYBIND"

// FileName is the config file name without extension.
const FileName = "keybind"

// Setting keys.
const (
	KeyDebug      = "debug"
	KeyPlatform   = "platform"
	KeyLogLevel   = "log_level"
	KeyLogFormat  = "log_format"
	KeyKeymaps    = "keymaps"
	KeyKeymapDirs = "keymap_dirs"
	KeyWatch      = "watch"
	KeyDebounce   = "debounce"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings of one keybind session.
type Config struct {
	// Debug enables engine debug logging.
	Debug bool `mapstructure:"debug"`

	// Platform fixes the engine platform ("macos", "windows", "linux").
	// Empty means detect.
	Platform string `mapstructure:"platform"`

	// LogLevel is a zerolog level name.
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `mapstructure:"log_format"`

	// Keymaps lists keymap files to load, in order.
	Keymaps []string `mapstructure:"keymaps"`

	// KeymapDirs lists directories searched for keymap files.
	KeymapDirs []string `mapstructure:"keymap_dirs"`

	// Watch reloads keymaps when their files change.
	Watch bool `mapstructure:"watch"`

	// Debounce is the quiet period before a change triggers a reload.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: logging.FormatConsole,
		Debounce:  100 * time.Millisecond,
	}
}

// NewViper returns a viper instance with defaults, config search paths and
// environment binding set up. Callers bind flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault(KeyDebug, d.Debug)
	v.SetDefault(KeyPlatform, d.Platform)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyKeymaps, []string{})
	v.SetDefault(KeyKeymapDirs, []string{})
	v.SetDefault(KeyWatch, d.Watch)
	v.SetDefault(KeyDebounce, d.Debounce)

	v.SetConfigName(FileName)
	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Dir returns the user config directory for keybind.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, FileName), nil
}

// Load reads the config file, if any, and decodes v into a validated
// Config. A missing file in the search paths is not an error; a missing
// file set explicitly with SetConfigFile is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Platform != "" {
		p, ok := key.ParsePlatform(c.Platform)
		if !ok || !p.IsKnown() {
			errs = append(errs, fmt.Errorf("%w: platform %q must be macos, windows or linux", ErrInvalidConfig, c.Platform))
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce %v is negative", ErrInvalidConfig, c.Debounce))
	}
	for _, dir := range c.KeymapDirs {
		if dir == "" {
			errs = append(errs, fmt.Errorf("%w: empty keymap directory", ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}

// EngineOptions returns the engine options described by c. The host is
// left for the caller to set.
func (c *Config) EngineOptions() input.Options {
	opts := input.Options{Debug: c.Debug}
	if p, ok := key.ParsePlatform(c.Platform); ok && p.IsKnown() {
		opts.Platform = p
	}
	return opts
}

// Logging returns the logging configuration described by c. Debug raises
// the level to debug.
func (c *Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.LogLevel); err == nil {
		lc.Level = level
	}
	if format, err := logging.ParseFormat(c.LogFormat); err == nil {
		lc.Format = format
	}
	if c.Debug && lc.Level > zerolog.DebugLevel {
		lc.Level = zerolog.DebugLevel
	}
	return lc
}

// LoadKeymaps loads the configured keymap files followed by every keymap
// in the configured directories. Files that fail are reported in the joined
// error; the others are still returned.
func (c *Config) LoadKeymaps() ([]*keymap.Keymap, error) {
	loader := keymap.NewLoader()
	for _, dir := range c.KeymapDirs {
		loader.AddSearchPath(dir)
	}

	var (
		result []*keymap.Keymap
		errs   []error
	)
	for _, path := range c.Keymaps {
		km, err := loader.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result = append(result, km)
	}

	fromDirs, err := loader.LoadAll()
	result = append(result, fromDirs...)
	if err != nil {
		errs = append(errs, err)
	}
	return result, errors.Join(errs...)
}

// WatchPaths returns the files and directories a watcher should observe
// for keymap changes.
func (c *Config) WatchPaths() (files, dirs []string) {
	return append([]string(nil), c.Keymaps...), append([]string(nil), c.KeymapDirs...)
}

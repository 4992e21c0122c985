package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Execution contains batch execution settings.
type Execution struct {
	InvocationTimeoutSeconds int    `toml:"invocation_timeout_seconds"`
	PassLogDir               string `toml:"pass_log_dir"`
	PresetDir                string `toml:"preset_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Events contains progress event buffer settings.
type Events struct {
	History int `toml:"history"`
}

// Runtime holds settings that are not user preferences.
type Runtime struct {
	Execution Execution `toml:"execution"`
	Logging   Logging   `toml:"logging"`
	Events    Events    `toml:"events"`
}

// DefaultRuntime returns the built-in runtime settings.
func DefaultRuntime() Runtime {
	return Runtime{
		Execution: Execution{
			InvocationTimeoutSeconds: 3600,
			PassLogDir:               defaultPassLogDir(),
			PresetDir:                defaultPresetDir(),
		},
		Logging: Logging{
			Level:  "info",
			Format: "",
		},
		Events: Events{History: 1000},
	}
}

// LoadRuntime decodes path over the defaults. An empty path selects the
// default location; a missing file is not an error. The boolean reports
// whether a file was read.
func LoadRuntime(path string) (Runtime, bool, error) {
	cfg := DefaultRuntime()
	if strings.TrimSpace(path) == "" {
		path = DefaultRuntimePath()
	}

	exists := false
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Runtime{}, false, fmt.Errorf("parse config %s: %w", path, err)
		}
		exists = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Runtime{}, false, fmt.Errorf("open config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return Runtime{}, false, err
	}
	if err := cfg.Validate(); err != nil {
		return Runtime{}, false, err
	}
	return cfg, exists, nil
}

// InvocationTimeout returns the per-invocation limit as a duration.
func (c Runtime) InvocationTimeout() time.Duration {
	return time.Duration(c.Execution.InvocationTimeoutSeconds) * time.Second
}

func (c *Runtime) normalize() error {
	var err error
	if strings.TrimSpace(c.Execution.PassLogDir) == "" {
		c.Execution.PassLogDir = defaultPassLogDir()
	}
	if c.Execution.PassLogDir, err = expandPath(c.Execution.PassLogDir); err != nil {
		return fmt.Errorf("execution.pass_log_dir: %w", err)
	}
	if strings.TrimSpace(c.Execution.PresetDir) == "" {
		c.Execution.PresetDir = defaultPresetDir()
	}
	if c.Execution.PresetDir, err = expandPath(c.Execution.PresetDir); err != nil {
		return fmt.Errorf("execution.preset_dir: %w", err)
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Events.History == 0 {
		c.Events.History = 1000
	}
	return nil
}

// Validate ensures the runtime configuration is usable.
func (c Runtime) Validate() error {
	if c.Execution.InvocationTimeoutSeconds <= 0 {
		return errors.New("execution.invocation_timeout_seconds must be positive")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not recognised", c.Logging.Level)
	}
	if c.Events.History < 0 {
		return errors.New("events.history must not be negative")
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// Package config loads YAML configuration and layers environment overrides
// on top of it.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/ports"
)

// FileLoader loads configuration from ./config.yaml, overridable via an
// explicit path or GOALRUN_CONFIG. A missing file yields pure defaults; use
// the config init command to scaffold one.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return applyEnvOverrides(domain.DefaultConfig()), nil
		}
		return domain.Config{}, &ConfigError{Path: path, Err: err}
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, &ConfigError{Path: path, Err: err}
	}

	return applyEnvOverrides(hydrateDefaults(cfg)), nil
}

// Path reports the file location the loader reads from.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("GOALRUN_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return "config.yaml"
}

// Validate checks the settings a run cannot start without. Loading stays
// permissive so commands like check and config show work without credentials.
func Validate(cfg domain.Config) error {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return &ConfigError{Err: errors.New("OPENAI_API_KEY is not set")}
	}
	if cfg.Model == "" {
		return &ConfigError{Err: errors.New("model is empty")}
	}
	if cfg.MaxSteps <= 0 {
		return &ConfigError{Err: errors.New("max_steps must be positive")}
	}
	return nil
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	def := domain.DefaultConfig()
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = def.MaxSteps
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = def.TimeoutSeconds
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	// nil means the key was absent; an explicit empty list disables the filter.
	if cfg.DangerousCommands == nil {
		cfg.DangerousCommands = domain.DefaultDangerousCommands()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.APIBase == "" {
		cfg.APIBase = def.APIBase
	}
	if cfg.LogDir == "" {
		cfg.LogDir = def.LogDir
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	return cfg
}

func applyEnvOverrides(cfg domain.Config) domain.Config {
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.Model = model
	}
	if base := os.Getenv("OPENAI_API_BASE"); base != "" {
		cfg.APIBase = base
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.ConfigProvider = (*FileLoader)(nil)

// Package config loads the appforge.yaml project file: the build request,
// an optional explicit project layout, backend settings, and server
// settings.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/appforge/internal/backend"
	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
	"github.com/felixgeelhaar/appforge/internal/plan"
	"github.com/felixgeelhaar/appforge/internal/server"
)

// DefaultFilename is the conventional project file name.
const DefaultFilename = "appforge.yaml"

// LogSettings configures logging from the project file.
type LogSettings struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Config is the full appforge.yaml shape.
type Config struct {
	// Request is the build request sent through the pipeline.
	Request pipeline.Request `yaml:"request"`

	// Project, when present, is the explicit project layout. It bypasses
	// the analysis phase entirely.
	Project *plan.ProjectConfig `yaml:"project,omitempty"`

	// Backends lists the configured generation backends. The first entry
	// is the default.
	Backends []backend.Config `yaml:"backends,omitempty"`

	// Server configures 'appforge serve'.
	Server server.Config `yaml:"server,omitempty"`

	// Log configures logging for all commands.
	Log LogSettings `yaml:"log,omitempty"`
}

// Load reads and parses a project file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path).
				WithSuggestion("Run 'appforge init' to create a project file")
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read "+path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewFileUnmarshalError(path, "YAML", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded file for the problems a run would hit later.
func (c *Config) Validate() error {
	if c.Request.ProjectName == "" {
		return errors.New(errors.ErrCodeTaskConfigMissing, "request.project_name is required").
			WithSuggestion("Set request.project_name in " + DefaultFilename)
	}
	for _, b := range c.Backends {
		if b.Provider == "" {
			return errors.New(errors.ErrCodeBackendConfig, "backend entry is missing a provider").
				WithSuggestion(`Use provider: "anthropic" or "openai"`)
		}
	}
	return nil
}

// Save writes the configuration to a file, used by 'appforge init'.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileUnmarshal, "marshal configuration", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileReadFailed, "write "+path, err)
	}
	return nil
}

// DefaultBackend returns the first configured backend, or an
// Anthropic-from-environment fallback when the file configures none.
func (c *Config) DefaultBackend() backend.Config {
	if len(c.Backends) > 0 {
		return c.Backends[0]
	}
	return backend.Config{Provider: backend.ProviderAnthropic}
}

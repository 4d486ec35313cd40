// Package config loads the optional .tcrc.yaml project file: toggles
// for the optimization pipeline and the REPL's prompt strings.
// Grounded on funvibe-funxy's internal/ext/config.go (LoadConfig /
// ParseConfig / FindConfig over gopkg.in/yaml.v3), trimmed to this
// tool's much smaller surface.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file searched for by Find.
const FileName = ".tcrc.yaml"

// Config controls pipeline and REPL defaults. Every field has a
// meaningful zero value so a missing or empty file behaves exactly
// like Default().
type Config struct {
	// Optimize toggles the redundancy/DAG/algebraic passes. Defaults
	// to true (spec §6: file mode "runs with optimizations enabled").
	Optimize *bool `yaml:"optimize,omitempty"`

	// Prompt is the REPL's primary prompt, default "calc> ".
	Prompt string `yaml:"prompt,omitempty"`

	// ContinuationPrompt is the REPL's line-continuation prompt,
	// default "... ".
	ContinuationPrompt string `yaml:"continuation_prompt,omitempty"`
}

// Default returns the configuration used when no .tcrc.yaml is found.
func Default() *Config {
	opt := true
	return &Config{
		Optimize:           &opt,
		Prompt:             "calc> ",
		ContinuationPrompt: "... ",
	}
}

// OptimizeEnabled reports whether the optimization pipeline should
// run, honoring an unset field as enabled.
func (c *Config) OptimizeEnabled() bool {
	return c.Optimize == nil || *c.Optimize
}

// Load reads and parses a .tcrc.yaml file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses .tcrc.yaml content from bytes, filling in defaults for
// any field the file omits.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "calc> "
	}
	if cfg.ContinuationPrompt == "" {
		cfg.ContinuationPrompt = "... "
	}
	return cfg, nil
}

// Find searches for .tcrc.yaml starting from dir and walking up to
// parent directories. It returns an empty path and nil error if none
// is found, rather than an error — the caller falls back to Default().
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Resolve finds and loads a .tcrc.yaml starting from dir, returning
// Default() if none exists.
func Resolve(dir string) (*Config, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

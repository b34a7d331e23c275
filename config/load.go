package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Env overrides applied after the file is read, so secrets can stay out of
// config files entirely.
const (
	EnvAPIKey  = "LLM_API_KEY"
	EnvBaseURL = "LLM_BASE_URL"
)

// Config is the root of the YAML config file.
//
//	llm:
//	  api_type: github_copilot
//	  model: gpt-4o
//	  timeout: 10m
type Config struct {
	LLM LLMConfig `yaml:"llm"`
}

// Load reads and validates the config file at path. Defaults are applied
// first, then the file, then environment overrides, so each layer only has
// to state what it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the caller, not untrusted input
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes raw YAML config bytes. Split out from Load so tests and
// embedders can feed config without touching the filesystem.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{LLM: Default()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg.LLM)

	if err := cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDefault looks for a config file in the conventional locations:
// ./config.yaml, then $HOME/.modelmux/config.yaml.
func LoadDefault() (*Config, error) {
	paths := []string{"config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".modelmux", "config.yaml"))
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return nil, fmt.Errorf("no config file found (looked for %s)", strings.Join(paths, ", "))
}

func applyEnvOverrides(c *LLMConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
}

// Package config loads samvad settings from a YAML file, an optional
// .env file, and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sonnes/samvad/core"
)

// EnvAPIKey names the environment variable holding the API credential.
const EnvAPIKey = "DEEPSEEK_API_KEY"

// ErrMissingAPIKey aborts startup when no credential is present. The
// key is read from the environment only and never lives in the YAML
// file.
var ErrMissingAPIKey = errors.New(EnvAPIKey + " is not set")

// DefaultFile is the transcript file watched when none is configured.
const DefaultFile = "chat.md"

// DefaultDebounceMS is the gap below which change events are dropped.
const DefaultDebounceMS = 50

// Config holds the tunable settings for the watch loop.
type Config struct {
	// File is the transcript file to watch.
	File string `yaml:"file"`
	// Model is the completion model identifier.
	Model string `yaml:"model"`
	// BaseURL is the chat-completions endpoint base URL.
	BaseURL string `yaml:"base_url"`
	// MaxContext caps the conversation window sent per request.
	MaxContext int `yaml:"max_context"`
	// DebounceMS is the event debounce interval in milliseconds.
	DebounceMS int `yaml:"debounce_ms"`

	// APIKey comes from the environment, never from YAML.
	APIKey string `yaml:"-"`
}

// Load assembles the configuration: defaults first, then the YAML file
// at path, then a .env in the working directory, then the process
// environment for the credential. An empty path falls back to
// samvad.yaml in the working directory or the user config directory;
// a missing file is only an error when the path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := &Config{
		File:       DefaultFile,
		MaxContext: core.MaxContextMessages,
		DebounceMS: DefaultDebounceMS,
	}

	explicit := path != ""
	if path == "" {
		path = defaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// No config file; defaults apply.
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// A local .env is a convenience for the credential; absence is fine.
	_ = godotenv.Load()

	cfg.APIKey = os.Getenv(EnvAPIKey)
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}

// Debounce returns the configured debounce interval as a duration.
func (c *Config) Debounce() time.Duration {
	ms := c.DebounceMS
	if ms <= 0 {
		ms = DefaultDebounceMS
	}
	return time.Duration(ms) * time.Millisecond
}

// defaultPath prefers a samvad.yaml beside the transcript, then the
// per-user config directory.
func defaultPath() string {
	if _, err := os.Stat("samvad.yaml"); err == nil {
		return "samvad.yaml"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "samvad", "config.yaml")
}

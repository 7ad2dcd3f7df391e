// Package config loads upctl settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kumolabai/upctl/pkg/up"
	"gopkg.in/yaml.v3"
)

const (
	EnvToken   = "UP_API_TOKEN"
	EnvBaseURL = "UP_API_BASE_URL"
)

// ErrMissingToken explains where a personal access token comes from.
var ErrMissingToken = errors.New(EnvToken + " environment variable is required. Get your token from the Up app: Data sharing > Personal Access Token")

// HTTPConfig enables the streamable HTTP endpoint instead of stdio. When
// Token is set, callers must present it as a bearer token.
type HTTPConfig struct {
	Addr  string `yaml:"addr"`
	Token string `yaml:"token"`
}

// Config holds everything needed to talk to the Up API and serve tools.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	Token            string        `yaml:"token"`
	Timeout          time.Duration `yaml:"timeout"`
	ValidateRequests bool          `yaml:"validate_requests"`
	HTTP             HTTPConfig    `yaml:"http"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL: up.DefaultBaseURL,
		Timeout: up.DefaultTimeout,
	}
}

// DefaultPath is <UserConfigDir>/upctl/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "upctl", "config.yaml")
}

// Load reads the file at path over the defaults and then applies the
// environment. A missing file is not an error unless path was given
// explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvToken); ok && strings.TrimSpace(v) != "" {
		c.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
}

// Validate reports settings the client cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrMissingToken
	}
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

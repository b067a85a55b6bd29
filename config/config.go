// Package config loads the client configuration from a YAML file with
// environment variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete client configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	State   StateConfig   `yaml:"state"`
	Chat    ChatConfig    `yaml:"chat"`
	Gemini  GeminiConfig  `yaml:"gemini"`
}

// BackendConfig selects and authenticates the remote memory service.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// StateConfig locates the persisted client state.
type StateConfig struct {
	Path string `yaml:"path"`
}

// ChatConfig tunes controller behavior.
type ChatConfig struct {
	// SendTimeout bounds each send request. Zero means no timeout.
	SendTimeout time.Duration `yaml:"-"`
	// NotifyRejections surfaces invalid attachment selections as toasts.
	NotifyRejections bool `yaml:"notify_rejections"`

	SendTimeoutRaw string `yaml:"send_timeout"`
}

// GeminiConfig enables the local development backend.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses a config file. A missing file yields the zero
// Config without error, so the client runs on flags and defaults alone.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if raw := cfg.Chat.SendTimeoutRaw; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse send_timeout: %w", err)
		}
		cfg.Chat.SendTimeout = d
	}

	return &cfg, nil
}

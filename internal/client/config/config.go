// Package config handles configuration for the command-line client.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerURL: base URL of the auth server HTTP API.
//   - Timeout: per-request timeout.
type Config struct {
	ServerURL string
	Timeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.Timeout = 10 * time.Second
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, os.Args[1:]); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}

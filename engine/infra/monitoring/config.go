package monitoring

import (
	"fmt"
	"strings"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
)

// Config holds configuration for monitoring service
type Config struct {
	Enabled bool   `json:"enabled"  yaml:"enabled"  mapstructure:"enabled"`
	Path    string `json:"path"     yaml:"path"     mapstructure:"path"`
	// Textfile receives a snapshot of all metrics after batch runs when set.
	Textfile string `json:"textfile" yaml:"textfile" mapstructure:"textfile"`
}

// DefaultConfig returns default monitoring configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled: false,
		Path:    "/metrics",
	}
}

// ConfigFrom maps application metrics settings onto a monitoring config.
func ConfigFrom(cfg *config.MetricsConfig) *Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	out.Enabled = cfg.Enabled
	out.Textfile = cfg.Textfile
	return out
}

// Validate validates the monitoring configuration
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("monitoring path cannot be empty")
	}
	if c.Path[0] != '/' {
		return fmt.Errorf("monitoring path must start with '/': got %s", c.Path)
	}
	if strings.HasPrefix(c.Path, "/api/") {
		return fmt.Errorf("monitoring path cannot be under /api/")
	}
	if strings.ContainsRune(c.Path, '?') {
		return fmt.Errorf("monitoring path cannot contain query parameters")
	}
	if c.Textfile != "" && !strings.HasSuffix(c.Textfile, ".prom") {
		return fmt.Errorf("monitoring textfile must end in .prom: got %s", c.Textfile)
	}
	return nil
}

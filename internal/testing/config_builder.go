package testing

import (
	"os"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/termsite/internal/config"
)

// ConfigBuilder provides a fluent interface for creating test configurations.
type ConfigBuilder struct {
	config *config.Config
	t      *testing.T
}

// NewConfigBuilder starts from the defaulted configuration.
func NewConfigBuilder(t *testing.T) *ConfigBuilder {
	return &ConfigBuilder{config: config.Default(), t: t}
}

// WithListen sets host and port.
func (cb *ConfigBuilder) WithListen(host string, port int) *ConfigBuilder {
	cb.config.Server.Host = host
	cb.config.Server.Port = port
	return cb
}

// WithPages points at a pages directory and optionally watches it.
func (cb *ConfigBuilder) WithPages(dir string, watch bool) *ConfigBuilder {
	cb.config.Content.PagesDir = dir
	cb.config.Content.Watch = watch
	return cb
}

// WithAssets sets the assets directory.
func (cb *ConfigBuilder) WithAssets(dir string) *ConfigBuilder {
	cb.config.Content.AssetsDir = dir
	return cb
}

// WithPrompt sets the terminal prompt.
func (cb *ConfigBuilder) WithPrompt(prompt string) *ConfigBuilder {
	cb.config.Terminal.Prompt = prompt
	return cb
}

// WithSession sets the session lifetime.
func (cb *ConfigBuilder) WithSession(ttl, sweep time.Duration) *ConfigBuilder {
	cb.config.Session.TTL = ttl
	cb.config.Session.SweepInterval = sweep
	return cb
}

// WithMetrics enables or disables the Prometheus endpoint.
func (cb *ConfigBuilder) WithMetrics(enabled bool) *ConfigBuilder {
	cb.config.Metrics.Enabled = enabled
	return cb
}

// Build returns the built configuration.
func (cb *ConfigBuilder) Build() *config.Config {
	return cb.config
}

// BuildAndSave builds the configuration and saves it to a file.
func (cb *ConfigBuilder) BuildAndSave(filePath string) *config.Config {
	cb.t.Helper()
	data, err := yaml.Marshal(cb.config)
	if err != nil {
		cb.t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filePath, data, testFilePermissions); err != nil {
		cb.t.Fatalf("Failed to save config to %s: %v", filePath, err)
	}
	return cb.config
}

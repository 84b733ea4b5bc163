// Package config loads the termsite YAML configuration.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
)

// Version is the only configuration format version understood.
const Version = "1"

// Config is the root of the configuration file.
type Config struct {
	Version  string         `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Content  ContentConfig  `yaml:"content"`
	Terminal TerminalConfig `yaml:"terminal"`
	Overlay  OverlayConfig  `yaml:"overlay"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ContentConfig points at the pages and the images they reference. Empty
// directories select the built-in content.
type ContentConfig struct {
	PagesDir  string `yaml:"pages_dir"`
	AssetsDir string `yaml:"assets_dir"`
	// AssetsURL is the path prefix image references use.
	AssetsURL string        `yaml:"assets_url"`
	Watch     bool          `yaml:"watch"`
	Debounce  time.Duration `yaml:"debounce"`
}

// TerminalConfig tunes the console.
type TerminalConfig struct {
	Prompt    string        `yaml:"prompt"`
	Banner    string        `yaml:"banner"`
	SayDelay  time.Duration `yaml:"say_delay"`
	WrapWidth int           `yaml:"wrap_width"`
}

// OverlayConfig tunes the image overlay.
type OverlayConfig struct {
	TeardownDelay time.Duration `yaml:"teardown_delay"`
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	CookieName    string        `yaml:"cookie_name"`
	SecureCookie  bool          `yaml:"secure_cookie"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: Version}
	applyDefaults(cfg)
	return cfg
}

// Load reads, expands, defaults and validates the configuration at path.
// Variables from .env files are loaded first without overriding the process
// environment, then ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read configuration file").
			WithContext("path", path).
			Build()
	}
	return Parse(data)
}

// Parse decodes configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse configuration").
			Fatal().
			Build()
	}
	if cfg.Version == "" {
		cfg.Version = Version
	}
	if cfg.Version != Version {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", Version).
			Build()
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Default()
	example.Content.PagesDir = "./pages"
	example.Content.AssetsDir = "./assets"
	example.Content.Watch = true
	example.Metrics.Enabled = true

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal example configuration").Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration file").
			WithContext("path", path).
			Build()
	}
	return nil
}

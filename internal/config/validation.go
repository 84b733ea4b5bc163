package config

import (
	"os"
	"strings"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return invalid("server.port", cfg.Server.Port, "port must be between 1 and 65535")
	}

	durations := map[string]int64{
		"server.read_timeout":     int64(cfg.Server.ReadTimeout),
		"server.write_timeout":    int64(cfg.Server.WriteTimeout),
		"server.idle_timeout":     int64(cfg.Server.IdleTimeout),
		"server.request_timeout":  int64(cfg.Server.RequestTimeout),
		"server.shutdown_timeout": int64(cfg.Server.ShutdownTimeout),
		"content.debounce":        int64(cfg.Content.Debounce),
		"terminal.say_delay":      int64(cfg.Terminal.SayDelay),
		"overlay.teardown_delay":  int64(cfg.Overlay.TeardownDelay),
		"session.ttl":             int64(cfg.Session.TTL),
		"session.sweep_interval":  int64(cfg.Session.SweepInterval),
	}
	for field, d := range durations {
		if d < 0 {
			return invalid(field, d, "duration must not be negative")
		}
	}

	if cfg.Session.SweepInterval > cfg.Session.TTL {
		return invalid("session.sweep_interval", cfg.Session.SweepInterval.String(), "sweep interval must not exceed the session ttl")
	}
	if cfg.Terminal.WrapWidth < 0 {
		return invalid("terminal.wrap_width", cfg.Terminal.WrapWidth, "wrap width must not be negative")
	}
	if strings.ContainsAny(cfg.Session.CookieName, " ;,=") {
		return invalid("session.cookie_name", cfg.Session.CookieName, "cookie name contains reserved characters")
	}
	if !strings.HasPrefix(cfg.Content.AssetsURL, "/") || !strings.HasSuffix(cfg.Content.AssetsURL, "/") {
		return invalid("content.assets_url", cfg.Content.AssetsURL, "assets url must start and end with /")
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return invalid("metrics.path", cfg.Metrics.Path, "metrics path must start with /")
	}

	for field, dir := range map[string]string{
		"content.pages_dir":  cfg.Content.PagesDir,
		"content.assets_dir": cfg.Content.AssetsDir,
	} {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return invalid(field, dir, "directory does not exist")
		}
	}

	if cfg.Content.Watch && cfg.Content.PagesDir == "" {
		return invalid("content.watch", true, "watching requires content.pages_dir")
	}
	return nil
}

func invalid(field string, value any, msg string) error {
	return errors.ConfigError(msg).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}

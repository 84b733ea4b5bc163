package config

import (
	"time"

	"git.home.luguber.info/inful/termsite/internal/console"
	"git.home.luguber.info/inful/termsite/internal/overlay"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/session"
	"git.home.luguber.info/inful/termsite/internal/terminal"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 8080
	DefaultCookieName = "termsite_session"
	DefaultAssetsURL  = "/assets/"
	DefaultMetrics    = "/metrics"
	DefaultWrapWidth  = 80
)

func applyDefaults(cfg *Config) {
	s := &cfg.Server
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	setDuration(&s.ReadTimeout, 15*time.Second)
	setDuration(&s.WriteTimeout, 30*time.Second)
	setDuration(&s.IdleTimeout, 60*time.Second)
	setDuration(&s.RequestTimeout, 10*time.Second)
	setDuration(&s.ShutdownTimeout, 10*time.Second)

	if cfg.Content.AssetsURL == "" {
		cfg.Content.AssetsURL = DefaultAssetsURL
	}
	setDuration(&cfg.Content.Debounce, pages.DefaultDebounce)

	t := &cfg.Terminal
	if t.Prompt == "" {
		t.Prompt = terminal.DefaultPrompt
	}
	if t.Banner == "" {
		t.Banner = console.DefaultBanner
	}
	setDuration(&t.SayDelay, console.DefaultSayDelay)
	if t.WrapWidth == 0 {
		t.WrapWidth = DefaultWrapWidth
	}

	setDuration(&cfg.Overlay.TeardownDelay, overlay.DefaultTeardownDelay)

	setDuration(&cfg.Session.TTL, session.DefaultTTL)
	setDuration(&cfg.Session.SweepInterval, session.DefaultSweepInterval)
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = DefaultCookieName
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetrics
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}

// Package commands implements the termsite command line.
package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/termsite/internal/config"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "termsite.yaml"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"termsite.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text, json)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve      ServeCmd   `cmd:"" help:"Serve the terminal site over HTTP"`
	Render     RenderCmd  `cmd:"" help:"Print a page to this terminal"`
	Check      CheckCmd   `cmd:"" help:"Check pages for image references the terminal cannot show"`
	Init       InitCmd    `cmd:"" help:"Write an example configuration file"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	setupLogging(os.Stderr, level, config.NormalizeLogFormat(c.LogFormat))
	return nil
}

func setupLogging(w io.Writer, level slog.Level, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// applyLoggingConfig lets the configuration file pick the level and format
// unless the command line already did.
func (c *CLI) applyLoggingConfig(cfg *config.Config) {
	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	setupLogging(os.Stderr, level, format)
}

// loadConfig reads the configuration file. A missing file at the default path
// is not an error: the built-in defaults apply.
func (c *CLI) loadConfig() (*config.Config, error) {
	if _, err := os.Stat(c.Config); os.IsNotExist(err) && isDefaultConfigPath(c.Config) {
		slog.Debug("No configuration file, using defaults", slog.String("path", c.Config))
		return config.Default(), nil
	}
	return config.Load(c.Config)
}

func isDefaultConfigPath(p string) bool {
	return filepath.Clean(p) == DefaultConfigPath
}

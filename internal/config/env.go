package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/termsite/internal/logfields"
)

// envFiles are tried in order; the first readable one wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads KEY=VALUE pairs from the first env file found. Variables
// already set in the process environment keep their value.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(name), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(name))
		return
	}
}

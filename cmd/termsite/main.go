package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/termsite/cmd/termsite/commands"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("termsite"),
		kong.Description("A personal website that behaves like a terminal."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	if err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Report(os.Stderr, err))
	}
}

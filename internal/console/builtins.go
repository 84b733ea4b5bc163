package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/pages"
)

// DefaultBanner heads every reply from the simulated server.
const DefaultBanner = "+----------------------------------+\n" +
	"|   termsite :: proto console v0   |\n" +
	"+----------------------------------+"

// DefaultSayDelay is how long the simulated server takes to answer.
const DefaultSayDelay = 150 * time.Millisecond

// SayUsage is the reply to a say command without text.
const SayUsage = "The say command expects some text. Example: say hello, world!"

// BuiltinOptions tunes the built-in commands.
type BuiltinOptions struct {
	Banner   string
	SayDelay time.Duration
	Clock    clockwork.Clock
}

// RegisterBuiltins adds help, say, echo and clear to d.
func RegisterBuiltins(d *Dispatcher, opts BuiltinOptions) error {
	if opts.Banner == "" {
		opts.Banner = DefaultBanner
	}
	if opts.SayDelay <= 0 {
		opts.SayDelay = DefaultSayDelay
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	builtins := []Command{
		{
			Name:        "help",
			Description: "List available commands",
			Run: func(context.Context, Invocation) (Output, error) {
				return Output{Text: Help(d.Commands())}, nil
			},
		},
		{
			Name:        "say",
			Description: "Send a message to the server",
			Usage:       "say <text>",
			Run:         sayCommand(opts),
		},
		{
			Name:        "echo",
			Description: "Print the given text",
			Usage:       "echo <text>",
			Run: func(_ context.Context, inv Invocation) (Output, error) {
				return Output{Text: inv.Text}, nil
			},
		},
		{
			Name:        "clear",
			Description: "Clear the screen",
			Run: func(context.Context, Invocation) (Output, error) {
				return Output{Clear: true}, nil
			},
		},
	}

	for _, cmd := range builtins {
		if err := d.Register(cmd.Name, cmd); err != nil {
			return err
		}
	}
	return nil
}

func sayCommand(opts BuiltinOptions) RunFunc {
	return func(ctx context.Context, inv Invocation) (Output, error) {
		if inv.Text == "" {
			return Output{Text: SayUsage}, nil
		}

		select {
		case <-ctx.Done():
			return Output{}, errors.WrapError(ctx.Err(), errors.CategoryRuntime, "say interrupted").Build()
		case <-opts.Clock.After(opts.SayDelay):
		}

		return Output{Text: opts.Banner + "\n[server] Received: " + inv.Text}, nil
	}
}

// Help formats the command listing.
func Help(cmds []Command) string {
	width := 0
	for _, c := range cmds {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "\n  %-*s  %s", width, c.Name, c.Description)
	}
	return b.String()
}

// PageSource exposes every visible page as a command printing its body.
type PageSource struct {
	Repo *pages.Repository
}

func (s PageSource) Lookup(name string) (Command, bool) {
	p, ok := s.Repo.Lookup(name)
	if !ok || p.Hidden {
		return Command{}, false
	}
	return pageCommand(p), true
}

func (s PageSource) List() []Command {
	visible := s.Repo.Commands()
	out := make([]Command, 0, len(visible))
	for _, p := range visible {
		out = append(out, pageCommand(p))
	}
	return out
}

func pageCommand(p *pages.Page) Command {
	desc := p.Description
	if desc == "" {
		desc = p.Title
	}
	return Command{
		Name:        p.Command,
		Description: desc,
		Run: func(context.Context, Invocation) (Output, error) {
			return Output{Text: p.Body, Page: p.ID}, nil
		},
	}
}

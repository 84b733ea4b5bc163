// Package console interprets the command lines typed into the terminal.
package console

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
)

// Invocation is a parsed command line.
type Invocation struct {
	// Name is the lower-cased first word.
	Name string
	Args []string
	// Text is everything after the name with surrounding space trimmed.
	Text string
}

// Output is what a command prints.
type Output struct {
	Text string
	// Clear asks the terminal to drop its previous output first.
	Clear bool
	// Page names the page that produced the text, if any.
	Page string
}

// RunFunc executes a command.
type RunFunc func(ctx context.Context, inv Invocation) (Output, error)

// Command is a registered console command.
type Command struct {
	Name        string
	Description string
	Usage       string
	Run         RunFunc
}

// Source provides commands that can change at runtime, such as pages.
type Source interface {
	Lookup(name string) (Command, bool)
	List() []Command
}

// Result describes one executed line.
type Result struct {
	Invocation
	Output
	// Known is false when no command matched the name.
	Known bool
}

// Dispatcher routes command lines to registered commands. Registered commands
// take precedence over sources.
type Dispatcher struct {
	mu       sync.RWMutex
	commands map[string]Command
	sources  []Source
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{commands: make(map[string]Command)}
}

// Register adds a command under name.
func (d *Dispatcher) Register(name string, cmd Command) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || strings.ContainsAny(name, " \t") {
		return errors.ValidationError("command name must be a single word").
			WithContext("command", name).
			Build()
	}
	if cmd.Run == nil {
		return errors.ValidationError("command has no run function").
			WithContext("command", name).
			Build()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.commands[name]; exists {
		return errors.AlreadyExistsError("command already registered").
			WithContext("command", name).
			Build()
	}
	cmd.Name = name
	d.commands[name] = cmd
	return nil
}

// AddSource appends a dynamic command source.
func (d *Dispatcher) AddSource(src Source) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sources = append(d.sources, src)
}

// Lookup finds a command by name.
func (d *Dispatcher) Lookup(name string) (Command, bool) {
	name = strings.ToLower(name)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if cmd, ok := d.commands[name]; ok {
		return cmd, true
	}
	for _, src := range d.sources {
		if cmd, ok := src.Lookup(name); ok {
			return cmd, true
		}
	}
	return Command{}, false
}

// Commands lists every reachable command sorted by name. Shadowed source
// commands are left out.
func (d *Dispatcher) Commands() []Command {
	d.mu.RLock()
	seen := make(map[string]bool, len(d.commands))
	out := make([]Command, 0, len(d.commands))
	for name, cmd := range d.commands {
		seen[name] = true
		out = append(out, cmd)
	}
	for _, src := range d.sources {
		for _, cmd := range src.List() {
			if !seen[cmd.Name] {
				seen[cmd.Name] = true
				out = append(out, cmd)
			}
		}
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parse splits a command line. A blank line yields an empty Name.
func Parse(line string) Invocation {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Invocation{}
	}
	return Invocation{
		Name: strings.ToLower(fields[0]),
		Args: fields[1:],
		Text: strings.TrimSpace(line[len(fields[0]):]),
	}
}

// UnknownCommand is the reply for a name nothing is registered under.
func UnknownCommand(name string) string {
	return fmt.Sprintf("Unknown command %q. Try 'help'.", name)
}

// Execute runs line. Unknown commands are not an error: they produce an
// explanatory output with Known set to false.
func (d *Dispatcher) Execute(ctx context.Context, line string) (Result, error) {
	inv := Parse(line)
	if inv.Name == "" {
		return Result{Invocation: inv, Known: true}, nil
	}

	cmd, ok := d.Lookup(inv.Name)
	if !ok {
		return Result{Invocation: inv, Output: Output{Text: UnknownCommand(inv.Name)}}, nil
	}

	out, err := cmd.Run(ctx, inv)
	if err != nil {
		return Result{Invocation: inv, Known: true}, err
	}
	return Result{Invocation: inv, Output: out, Known: true}, nil
}

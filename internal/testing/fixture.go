package testing

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/termsite/internal/console"
	"git.home.luguber.info/inful/termsite/internal/metrics"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/session"
)

// Stack is a console wired the way the server wires it, on a fake clock.
type Stack struct {
	Clock      *clockwork.FakeClock
	Pages      *pages.Repository
	Dispatcher *console.Dispatcher
	Store      *session.Store
}

// StackOption customizes a Stack before it is built.
type StackOption func(*stackConfig)

type stackConfig struct {
	source   fs.FS
	recorder metrics.Recorder
	opts     session.Options
}

// WithPageFiles serves the given file contents instead of the built-in pages.
func WithPageFiles(files map[string]string) StackOption {
	return func(c *stackConfig) { c.source = PagesFS(files) }
}

// WithRecorder records metrics into r.
func WithRecorder(r metrics.Recorder) StackOption {
	return func(c *stackConfig) { c.recorder = r }
}

// WithSessionOptions overrides session options; the clock and recorder are
// always the stack's.
func WithSessionOptions(o session.Options) StackOption {
	return func(c *stackConfig) { c.opts = o }
}

// NewStack builds a Stack and closes its store when the test ends.
func NewStack(t *testing.T, options ...StackOption) *Stack {
	t.Helper()

	c := &stackConfig{source: pages.BuiltinPages(), recorder: metrics.NoopRecorder{}}
	for _, o := range options {
		o(c)
	}

	repo, err := pages.NewRepository(c.source)
	if err != nil {
		t.Fatalf("Failed to load pages: %v", err)
	}

	clock := clockwork.NewFakeClock()
	d := console.NewDispatcher()
	if err := console.RegisterBuiltins(d, console.BuiltinOptions{Clock: clock}); err != nil {
		t.Fatalf("Failed to register builtins: %v", err)
	}
	d.AddSource(console.PageSource{Repo: repo})

	c.opts.Clock = clock
	c.opts.Recorder = c.recorder
	store := session.NewStore(repo, d, c.opts)
	t.Cleanup(store.Close)

	return &Stack{Clock: clock, Pages: repo, Dispatcher: d, Store: store}
}

// PagesFS turns file contents into an in-memory pages tree.
func PagesFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

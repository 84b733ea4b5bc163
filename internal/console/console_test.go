package console

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/pages"
)

func newDispatcher(t *testing.T, clock clockwork.Clock) *Dispatcher {
	t.Helper()
	repo, err := pages.NewRepository(fstest.MapFS{
		"welcome.txt": {Data: []byte("---\nhidden: true\n---\nhello")},
		"about.txt":   {Data: []byte("---\ndescription: About me\n---\nI write Go.")},
		"echo.txt":    {Data: []byte("shadowed by the builtin")},
	})
	require.NoError(t, err)

	d := NewDispatcher()
	require.NoError(t, RegisterBuiltins(d, BuiltinOptions{Clock: clock}))
	d.AddSource(PageSource{Repo: repo})
	return d
}

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Invocation
	}{
		{"", Invocation{}},
		{"   ", Invocation{}},
		{"help", Invocation{Name: "help", Args: []string{}}},
		{"  SAY  hello,   world ", Invocation{Name: "say", Args: []string{"hello,", "world"}, Text: "hello,   world"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.line), tt.line)
	}
}

func TestDispatcher_Register(t *testing.T) {
	d := NewDispatcher()
	run := func(context.Context, Invocation) (Output, error) { return Output{}, nil }

	require.NoError(t, d.Register("Ping", Command{Run: run}))
	cmd, ok := d.Lookup("PING")
	require.True(t, ok)
	assert.Equal(t, "ping", cmd.Name)

	err := d.Register("ping", Command{Run: run})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))

	err = d.Register("two words", Command{Run: run})
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	err = d.Register("norun", Command{})
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())

	res, err := d.Execute(context.Background(), "sudo rm -rf /")
	require.NoError(t, err)
	assert.False(t, res.Known)
	assert.Equal(t, `Unknown command "sudo". Try 'help'.`, res.Output.Text)
}

func TestDispatcher_HiddenPageIsNotACommand(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())

	res, err := d.Execute(context.Background(), "welcome")
	require.NoError(t, err)
	assert.False(t, res.Known)
}

func TestDispatcher_PageCommand(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())

	res, err := d.Execute(context.Background(), "About")
	require.NoError(t, err)
	assert.True(t, res.Known)
	assert.Equal(t, "about", res.Name)
	assert.Equal(t, "I write Go.", res.Output.Text)
	assert.Equal(t, "about", res.Page)
}

func TestDispatcher_BuiltinShadowsPage(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())

	res, err := d.Execute(context.Background(), "echo  hi  there")
	require.NoError(t, err)
	assert.Equal(t, "hi  there", res.Output.Text)
	assert.Empty(t, res.Page)

	count := 0
	for _, c := range d.Commands() {
		if c.Name == "echo" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDispatcher_Help(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())

	res, err := d.Execute(context.Background(), "help")
	require.NoError(t, err)

	lines := strings.Split(res.Output.Text, "\n")
	assert.Equal(t, "Available commands:", lines[0])
	assert.Contains(t, res.Output.Text, "about  About me")
	assert.Contains(t, res.Output.Text, "say")
	assert.NotContains(t, res.Output.Text, "welcome")
}

func TestDispatcher_Clear(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())
	res, err := d.Execute(context.Background(), "clear")
	require.NoError(t, err)
	assert.True(t, res.Clear)
}

func TestDispatcher_BlankLine(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())
	res, err := d.Execute(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, res.Name)
	assert.Empty(t, res.Output.Text)
}

func TestSay_Usage(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())
	res, err := d.Execute(context.Background(), "say   ")
	require.NoError(t, err)
	assert.Equal(t, SayUsage, res.Output.Text)
}

func TestSay_RepliesAfterDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := newDispatcher(t, clock)

	type reply struct {
		res Result
		err error
	}
	done := make(chan reply, 1)
	go func() {
		res, err := d.Execute(context.Background(), "say hello, world")
		done <- reply{res, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	select {
	case <-done:
		t.Fatal("say answered before the delay elapsed")
	default:
	}

	clock.Advance(DefaultSayDelay)
	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, DefaultBanner+"\n[server] Received: hello, world", r.res.Output.Text)
}

func TestSay_HonorsCancellation(t *testing.T) {
	d := newDispatcher(t, clockwork.NewFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Execute(ctx, "say hi")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryRuntime))
}

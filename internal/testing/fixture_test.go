package testing

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/termsite/internal/config"
	"git.home.luguber.info/inful/termsite/internal/session"
)

func TestNewStack_Builtin(t *testing.T) {
	stack := NewStack(t)

	_, welcome, err := stack.Store.Create()
	require.NoError(t, err)
	assert.Equal(t, session.WelcomeContext, welcome.ContextID)
	assert.Positive(t, stack.Pages.Len())
}

func TestNewStack_PageFilesAndOptions(t *testing.T) {
	stack := NewStack(t,
		WithPageFiles(map[string]string{"hello.txt": "hi there"}),
		WithSessionOptions(session.Options{Prompt: "me$"}),
	)

	s, _, err := stack.Store.Create()
	require.NoError(t, err)
	assert.Equal(t, "me$", s.Prompt())

	out, err := s.Run(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello-1", out.ContextID)
	assert.Contains(t, out.HTML, "hi there")
}

func TestConfigBuilder_BuildAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termsite.yaml")
	built := NewConfigBuilder(t).
		WithListen("0.0.0.0", 9000).
		WithPrompt("me>").
		WithSession(time.Hour, time.Minute).
		WithMetrics(true).
		BuildAndSave(path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, built, loaded)
}

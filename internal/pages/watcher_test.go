package pages

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.txt"), []byte("v1"), 0o600))

	repo, err := Open(dir)
	require.NoError(t, err)

	reloaded := make(chan error, 4)
	w, err := NewWatcher(dir, repo, WithDebounce(20*time.Millisecond), OnReload(func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.txt"), []byte("v2"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cv.txt"), []byte("cv"), 0o600))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pages were not reloaded")
	}

	require.Eventually(t, func() bool {
		p, err := repo.Get("about")
		return err == nil && p.Body == "v2" && repo.Len() == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := Open(dir)
	require.NoError(t, err)

	reloaded := make(chan error, 1)
	w, err := NewWatcher(dir, repo, WithDebounce(10*time.Millisecond), OnReload(func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	}))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.png"), []byte("x"), 0o600))

	select {
	case <-reloaded:
		t.Fatal("non-page file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, 0, repo.Len())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	repo, err := NewRepository(BuiltinPages())
	require.NoError(t, err)
	w, err := NewWatcher(t.TempDir(), repo)
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

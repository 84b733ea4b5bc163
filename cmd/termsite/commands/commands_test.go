package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/termsite/internal/config"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/linkcheck"
	"git.home.luguber.info/inful/termsite/internal/pages"
	testkit "git.home.luguber.info/inful/termsite/internal/testing"
)

func testRepo(t *testing.T, files map[string]string) *pages.Repository {
	t.Helper()
	repo, err := pages.NewRepository(testkit.PagesFS(files))
	require.NoError(t, err)
	return repo
}

func TestCLI_Parse(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"render", "about", "-w", "40", "-j"})
	require.NoError(t, err)
	assert.Equal(t, "render <page>", ctx.Command())
	assert.Equal(t, "about", cli.Render.Page)
	assert.Equal(t, 40, cli.Render.Width)
	assert.True(t, cli.Render.Justify)
	assert.Equal(t, DefaultConfigPath, cli.Config)

	ctx, err = parser.Parse([]string{"serve", "--port", "9000", "--no-watch"})
	require.NoError(t, err)
	assert.Equal(t, "serve", ctx.Command())
	assert.True(t, cli.Serve.NoWatch)
	assert.Equal(t, 9000, cli.Serve.Port)

	_, err = parser.Parse([]string{"serve", "--watch", "--no-watch"})
	assert.Error(t, err)
}

func TestServeCmd_Apply(t *testing.T) {
	cfg := config.Default()
	cmd := ServeCmd{Host: "0.0.0.0", Port: 9000, Pages: "./pages", Watch: true}
	cmd.apply(cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "./pages", cfg.Content.PagesDir)
	assert.True(t, cfg.Content.Watch)

	cfg = config.Default()
	(&ServeCmd{}).apply(cfg)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := (&CLI{Config: DefaultConfigPath}).loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = (&CLI{Config: "elsewhere.yaml"}).loadConfig()
	require.Error(t, err)

	testkit.NewConfigBuilder(t).WithListen("127.0.0.1", 9191).BuildAndSave(DefaultConfigPath)
	cfg, err = (&CLI{Config: DefaultConfigPath}).loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestRunRender(t *testing.T) {
	repo := testRepo(t, map[string]string{
		"note.txt":  "---\ntitle: Note\n---\nsee ![Cat](/assets/cat.svg) now\n\nbye",
		"about.txt": "---\ncommand: whoami\n---\none two three",
	})

	var out bytes.Buffer
	require.NoError(t, RunRender(&out, repo, "note", 80, false))
	assert.Equal(t, "see [Cat] </assets/cat.svg> now\n\nbye\n", out.String())

	out.Reset()
	require.NoError(t, RunRender(&out, repo, "whoami", 8, false))
	assert.Equal(t, "one two\nthree\n", out.String())

	out.Reset()
	require.NoError(t, RunRender(&out, repo, "ABOUT", 8, true))
	assert.Equal(t, "one  two\nthree\n", out.String())

	err := RunRender(&out, repo, "missing", 80, false)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestRunCheck(t *testing.T) {
	var out bytes.Buffer
	builtin, err := pages.NewRepository(pages.BuiltinPages())
	require.NoError(t, err)
	require.NoError(t, RunCheck(&out, builtin, pages.BuiltinAssets(), "/assets/", "text"))
	assert.Contains(t, out.String(), "no issues")

	broken := testRepo(t, map[string]string{
		"cv.txt": "diagram: ![Flow](/assets/flow.svg)",
	})
	assets := fstest.MapFS{"other.svg": &fstest.MapFile{Data: []byte("<svg/>")}}

	out.Reset()
	err = RunCheck(&out, broken, assets, "/assets/", "text")
	assert.True(t, errors.HasCategory(err, errors.CategoryContent))
	assert.Contains(t, out.String(), "asset not found")

	out.Reset()
	err = RunCheck(&out, broken, assets, "/assets/", "json")
	require.Error(t, err)
	var issues []linkcheck.Issue
	require.NoError(t, json.Unmarshal(out.Bytes(), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, linkcheck.IssueMissingAsset, issues[0].Kind)
	assert.Equal(t, "cv", issues[0].Page)
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, DefaultConfigPath)

	var out bytes.Buffer
	require.NoError(t, RunInit(&out, dir, cfgPath, false, true))
	assert.Contains(t, out.String(), "initialized successfully")

	assert.FileExists(t, cfgPath)
	assert.FileExists(t, filepath.Join(dir, "pages", "welcome.txt"))
	assert.FileExists(t, filepath.Join(dir, "pages", "about.txt"))
	assert.FileExists(t, filepath.Join(dir, "assets", "cat.svg"))
	assert.NoDirExists(t, filepath.Join(dir, "pages", "assets"))

	t.Chdir(dir)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "./pages", cfg.Content.PagesDir)

	err = RunInit(&out, dir, cfgPath, false, false)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.NoError(t, RunInit(&out, dir, cfgPath, true, false))
}

func TestExportFS_KeepsExistingFiles(t *testing.T) {
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "about.txt"), []byte("mine"), 0o600))

	n, err := exportFS(pages.BuiltinPages(), dst, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dst, "about.txt"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestNewRuntime_Builtin(t *testing.T) {
	cfg := testkit.NewConfigBuilder(t).WithMetrics(true).Build()

	rt, err := newRuntime(cfg)
	require.NoError(t, err)
	t.Cleanup(rt.shutdown)
	assert.Nil(t, rt.watcher)

	for _, path := range []string{"/health", "/metrics", "/assets/cat.svg", "/"} {
		rec := httptest.NewRecorder()
		rt.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestNewRuntime_WatchesPagesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "welcome.txt"), []byte("hi"), 0o600))

	cfg := testkit.NewConfigBuilder(t).WithPages(dir, true).Build()

	rt, err := newRuntime(cfg)
	require.NoError(t, err)
	t.Cleanup(rt.shutdown)
	assert.NotNil(t, rt.watcher)
	assert.Equal(t, 1, rt.repo.Len())
}

func TestRunServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := testkit.NewConfigBuilder(t).WithListen("127.0.0.1", port).Build()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunServe(ctx, cfg) }()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

package commands

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/termsite/internal/config"
	"git.home.luguber.info/inful/termsite/internal/console"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/logfields"
	"git.home.luguber.info/inful/termsite/internal/metrics"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/server/httpserver"
	"git.home.luguber.info/inful/termsite/internal/session"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host    string `help:"Listen host (overrides server.host)"`
	Port    int    `short:"p" help:"Listen port (overrides server.port)"`
	Pages   string `help:"Pages directory (overrides content.pages_dir)" type:"existingdir"`
	Assets  string `help:"Assets directory (overrides content.assets_dir)" type:"existingdir"`
	Watch   bool   `help:"Reload pages when files change (overrides content.watch)" xor:"watch"`
	NoWatch bool   `help:"Never reload pages (overrides content.watch)" xor:"watch"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	root.applyLoggingConfig(cfg)
	s.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(ctx, cfg)
}

func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
	if s.Pages != "" {
		cfg.Content.PagesDir = s.Pages
	}
	if s.Assets != "" {
		cfg.Content.AssetsDir = s.Assets
	}
	if s.Watch {
		cfg.Content.Watch = true
	}
	if s.NoWatch {
		cfg.Content.Watch = false
	}
}

// RunServe serves until ctx is canceled, then shuts down gracefully.
func RunServe(ctx context.Context, cfg *config.Config) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	return rt.run(ctx)
}

// runtime is everything one serve invocation owns.
type runtime struct {
	cfg     *config.Config
	repo    *pages.Repository
	store   *session.Store
	sweeper *session.Sweeper
	watcher *pages.Watcher
	server  *httpserver.Server
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	repo, err := pages.Open(cfg.Content.PagesDir)
	if err != nil {
		return nil, err
	}
	if cfg.Content.PagesDir == "" {
		slog.Info("Serving built-in pages", slog.Int("count", repo.Len()))
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var promHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg)
		promHandler = metrics.HTTPHandler(reg)
	}

	dispatcher := console.NewDispatcher()
	if err := console.RegisterBuiltins(dispatcher, console.BuiltinOptions{
		Banner:   cfg.Terminal.Banner,
		SayDelay: cfg.Terminal.SayDelay,
	}); err != nil {
		return nil, err
	}
	dispatcher.AddSource(console.PageSource{Repo: repo})

	store := session.NewStore(repo, dispatcher, session.Options{
		TTL:           cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
		Prompt:        cfg.Terminal.Prompt,
		OverlayDelay:  cfg.Overlay.TeardownDelay,
		Recorder:      recorder,
	})
	sweeper, err := session.NewSweeper(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	rt := &runtime{cfg: cfg, repo: repo, store: store, sweeper: sweeper}

	if cfg.Content.Watch && cfg.Content.PagesDir != "" {
		rt.watcher, err = pages.NewWatcher(cfg.Content.PagesDir, repo,
			pages.WithDebounce(cfg.Content.Debounce),
			pages.OnReload(func(err error) {
				if err != nil {
					slog.Warn("Pages reload failed, keeping previous pages", logfields.Error(err))
					return
				}
				slog.Info("Pages reloaded", slog.Int("count", repo.Len()))
			}))
		if err != nil {
			_ = sweeper.Stop(context.Background())
			store.Close()
			return nil, err
		}
	}

	rt.server = httpserver.New(cfg, httpserver.Options{
		Store:             store,
		Dispatcher:        dispatcher,
		Pages:             repo,
		Assets:            assetsFS(cfg),
		Recorder:          recorder,
		PrometheusHandler: promHandler,
	})
	return rt, nil
}

// assetsFS picks the image tree: the configured directory, the built-in images
// when the built-in pages are served, or nothing.
func assetsFS(cfg *config.Config) fs.FS {
	switch {
	case cfg.Content.AssetsDir != "":
		return os.DirFS(cfg.Content.AssetsDir)
	case cfg.Content.PagesDir == "":
		return pages.BuiltinAssets()
	default:
		slog.Warn("No assets directory configured; image references will not load",
			logfields.Path(cfg.Content.PagesDir))
		return nil
	}
}

func (rt *runtime) run(ctx context.Context) error {
	rt.sweeper.Start(ctx)
	if rt.watcher != nil {
		if err := rt.watcher.Start(ctx); err != nil {
			rt.shutdown()
			return err
		}
	}

	if err := rt.server.Start(ctx); err != nil {
		rt.shutdown()
		return err
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping server...")

	stopCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
	defer cancel()
	var stopErr error
	if err := rt.server.Stop(stopCtx); err != nil {
		stopErr = errors.WrapError(err, errors.CategoryRuntime, "stop http server").Build()
	}
	rt.shutdown()

	slog.Info("Server stopped")
	return stopErr
}

func (rt *runtime) shutdown() {
	if rt.watcher != nil {
		if err := rt.watcher.Stop(); err != nil {
			slog.Warn("Failed to stop pages watcher", logfields.Error(err))
		}
	}
	if err := rt.sweeper.Stop(context.Background()); err != nil {
		slog.Warn("Failed to stop session sweeper", logfields.Error(err))
	}
	rt.store.Close()
}

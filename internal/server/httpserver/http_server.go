package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/termsite/internal/config"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/metrics"
	"git.home.luguber.info/inful/termsite/internal/server/handlers"
	smw "git.home.luguber.info/inful/termsite/internal/server/middleware"
)

// Server serves the terminal page and its JSON API.
type Server struct {
	cfg          *config.Config
	opts         Options
	router       chi.Router
	errorAdapter *errors.HTTPErrorAdapter

	terminalHandlers   *handlers.TerminalHandlers
	pageHandlers       *handlers.PageHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New wires handlers and routes. It does not bind a port.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}

	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}

	s.terminalHandlers = handlers.NewTerminalHandlers(opts.Store, opts.Dispatcher, handlers.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.SecureCookie,
		MaxAge: cfg.Session.TTL,
	})
	s.pageHandlers = handlers.NewPageHandlers(opts.Pages)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(opts.Store, opts.Pages)

	s.router = s.routes()
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(smw.Chain(slog.Default(), s.errorAdapter, s.opts.Recorder))
	if s.cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}

	r.Get("/", serveIndex)
	r.Get("/health", s.monitoringHandlers.HandleHealthCheck)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(webRoot()))))

	if s.opts.Assets != nil {
		prefix := s.cfg.Content.AssetsURL
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.FS(s.opts.Assets))))
	}

	if s.cfg.Metrics.Enabled && s.opts.PrometheusHandler != nil {
		r.Handle(s.cfg.Metrics.Path, s.opts.PrometheusHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.terminalHandlers.HandleCreateSession)
		r.Get("/session", s.terminalHandlers.HandleGetSession)
		r.Delete("/session", s.terminalHandlers.HandleDeleteSession)
		r.Post("/command", s.terminalHandlers.HandleCommand)
		r.Post("/events", s.terminalHandlers.HandleEvent)
		r.Post("/keys", s.terminalHandlers.HandleKey)
		r.Get("/overlay", s.terminalHandlers.HandleView)
		r.Post("/overlay/dismiss", s.terminalHandlers.HandleDismissOverlay)
		r.Get("/pages", s.pageHandlers.HandleListPages)
		r.Get("/pages/{id}", s.pageHandlers.HandleGetPage)
	})

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)
	return r
}

// handleNotFound answers API paths with a JSON error and everything else with
// the terminal page, so deep links still open the console.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		s.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("no such endpoint").
			WithContext("path", r.URL.Path).
			Build())
		return
	}
	serveIndex(w, r)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	resp := s.errorAdapter.FormatErrorResponse(errors.ValidationError("method not allowed").
		WithContext("method", r.Method).
		Build())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start binds the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "bind http listener").
			WithContext("addr", addr).
			Build()
	}
	return s.Serve(ln)
}

// Serve serves on a pre-bound listener in the background.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.NewError(errors.CategoryRuntime, "server already started").Build()
	}
	s.server = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}

package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/termsite/internal/console"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/logfields"
	"git.home.luguber.info/inful/termsite/internal/metrics"
	"git.home.luguber.info/inful/termsite/internal/overlay"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/terminal"
)

const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Options configure sessions created by a Store.
type Options struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Prompt        string
	OverlayDelay  time.Duration
	Clock         clockwork.Clock
	Recorder      metrics.Recorder
}

func (o *Options) applyDefaults() {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
	if o.Prompt == "" {
		o.Prompt = terminal.DefaultPrompt
	}
	if o.OverlayDelay <= 0 {
		o.OverlayDelay = overlay.DefaultTeardownDelay
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Recorder == nil {
		o.Recorder = metrics.NoopRecorder{}
	}
}

// Store keeps sessions in memory and evicts the idle ones.
type Store struct {
	repo       *pages.Repository
	dispatcher *console.Dispatcher
	opts       Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store. New sessions print the welcome page of repo.
func NewStore(repo *pages.Repository, dispatcher *console.Dispatcher, opts Options) *Store {
	opts.applyDefaults()
	return &Store{
		repo:       repo,
		dispatcher: dispatcher,
		opts:       opts,
		sessions:   make(map[string]*Session),
	}
}

// Options returns the effective options.
func (st *Store) Options() Options { return st.opts }

// Create starts a session and prints the welcome page when there is one.
func (st *Store) Create() (*Session, Rendered, error) {
	s, err := newSession(uuid.NewString(), st.dispatcher, st.opts)
	if err != nil {
		return nil, Rendered{}, err
	}

	var welcome Rendered
	if page, err := st.repo.Welcome(); err == nil {
		if welcome, err = s.Welcome(page); err != nil {
			s.Close()
			return nil, Rendered{}, err
		}
	} else if !errors.HasCategory(err, errors.CategoryNotFound) {
		s.Close()
		return nil, Rendered{}, err
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	n := len(st.sessions)
	st.mu.Unlock()

	st.opts.Recorder.SetActiveSessions(n)
	slog.Info("Session created", logfields.SessionID(s.ID))
	return s, welcome, nil
}

// Get returns a live session and marks it as used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, errors.SessionError("unknown or expired session").
			WithContext("session_id", id).
			Build()
	}
	if st.expired(s) {
		st.Delete(id)
		return nil, errors.SessionError("session expired").
			WithContext("session_id", id).
			Build()
	}
	s.touch()
	return s, nil
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()

	if ok {
		s.Close()
		st.opts.Recorder.SetActiveSessions(n)
	}
}

// Sweep evicts every session idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	var evicted []*Session
	for id, s := range st.sessions {
		if st.expired(s) {
			evicted = append(evicted, s)
			delete(st.sessions, id)
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	for _, s := range evicted {
		s.Close()
		slog.Debug("Session evicted", logfields.SessionID(s.ID))
	}
	st.opts.Recorder.SetActiveSessions(n)
	if len(evicted) > 0 {
		slog.Info("Idle sessions evicted", slog.Int("count", len(evicted)), slog.Int("remaining", n))
	}
	return len(evicted)
}

// Len returns the number of held sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Close drops every session.
func (st *Store) Close() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	st.opts.Recorder.SetActiveSessions(0)
}

func (st *Store) expired(s *Session) bool {
	return st.opts.Clock.Since(s.LastSeen()) > st.opts.TTL
}

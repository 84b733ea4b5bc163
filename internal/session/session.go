// Package session holds the server-side state of one visitor's terminal.
//
// A Session is the single logical UI thread of a terminal: every operation
// takes the session lock, so the link table, screen and anchor registry it owns
// need no locking of their own. Rendering follows a fixed order: parse the raw
// text, record its links under a fresh context ID, paint the block, then bind
// marker tokens in the output container to anchors.
package session

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/termsite/internal/binder"
	"git.home.luguber.info/inful/termsite/internal/console"
	"git.home.luguber.info/inful/termsite/internal/content"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/linktable"
	"git.home.luguber.info/inful/termsite/internal/logfields"
	"git.home.luguber.info/inful/termsite/internal/metrics"
	"git.home.luguber.info/inful/termsite/internal/overlay"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/terminal"
)

// WelcomeContext is the render context of the greeting printed on start.
const WelcomeContext = "welcome"

// ViewState is what the browser needs to draw around the terminal.
type ViewState struct {
	Overlay overlay.State     `json:"overlay"`
	Hover   *binder.HoverInfo `json:"hover,omitempty"`
}

// Rendered is the result of painting one block.
type Rendered struct {
	ContextID string         `json:"context_id"`
	HTML      string         `json:"html"`
	Links     []content.Link `json:"links"`
	Anchors   int            `json:"anchors"`
	Inert     int            `json:"inert"`
	// Clear tells the client to drop the previous output before HTML.
	Clear  bool   `json:"clear,omitempty"`
	Prompt string `json:"prompt"`
}

type anchorKey struct {
	context string
	marker  string
}

// Session is one visitor's terminal.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	lastSeen   time.Time
	clock      clockwork.Clock
	prompt     string
	links      *linktable.Table
	overlay    *overlay.Controller
	screen     *terminal.Screen
	anchors    map[anchorKey]*binder.Anchor
	hover      *binder.HoverInfo
	seq        int
	dispatcher *console.Dispatcher
	recorder   metrics.Recorder
}

func newSession(id string, dispatcher *console.Dispatcher, opts Options) (*Session, error) {
	screen, err := terminal.NewScreen()
	if err != nil {
		return nil, err
	}

	now := opts.Clock.Now()
	s := &Session{
		ID:         id,
		CreatedAt:  now,
		lastSeen:   now,
		clock:      opts.Clock,
		prompt:     opts.Prompt,
		links:      linktable.New(),
		screen:     screen,
		anchors:    make(map[anchorKey]*binder.Anchor),
		dispatcher: dispatcher,
		recorder:   opts.Recorder,
	}
	s.overlay = overlay.New(
		overlay.WithClock(opts.Clock),
		overlay.WithTeardownDelay(opts.OverlayDelay),
		overlay.WithOnRelease(func() { s.recorder.IncOverlayAction(metrics.OverlayTeardown) }),
	)
	return s, nil
}

// Prompt returns the prompt label shown before input.
func (s *Session) Prompt() string { return s.prompt }

// LastSeen returns the time of the last operation.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
}

func (s *Session) touchLocked() {
	s.lastSeen = s.clock.Now()
}

// Welcome prints page under the welcome context.
func (s *Session) Welcome(page *pages.Page) (Rendered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked(terminal.Block{ContextID: WelcomeContext, Text: page.Body})
}

// Render paints raw under contextID. The context ID must not have been used
// in this session before.
func (s *Session) Render(contextID, raw string) (Rendered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.renderLocked(terminal.Block{ContextID: contextID, Text: raw})
}

// Run executes a command line and paints its output under a new context ID of
// the form "<command>-<n>". The command itself runs without the session lock,
// so a slow reply does not block pointer events.
func (s *Session) Run(ctx context.Context, line string) (Rendered, error) {
	start := s.clock.Now()
	res, err := s.dispatcher.Execute(ctx, line)
	name := res.Name
	if name == "" {
		name = "input"
	}
	s.recorder.ObserveCommandDuration(name, s.clock.Since(start))

	if err != nil {
		result := metrics.ResultFailed
		if ctx.Err() != nil {
			result = metrics.ResultCanceled
		}
		s.recorder.IncCommand(name, result)
		slog.Warn("Command failed",
			logfields.SessionID(s.ID),
			logfields.Command(name),
			logfields.Error(err))
		return Rendered{}, err
	}
	if res.Known {
		s.recorder.IncCommand(name, metrics.ResultSuccess)
	} else {
		s.recorder.IncCommand(name, metrics.ResultUnknown)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if res.Clear {
		s.clearLocked()
		return Rendered{Clear: true, Links: []content.Link{}, Prompt: s.prompt}, nil
	}

	s.seq++
	contextID := contextName(name) + "-" + strconv.Itoa(s.seq)
	slog.Debug("Rendering command output",
		logfields.SessionID(s.ID),
		logfields.Command(name),
		logfields.ContextID(contextID),
		logfields.Page(res.Page))

	return s.renderLocked(terminal.Block{
		ContextID: contextID,
		Prompt:    s.prompt,
		Input:     strings.TrimSpace(line),
		Text:      res.Output.Text,
	})
}

func (s *Session) renderLocked(b terminal.Block) (Rendered, error) {
	parsed := content.Parse(b.Text)
	if err := s.links.Append(b.ContextID, parsed.Links); err != nil {
		return Rendered{}, err
	}
	s.recorder.AddLinksExtracted(len(parsed.Links))

	b.Text = parsed.Text
	node := s.screen.Append(b)

	contextID := b.ContextID
	anchors := binder.Bind(s.screen.Container(), contextID, s.links.Resolver(contextID), binder.Handlers{
		Open:  func(marker string) { s.openLocked(contextID, marker) },
		Hover: func(info *binder.HoverInfo) { s.hover = info },
	})

	out := Rendered{ContextID: contextID, Links: parsed.Links, Prompt: s.prompt}
	for _, a := range anchors {
		s.anchors[anchorKey{a.ContextID, a.Marker}] = a
		if a.Interactive() {
			out.Anchors++
		} else {
			out.Inert++
		}
	}
	s.recorder.IncMarkers(metrics.BindBound, out.Anchors)
	s.recorder.IncMarkers(metrics.BindInert, out.Inert)

	html, err := terminal.RenderNode(node)
	if err != nil {
		return Rendered{}, err
	}
	out.HTML = html

	slog.Debug("Block rendered",
		logfields.SessionID(s.ID),
		logfields.ContextID(contextID),
		logfields.Links(len(parsed.Links)),
		slog.Int("anchors", out.Anchors),
		slog.Int("inert", out.Inert))
	return out, nil
}

func (s *Session) openLocked(contextID, marker string) {
	link, ok := s.links.Find(contextID, marker)
	if !ok {
		return
	}
	s.overlay.Open(overlay.Image{Src: link.Src, Alt: link.Alt})
	s.recorder.IncOverlayAction(metrics.OverlayOpen)
	slog.Debug("Overlay opened",
		logfields.SessionID(s.ID),
		logfields.ContextID(contextID),
		logfields.Marker(marker))
}

func (s *Session) clearLocked() {
	s.screen.Clear()
	s.anchors = make(map[anchorKey]*binder.Anchor)
	s.hover = nil
}

// Dispatch delivers a browser event to the anchor bound for (contextID, marker).
func (s *Session) Dispatch(contextID, marker string, e *binder.Event) (ViewState, error) {
	if !e.Type.Valid() {
		return ViewState{}, errors.ValidationError("unsupported event type").
			WithContext("type", string(e.Type)).
			Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	a, ok := s.anchors[anchorKey{contextID, marker}]
	if !ok {
		return ViewState{}, errors.NotFoundError("no anchor bound for marker").
			WithContext("context_id", contextID).
			WithContext("marker", marker).
			Build()
	}
	a.Dispatch(e)
	return s.viewLocked(), nil
}

// Key handles a key press outside the input line.
func (s *Session) Key(key string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if _, consumed := s.overlay.HandleKey(key); consumed {
		s.recorder.IncOverlayAction(metrics.OverlayEscape)
	}
	return s.viewLocked()
}

// DismissOverlay hides the overlay, as a click on its background does.
func (s *Session) DismissOverlay() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.overlay.Hide()
	s.recorder.IncOverlayAction(metrics.OverlayHide)
	return s.viewLocked()
}

// View returns the current view state.
func (s *Session) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() ViewState {
	v := ViewState{Overlay: s.overlay.State()}
	if s.hover != nil {
		h := *s.hover
		v.Hover = &h
	}
	return v
}

// Links returns the links recorded for contextID.
func (s *Session) Links(contextID string) ([]content.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.links.Links(contextID)
}

// Contexts lists render contexts in creation order.
func (s *Session) Contexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.links.Contexts()
}

// Transcript serializes everything on screen.
func (s *Session) Transcript() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Transcript()
}

// Close releases the session timers.
func (s *Session) Close() {
	s.overlay.Close()
}

func contextName(command string) string {
	var b strings.Builder
	for _, r := range command {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

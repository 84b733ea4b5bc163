package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/termsite/internal/binder"
	"git.home.luguber.info/inful/termsite/internal/console"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/logfields"
	"git.home.luguber.info/inful/termsite/internal/server/responses"
	"git.home.luguber.info/inful/termsite/internal/session"
)

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// TerminalHandlers serves the session, command, event and overlay endpoints.
type TerminalHandlers struct {
	store        *session.Store
	dispatcher   *console.Dispatcher
	cookie       CookieOptions
	errorAdapter *errors.HTTPErrorAdapter
}

// NewTerminalHandlers creates the terminal API handlers.
func NewTerminalHandlers(store *session.Store, dispatcher *console.Dispatcher, cookie CookieOptions) *TerminalHandlers {
	return &TerminalHandlers{
		store:        store,
		dispatcher:   dispatcher,
		cookie:       cookie,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

func (h *TerminalHandlers) session(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil || c.Value == "" {
		return nil, errors.SessionError("no session; create one with POST /api/session").Build()
	}
	return h.store.Get(c.Value)
}

func (h *TerminalHandlers) commands() []responses.CommandInfo {
	cmds := h.dispatcher.Commands()
	out := make([]responses.CommandInfo, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, responses.CommandInfo{Name: c.Name, Description: c.Description, Usage: c.Usage})
	}
	return out
}

// HandleCreateSession starts a session, sets its cookie and returns the welcome output.
func (h *TerminalHandlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	s, welcome, err := h.store.Create()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	respond(h.errorAdapter, w, r, http.StatusCreated, responses.SessionCreated{
		ID:       s.ID,
		Prompt:   s.Prompt(),
		Welcome:  welcome,
		View:     s.View(),
		Commands: h.commands(),
	})
}

// HandleGetSession returns the transcript and view of the current session.
func (h *TerminalHandlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	transcript, err := s.Transcript()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	respond(h.errorAdapter, w, r, http.StatusOK, responses.SessionState{
		ID:         s.ID,
		Prompt:     s.Prompt(),
		Transcript: transcript,
		Contexts:   s.Contexts(),
		View:       s.View(),
		Commands:   h.commands(),
	})
}

// HandleDeleteSession ends the current session and clears its cookie.
func (h *TerminalHandlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s, err := h.session(r); err == nil {
		h.store.Delete(s.ID)
	}
	http.SetCookie(w, &http.Cookie{Name: h.cookie.Name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// HandleCommand runs one command line and returns the rendered block.
func (h *TerminalHandlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	var req responses.CommandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	out, err := s.Run(r.Context(), req.Input)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	slog.Debug("Command served",
		logfields.SessionID(s.ID),
		logfields.ContextID(out.ContextID),
		logfields.Links(len(out.Links)))
	respond(h.errorAdapter, w, r, http.StatusOK, out)
}

// HandleEvent forwards a pointer event to a bound anchor.
func (h *TerminalHandlers) HandleEvent(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	var req responses.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if req.ContextID == "" || req.Marker == "" {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("context_id and marker are required").Build())
		return
	}

	ev := &binder.Event{Type: req.Type, Rect: req.Rect}
	view, err := s.Dispatch(req.ContextID, req.Marker, ev)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.EventResponse{
		ViewState:        view,
		DefaultPrevented: ev.DefaultPrevented(),
	})
}

// HandleKey forwards a key press outside the input line.
func (h *TerminalHandlers) HandleKey(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	var req responses.KeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, s.Key(req.Key))
}

// HandleDismissOverlay hides the overlay as a background click does.
func (h *TerminalHandlers) HandleDismissOverlay(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, s.DismissOverlay())
}

// HandleView returns the current view state.
func (h *TerminalHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, s.View())
}

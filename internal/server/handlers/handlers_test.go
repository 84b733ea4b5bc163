package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/termsite/internal/binder"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/server/responses"
	"git.home.luguber.info/inful/termsite/internal/session"
	testkit "git.home.luguber.info/inful/termsite/internal/testing"
)

const cookieName = "termsite_test"

type fixture struct {
	router http.Handler
	store  *session.Store
	repo   *pages.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stack := testkit.NewStack(t)
	store, repo, d := stack.Store, stack.Pages, stack.Dispatcher

	term := NewTerminalHandlers(store, d, CookieOptions{Name: cookieName, MaxAge: time.Hour})
	pageHandlers := NewPageHandlers(repo)
	mon := NewMonitoringHandlers(store, repo)

	r := chi.NewRouter()
	r.Post("/api/session", term.HandleCreateSession)
	r.Get("/api/session", term.HandleGetSession)
	r.Delete("/api/session", term.HandleDeleteSession)
	r.Post("/api/command", term.HandleCommand)
	r.Post("/api/events", term.HandleEvent)
	r.Post("/api/keys", term.HandleKey)
	r.Get("/api/overlay", term.HandleView)
	r.Post("/api/overlay/dismiss", term.HandleDismissOverlay)
	r.Get("/api/pages", pageHandlers.HandleListPages)
	r.Get("/api/pages/{id}", pageHandlers.HandleGetPage)
	r.Get("/health", mon.HandleHealthCheck)

	return &fixture{router: r, store: store, repo: repo}
}

func (f *fixture) do(t *testing.T, method, path string, cookie *http.Cookie, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) start(t *testing.T) (*http.Cookie, responses.SessionCreated) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/session", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created responses.SessionCreated
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0], created
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.HTTPErrorResponse {
	t.Helper()
	var resp errors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	cookie, created := f.start(t)

	assert.Equal(t, cookieName, cookie.Name)
	assert.Equal(t, created.ID, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)

	assert.Equal(t, session.WelcomeContext, created.Welcome.ContextID)
	assert.Contains(t, created.Welcome.HTML, `data-context="welcome"`)
	assert.NotEmpty(t, created.Welcome.Links)
	assert.False(t, created.View.Overlay.Visible)

	var names []string
	for _, c := range created.Commands {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "help")
	assert.Contains(t, names, "about")
	assert.NotContains(t, names, "welcome")
	assert.Equal(t, 1, f.store.Len())
}

func TestCommand_RendersBlock(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.start(t)

	rec := f.do(t, http.MethodPost, "/api/command", cookie, responses.CommandRequest{Input: "about"})
	require.Equal(t, http.StatusOK, rec.Code)

	var out session.Rendered
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "about-1", out.ContextID)
	require.Len(t, out.Links, 2)
	assert.Equal(t, "/assets/portrait.svg", out.Links[0].Src)
	assert.Equal(t, 2, out.Anchors)
	assert.Contains(t, out.HTML, "I build services")
}

func TestCommand_UnknownCommandIsNotAnError(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.start(t)

	rec := f.do(t, http.MethodPost, "/api/command", cookie, responses.CommandRequest{Input: "rm -rf /"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown command")
}

func TestCommand_RequiresSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/command", nil, responses.CommandRequest{Input: "help"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(errors.CategorySession), decodeError(t, rec).Code)

	rec = f.do(t, http.MethodPost, "/api/command", &http.Cookie{Name: cookieName, Value: "nope"}, responses.CommandRequest{Input: "help"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCommand_RejectsMalformedBody(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.start(t)

	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(`{"input": 3}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(errors.CategoryValidation), decodeError(t, rec).Code)
}

func TestEvents_ClickOpensOverlayThenEscapeHides(t *testing.T) {
	f := newFixture(t)
	cookie, created := f.start(t)
	marker := created.Welcome.Links[0].Marker

	rec := f.do(t, http.MethodPost, "/api/events", cookie, responses.EventRequest{
		ContextID: session.WelcomeContext,
		Marker:    marker,
		Type:      binder.EventClick,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var ev responses.EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.True(t, ev.DefaultPrevented)
	assert.True(t, ev.Overlay.Visible)
	require.NotNil(t, ev.Overlay.Image)
	assert.Equal(t, "/assets/workbench.svg", ev.Overlay.Image.Src)

	rec = f.do(t, http.MethodGet, "/api/overlay", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view session.ViewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Overlay.Visible)

	rec = f.do(t, http.MethodPost, "/api/keys", cookie, responses.KeyRequest{Key: "Escape"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.False(t, view.Overlay.Visible)
}

func TestEvents_Validation(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.start(t)

	rec := f.do(t, http.MethodPost, "/api/events", cookie, responses.EventRequest{Type: binder.EventClick})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/events", cookie, responses.EventRequest{
		ContextID: "about-7",
		Marker:    "[[image:0]]",
		Type:      binder.EventClick,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDismissOverlay(t *testing.T) {
	f := newFixture(t)
	cookie, created := f.start(t)

	f.do(t, http.MethodPost, "/api/events", cookie, responses.EventRequest{
		ContextID: session.WelcomeContext,
		Marker:    created.Welcome.Links[0].Marker,
		Type:      binder.EventClick,
	})

	rec := f.do(t, http.MethodPost, "/api/overlay/dismiss", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view session.ViewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.False(t, view.Overlay.Visible)
}

func TestGetSession_Transcript(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.start(t)
	f.do(t, http.MethodPost, "/api/command", cookie, responses.CommandRequest{Input: "echo hi"})

	rec := f.do(t, http.MethodGet, "/api/session", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state responses.SessionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, []string{session.WelcomeContext, "echo-1"}, state.Contexts)
	assert.Contains(t, state.Transcript, "hi")
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	cookie, _ := f.start(t)

	rec := f.do(t, http.MethodDelete, "/api/session", cookie, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, f.store.Len())

	rec = f.do(t, http.MethodGet, "/api/session", cookie, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPages_ListAndGet(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/pages", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []responses.PageSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list)
	assert.Equal(t, "about", list[0].ID)
	for _, p := range list {
		assert.False(t, p.Hidden)
	}

	rec = f.do(t, http.MethodGet, "/api/pages/about", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	assert.NotEmpty(t, etag)

	var page pages.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "About me", page.Title)
	assert.Equal(t, `"`+page.Fingerprint+`"`, etag)
}

func TestPages_ConditionalGet(t *testing.T) {
	f := newFixture(t)
	p, err := f.repo.Get("about")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/pages/about", nil)
	req.Header.Set("If-None-Match", `W/"other", "`+p.Fingerprint+`"`)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestPages_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/pages/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(errors.CategoryNotFound), decodeError(t, rec).Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	rec := f.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health responses.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 1, health.Sessions)
	assert.Equal(t, f.repo.Len(), health.Pages)
}

func TestEtagMatches(t *testing.T) {
	assert.True(t, etagMatches(`"abc"`, `"abc"`))
	assert.True(t, etagMatches(`W/"abc"`, `"abc"`))
	assert.True(t, etagMatches(`*`, `"abc"`))
	assert.False(t, etagMatches(`"abd"`, `"abc"`))
}

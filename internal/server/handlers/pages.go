package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/server/responses"
)

// PageHandlers expose page metadata.
type PageHandlers struct {
	repo         *pages.Repository
	errorAdapter *errors.HTTPErrorAdapter
}

// NewPageHandlers creates the page handlers.
func NewPageHandlers(repo *pages.Repository) *PageHandlers {
	return &PageHandlers{repo: repo, errorAdapter: errors.NewHTTPErrorAdapter(slog.Default())}
}

// HandleListPages lists visible pages.
func (h *PageHandlers) HandleListPages(w http.ResponseWriter, r *http.Request) {
	list := h.repo.Commands()
	out := make([]responses.PageSummary, 0, len(list))
	for _, p := range list {
		out = append(out, responses.PageSummary{
			ID:          p.ID,
			Title:       p.Title,
			Command:     p.Command,
			Description: p.Description,
			Hidden:      p.Hidden,
			Fingerprint: p.Fingerprint,
		})
	}
	respond(h.errorAdapter, w, r, http.StatusOK, out)
}

// HandleGetPage returns one page. The fingerprint doubles as a strong ETag.
func (h *PageHandlers) HandleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	etag := `"` + p.Fingerprint + `"`
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if err := writeJSONWithETag(w, etag, p); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "encode page").Build())
	}
}

func writeJSONWithETag(w http.ResponseWriter, etag string, p *pages.Page) error {
	w.Header().Set("ETag", etag)
	return writeJSON(w, http.StatusOK, p)
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

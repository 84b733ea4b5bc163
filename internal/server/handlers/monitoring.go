package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/server/responses"
	"git.home.luguber.info/inful/termsite/internal/session"
	"git.home.luguber.info/inful/termsite/internal/version"
)

// MonitoringHandlers serve health information.
type MonitoringHandlers struct {
	store        *session.Store
	repo         *pages.Repository
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates the monitoring handlers.
func NewMonitoringHandlers(store *session.Store, repo *pages.Repository) *MonitoringHandlers {
	return &MonitoringHandlers{
		store:        store,
		repo:         repo,
		startTime:    time.Now(),
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck reports liveness plus a few counters.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(h.errorAdapter, w, r, http.StatusOK, responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
		Sessions:  h.store.Len(),
		Pages:     h.repo.Len(),
	})
}

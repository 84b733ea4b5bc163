package httpserver

import (
	"io/fs"
	"net/http"

	"git.home.luguber.info/inful/termsite/internal/console"
	"git.home.luguber.info/inful/termsite/internal/metrics"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/session"
)

// Options carries the runtime the server exposes.
type Options struct {
	Store      *session.Store
	Dispatcher *console.Dispatcher
	Pages      *pages.Repository

	// Assets serves the images pages reference. Nil disables the route.
	Assets fs.FS

	// Optional: request metrics and the Prometheus endpoint.
	Recorder          metrics.Recorder
	PrometheusHandler http.Handler
}

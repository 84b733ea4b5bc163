package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "termsite"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	commands        *prom.CounterVec
	commandDuration *prom.HistogramVec
	linksExtracted  prom.Counter
	markers         *prom.CounterVec
	overlayActions  *prom.CounterVec
	activeSessions  prom.Gauge
	httpRequests    *prom.HistogramVec
}

// NewPrometheusRecorder constructs the collectors and registers them with reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		commands: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Console commands by name and result",
		}, []string{"command", "result"}),
		commandDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent running a console command including rendering",
			Buckets:   prom.DefBuckets,
		}, []string{"command"}),
		linksExtracted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "links_extracted_total",
			Help:      "Image references extracted from rendered content",
		}),
		markers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "markers_total",
			Help:      "Marker tokens replaced by anchors, by outcome",
		}, []string{"outcome"}),
		overlayActions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_actions_total",
			Help:      "Image overlay state changes",
		}, []string{"action"}),
		activeSessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Terminal sessions currently held in memory",
		}),
		httpRequests: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "status"}),
	}
	reg.MustRegister(pr.commands, pr.commandDuration, pr.linksExtracted, pr.markers,
		pr.overlayActions, pr.activeSessions, pr.httpRequests)
	return pr
}

func (p *PrometheusRecorder) IncCommand(command string, result ResultLabel) {
	if p == nil {
		return
	}
	p.commands.WithLabelValues(command, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveCommandDuration(command string, d time.Duration) {
	if p == nil {
		return
	}
	p.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddLinksExtracted(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.linksExtracted.Add(float64(n))
}

func (p *PrometheusRecorder) IncMarkers(outcome BindOutcome, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.markers.WithLabelValues(string(outcome)).Add(float64(n))
}

func (p *PrometheusRecorder) IncOverlayAction(action OverlayAction) {
	if p == nil {
		return
	}
	p.overlayActions.WithLabelValues(string(action)).Inc()
}

func (p *PrometheusRecorder) SetActiveSessions(n int) {
	if p == nil {
		return
	}
	p.activeSessions.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

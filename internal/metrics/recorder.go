package metrics

import "time"

// ResultLabel enumerates command result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultUnknown  ResultLabel = "unknown"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// BindOutcome labels a marker that the binder turned into an anchor.
type BindOutcome string

const (
	BindBound BindOutcome = "bound"
	BindInert BindOutcome = "inert"
)

// OverlayAction labels a change of the image overlay.
type OverlayAction string

const (
	OverlayOpen     OverlayAction = "open"
	OverlayHide     OverlayAction = "hide"
	OverlayEscape   OverlayAction = "escape"
	OverlayTeardown OverlayAction = "teardown"
)

// Recorder defines observability hooks for the terminal. All methods must be
// safe to call concurrently.
type Recorder interface {
	IncCommand(command string, result ResultLabel)
	ObserveCommandDuration(command string, d time.Duration)
	AddLinksExtracted(n int)
	IncMarkers(outcome BindOutcome, n int)
	IncOverlayAction(action OverlayAction)
	SetActiveSessions(n int)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are disabled).
type NoopRecorder struct{}

func (NoopRecorder) IncCommand(string, ResultLabel)                {}
func (NoopRecorder) ObserveCommandDuration(string, time.Duration)  {}
func (NoopRecorder) AddLinksExtracted(int)                         {}
func (NoopRecorder) IncMarkers(BindOutcome, int)                   {}
func (NoopRecorder) IncOverlayAction(OverlayAction)                {}
func (NoopRecorder) SetActiveSessions(int)                         {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}

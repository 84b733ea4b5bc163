// Package metrics provides observability hooks for terminal sessions.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	type Store struct {
//	    recorder metrics.Recorder
//	}
//
// When metrics are enabled in the configuration the server swaps in a
// PrometheusRecorder bound to its own registry and exposes it through
// HTTPHandler.
package metrics

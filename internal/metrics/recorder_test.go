package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.IncCommand("about", ResultSuccess)
		r.ObserveCommandDuration("about", time.Second)
		r.AddLinksExtracted(2)
		r.IncMarkers(BindInert, 1)
		r.IncOverlayAction(OverlayTeardown)
		r.SetActiveSessions(0)
		r.ObserveHTTPRequest("/", 404, time.Millisecond)
	})
}

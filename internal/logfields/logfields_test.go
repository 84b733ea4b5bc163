package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames guards against key drift, which would break log queries.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		attr slog.Attr
	}{
		{"SessionID", KeySessionID, "s1", SessionID("s1")},
		{"ContextID", KeyContextID, "about-1", ContextID("about-1")},
		{"Command", KeyCommand, "cv", Command("cv")},
		{"Marker", KeyMarker, "[[image:0]]", Marker("[[image:0]]")},
		{"Page", KeyPage, "welcome", Page("welcome")},
		{"Path", KeyPath, "/api/command", Path("/api/command")},
		{"Method", KeyMethod, "POST", Method("POST")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"UserAgent", KeyUserAgent, "ua", UserAgent("ua")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
	}
	for _, tc := range cases {
		if tc.attr.Key != tc.key {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.key, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.val {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.val, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := Status(200); v.Key != KeyStatus || v.Value.Int64() != 200 {
		t.Fatalf("Status mismatch: %v", v)
	}
	if v := Links(3); v.Key != KeyLinks || v.Value.Int64() != 3 {
		t.Fatalf("Links mismatch: %v", v)
	}
	if v := DurationMS(1.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

func TestErrorHelper(t *testing.T) {
	if attr := Error(nil); attr.Value.String() != "" {
		t.Fatalf("expected empty error string, got %s", attr.Value.String())
	}
	if attr := Error(errors.New("boom")); attr.Value.String() != "boom" {
		t.Fatalf("expected boom, got %s", attr.Value.String())
	}
}

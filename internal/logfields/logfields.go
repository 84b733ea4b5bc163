// Package logfields holds canonical slog attribute keys so log records stay queryable.
package logfields

import "log/slog"

const (
	KeySessionID  = "session_id"
	KeyContextID  = "context_id"
	KeyCommand    = "command"
	KeyMarker     = "marker"
	KeyPage       = "page"
	KeyLinks      = "links"
	KeyPath       = "path"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeyRequestID  = "request_id"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func SessionID(id string) slog.Attr   { return slog.String(KeySessionID, id) }
func ContextID(id string) slog.Attr   { return slog.String(KeyContextID, id) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func Marker(m string) slog.Attr       { return slog.String(KeyMarker, m) }
func Page(id string) slog.Attr        { return slog.String(KeyPage, id) }
func Links(n int) slog.Attr           { return slog.Int(KeyLinks, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

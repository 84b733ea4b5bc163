// Package responses defines request and response bodies of the termsite HTTP API.
package responses

import (
	"time"

	"git.home.luguber.info/inful/termsite/internal/binder"
	"git.home.luguber.info/inful/termsite/internal/session"
)

// CommandInfo describes a console command for client-side completion.
type CommandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Usage       string `json:"usage,omitempty"`
}

// SessionCreated is returned when a session starts.
type SessionCreated struct {
	ID       string            `json:"id"`
	Prompt   string            `json:"prompt"`
	Welcome  session.Rendered  `json:"welcome"`
	View     session.ViewState `json:"view"`
	Commands []CommandInfo     `json:"commands"`
}

// SessionState is the full state of an existing session.
type SessionState struct {
	ID         string            `json:"id"`
	Prompt     string            `json:"prompt"`
	Transcript string            `json:"transcript"`
	Contexts   []string          `json:"contexts"`
	View       session.ViewState `json:"view"`
	Commands   []CommandInfo     `json:"commands"`
}

// CommandRequest carries one typed line.
type CommandRequest struct {
	Input string `json:"input"`
}

// EventRequest forwards a pointer event on a bound anchor.
type EventRequest struct {
	ContextID string           `json:"context_id"`
	Marker    string           `json:"marker"`
	Type      binder.EventType `json:"type"`
	Rect      binder.Rect      `json:"rect"`
}

// EventResponse is the view after an event plus whether the browser default
// action must be suppressed.
type EventResponse struct {
	session.ViewState
	DefaultPrevented bool `json:"default_prevented"`
}

// KeyRequest forwards a key press.
type KeyRequest struct {
	Key string `json:"key"`
}

// PageSummary lists a page without its body.
type PageSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Sessions  int       `json:"sessions"`
	Pages     int       `json:"pages"`
}

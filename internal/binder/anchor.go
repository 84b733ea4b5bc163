package binder

import "golang.org/x/net/html"

// EventType names a pointer event forwarded from the browser.
type EventType string

const (
	EventClick        EventType = "click"
	EventPointerEnter EventType = "pointerenter"
	EventPointerLeave EventType = "pointerleave"
)

// Valid reports whether t is one of the supported event types.
func (t EventType) Valid() bool {
	switch t {
	case EventClick, EventPointerEnter, EventPointerLeave:
		return true
	}
	return false
}

// Rect is the on-screen box of an element at the time an event fired.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Event is delivered to anchor listeners.
type Event struct {
	Type EventType
	Rect Rect

	defaultPrevented bool
}

// PreventDefault suppresses the host's default navigation for the event.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// Anchor is an interactive element spliced into the tree in place of a marker.
type Anchor struct {
	Node      *html.Node
	Marker    string
	ContextID string
	Label     string

	listeners map[EventType][]func(*Event)
}

// On registers fn for events of type t.
func (a *Anchor) On(t EventType, fn func(*Event)) {
	if a.listeners == nil {
		a.listeners = make(map[EventType][]func(*Event))
	}
	a.listeners[t] = append(a.listeners[t], fn)
}

// Interactive reports whether any listener is registered. Anchors for
// unresolvable markers stay inert.
func (a *Anchor) Interactive() bool {
	return len(a.listeners) > 0
}

// Dispatch runs the listeners registered for e.Type in registration order and
// reports whether any ran.
func (a *Anchor) Dispatch(e *Event) bool {
	fns := a.listeners[e.Type]
	for _, fn := range fns {
		fn(e)
	}
	return len(fns) > 0
}

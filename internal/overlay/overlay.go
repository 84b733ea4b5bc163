// Package overlay tracks the full-view image layer shown above the terminal.
//
// Hiding is two-step: the layer becomes invisible at once so the client can run
// its exit animation, and the image is released after a short teardown delay.
// Opening again before the teardown fires cancels it.
package overlay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultTeardownDelay matches the client's exit animation.
	DefaultTeardownDelay = 280 * time.Millisecond
	// FilterIDPrefix prefixes the SVG filter ID regenerated on every display.
	FilterIDPrefix = "terminal-old-filter"
	// KeyEscape dismisses a visible overlay.
	KeyEscape = "Escape"
)

// Image is the resource shown in the overlay.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// State is a snapshot of the overlay.
type State struct {
	Visible  bool   `json:"visible"`
	Image    *Image `json:"image,omitempty"`
	FilterID string `json:"filter_id"`
}

// Controller owns the overlay state of one session. It is safe for concurrent
// use because the teardown timer fires on its own goroutine.
type Controller struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	delay    time.Duration
	newID    func() string
	visible  bool
	image    *Image
	filterID string
	teardown clockwork.Timer
	gen      uint64
	released func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithTeardownDelay sets the delay between hiding and releasing the image.
func WithTeardownDelay(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.delay = d
		}
	}
}

// WithIDGenerator replaces the filter ID suffix generator.
func WithIDGenerator(fn func() string) Option {
	return func(ctl *Controller) { ctl.newID = fn }
}

// WithOnRelease registers a callback run after the image is released.
func WithOnRelease(fn func()) Option {
	return func(ctl *Controller) { ctl.released = fn }
}

// New creates a hidden overlay.
func New(opts ...Option) *Controller {
	c := &Controller{
		clock:    clockwork.NewRealClock(),
		delay:    DefaultTeardownDelay,
		newID:    uuid.NewString,
		filterID: FilterIDPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open shows img, cancelling any pending teardown. Each call gets a fresh filter ID.
func (c *Controller) Open(img Image) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTeardownLocked()
	c.gen++
	c.image = &img
	c.visible = true
	c.filterID = FilterIDPrefix + "-" + c.newID()
	return c.stateLocked()
}

// Hide makes the overlay invisible now and releases the image after the teardown delay.
func (c *Controller) Hide() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visible = false
	c.stopTeardownLocked()
	c.gen++
	gen := c.gen
	c.teardown = c.clock.AfterFunc(c.delay, func() { c.release(gen) })
	return c.stateLocked()
}

// HandleKey hides a visible overlay on Escape. The second result reports whether
// the key was consumed.
func (c *Controller) HandleKey(key string) (State, bool) {
	c.mu.Lock()
	visible := c.visible
	c.mu.Unlock()

	if key != KeyEscape || !visible {
		return c.State(), false
	}
	return c.Hide(), true
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// TeardownPending reports whether a release is scheduled.
func (c *Controller) TeardownPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teardown != nil
}

// Close cancels any pending teardown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTeardownLocked()
}

func (c *Controller) release(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.visible {
		c.mu.Unlock()
		return
	}
	c.image = nil
	c.teardown = nil
	fn := c.released
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (c *Controller) stopTeardownLocked() {
	if c.teardown != nil {
		c.teardown.Stop()
		c.teardown = nil
	}
}

func (c *Controller) stateLocked() State {
	s := State{Visible: c.visible, FilterID: c.filterID}
	if c.image != nil {
		img := *c.image
		s.Image = &img
	}
	return s
}

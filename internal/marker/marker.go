package marker

import (
	"math"

	"github.com/ivlev/shoppable/internal/timeline"
)

// Hotspot is the metadata a marker carries for hit resolution and labels
type Hotspot struct {
	ID       string
	Selector string
	Target   string
	Caption  string
}

// Handle is the capability a marker hands to whoever drives it. It exposes
// only seeding, advancing and the path itself; the cached render state stays
// private to the controller.
type Handle interface {
	// StartFrom re-seeds the marker to its pre-appearance state
	StartFrom()
	// MoveTo advances the marker to the given playback time
	MoveTo(t float64)
	// Points returns the keyframes the marker follows
	Points() []timeline.Keyframe
}

// Controller owns one Timeline and caches the state it was last moved to.
type Controller struct {
	hotspot  Hotspot
	timeline *timeline.Timeline
	state    timeline.State
}

// New creates a controller seeded at the pre-appearance state and returns
// it together with its driving handle.
func New(h Hotspot, tl *timeline.Timeline) (*Controller, Handle) {
	if tl == nil {
		tl = timeline.New(nil)
	}
	c := &Controller{
		hotspot:  h,
		timeline: tl,
		state:    tl.Initial(),
	}
	return c, handle{c}
}

// Update recomputes the cached state for the given playback time.
// NaN and negative times are treated as 0.
func (c *Controller) Update(t float64) {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	c.state = c.timeline.At(t)
}

// CurrentState returns the state computed by the last Update
func (c *Controller) CurrentState() timeline.State {
	return c.state
}

// Reset puts the marker back to its pre-appearance state
func (c *Controller) Reset() {
	c.state = c.timeline.Initial()
}

// Hotspot returns the marker metadata
func (c *Controller) Hotspot() Hotspot {
	return c.hotspot
}

// Timeline returns the path the marker follows
func (c *Controller) Timeline() *timeline.Timeline {
	return c.timeline
}

type handle struct {
	c *Controller
}

func (h handle) StartFrom()                  { h.c.Reset() }
func (h handle) MoveTo(t float64)            { h.c.Update(t) }
func (h handle) Points() []timeline.Keyframe { return h.c.timeline.Keyframes() }

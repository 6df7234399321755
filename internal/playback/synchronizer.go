package playback

import (
	"errors"
	"math"
	"time"

	"github.com/ivlev/shoppable/internal/marker"
)

var (
	// ErrDispatching is returned when the handle set is changed from inside a dispatch
	ErrDispatching = errors.New("playback: handle set changed during dispatch")
	// ErrClosed is returned once the synchronizer has been torn down
	ErrClosed = errors.New("playback: synchronizer closed")
)

// PlaybackState is the view of the video surface the synchronizer keeps.
// It only changes in response to surface events.
type PlaybackState struct {
	CurrentTime float64 `json:"currentTime"`
	Running     bool    `json:"running"`
	Duration    float64 `json:"duration,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithDriver replaces the default Smoother
func WithDriver(d Driver) Option {
	return func(s *Synchronizer) { s.driver = d }
}

// WithClock sets the wall clock used by the driver
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// WithDuration sets the media duration when it is known up front
func WithDuration(d float64) Option {
	return func(s *Synchronizer) { s.DurationChanged(d) }
}

// Synchronizer fans playback events out to marker handles.
//
// It is not safe for concurrent use: every method must be called from the
// goroutine that delivers the surface events. Handles may only be registered
// or removed outside a dispatch.
type Synchronizer struct {
	handles   []marker.Handle
	bindings  []*Binding
	observers []func(PlaybackState, float64)

	state    PlaybackState
	position float64
	driver   Driver
	now      func() time.Time

	dispatching bool
	pending     []float64
	closed      bool
}

// New creates a synchronizer with a Smoother driver and the system clock
func New(opts ...Option) *Synchronizer {
	s := &Synchronizer{
		driver: NewSmoother(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds a handle; it will receive every subsequent dispatch
func (s *Synchronizer) Register(h marker.Handle) error {
	switch {
	case s.closed:
		return ErrClosed
	case s.dispatching:
		return ErrDispatching
	}
	s.handles = append(s.handles, h)
	return nil
}

// Deregister removes a handle. Removing an unknown handle is a no-op.
func (s *Synchronizer) Deregister(h marker.Handle) error {
	switch {
	case s.closed:
		return ErrClosed
	case s.dispatching:
		return ErrDispatching
	}
	for i, registered := range s.handles {
		if registered == h {
			s.handles = append(s.handles[:i], s.handles[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of registered handles
func (s *Synchronizer) Len() int {
	return len(s.handles)
}

// OnDispatch registers a callback invoked after every completed dispatch
// with the surface state and the time the handles were moved to.
func (s *Synchronizer) OnDispatch(fn func(state PlaybackState, at float64)) {
	s.observers = append(s.observers, fn)
}

// Bind attaches the synchronizer to an event source. The binding is released
// by Close on the binding or on the synchronizer, whichever comes first.
func (s *Synchronizer) Bind(src Source) (*Binding, error) {
	if s.closed {
		return nil, ErrClosed
	}
	b := &Binding{
		release: src.Subscribe(s),
		onClose: s.dropBinding,
	}
	s.bindings = append(s.bindings, b)
	return b, nil
}

// TimeChanged moves every handle to t. Invalid times are clamped or dropped.
func (s *Synchronizer) TimeChanged(t float64) {
	if s.closed {
		return
	}
	t, ok := s.clamp(t)
	if !ok {
		return
	}
	s.state.CurrentTime = t
	s.driver.Sync(t, s.now())
	s.dispatch(t)
}

// PlayStateChanged resumes or suspends the animation driver
func (s *Synchronizer) PlayStateChanged(running bool) {
	if s.closed {
		return
	}
	if running && s.state.Running {
		return
	}
	s.state.Running = running
	if running {
		// handles may have been ticked past the last time event
		s.driver.Resume(s.position, s.now())
	} else {
		s.driver.Suspend(s.now())
	}
}

// MetadataLoaded records the intrinsic frame size of the media
func (s *Synchronizer) MetadataLoaded(width, height int) {
	if s.closed || width <= 0 || height <= 0 {
		return
	}
	s.state.Width = width
	s.state.Height = height
}

// DurationChanged records the media duration used for clamping.
// Non-finite or non-positive values leave the duration unknown.
func (s *Synchronizer) DurationChanged(d float64) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return
	}
	s.state.Duration = d
}

// Tick lets the driver advance handles between time events. It reports
// whether a dispatch happened.
func (s *Synchronizer) Tick() bool {
	if s.closed || !s.state.Running {
		return false
	}
	est, ok := s.driver.Estimate(s.now())
	if !ok {
		return false
	}
	est, ok = s.clamp(est)
	if !ok {
		return false
	}
	s.dispatch(est)
	return true
}

// State returns the last known surface state
func (s *Synchronizer) State() PlaybackState {
	return s.state
}

// Position returns the time handles were last moved to
func (s *Synchronizer) Position() float64 {
	return s.position
}

// Close detaches every binding, then releases every handle. Further events
// are ignored.
func (s *Synchronizer) Close() {
	if s.closed {
		return
	}
	for len(s.bindings) > 0 {
		s.bindings[0].Close()
	}
	s.driver.Suspend(s.now())
	s.state.Running = false
	s.handles = nil
	s.pending = nil
	s.closed = true
}

// Closed reports whether Close was called
func (s *Synchronizer) Closed() bool {
	return s.closed
}

// dispatch moves all handles to t in registration order. A time event that
// arrives from inside a handle is queued and delivered after the current
// pass completes.
func (s *Synchronizer) dispatch(t float64) {
	if s.dispatching {
		s.pending = append(s.pending, t)
		return
	}

	for {
		s.dispatching = true
		for _, h := range s.handles {
			h.MoveTo(t)
		}
		s.dispatching = false
		s.position = t

		for _, fn := range s.observers {
			fn(s.state, t)
		}

		if len(s.pending) == 0 || s.closed {
			return
		}
		t = s.pending[0]
		s.pending = s.pending[1:]
	}
}

func (s *Synchronizer) clamp(t float64) (float64, bool) {
	if math.IsNaN(t) {
		return 0, false
	}
	if t < 0 {
		t = 0
	}
	if s.state.Duration > 0 {
		return math.Min(t, s.state.Duration), true
	}
	if math.IsInf(t, 1) {
		return 0, false
	}
	return t, true
}

func (s *Synchronizer) dropBinding(b *Binding) {
	for i, bound := range s.bindings {
		if bound == b {
			s.bindings = append(s.bindings[:i], s.bindings[i+1:]...)
			return
		}
	}
}

package engine

import (
	"fmt"
	"time"

	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/marker"
	"github.com/ivlev/shoppable/internal/playback"
	"github.com/ivlev/shoppable/internal/resolver"
	"github.com/ivlev/shoppable/internal/timeline"
)

// DefaultMarkerRadius is the hit radius of a marker in frame-height units
const DefaultMarkerRadius = 0.04

// Options tunes a Scene
type Options struct {
	MarkerRadius float64          // Hit radius, DefaultMarkerRadius when 0
	Clock        func() time.Time // Wall clock for the smoother, time.Now when nil
	Driver       playback.Driver  // Animation driver, a Smoother when nil
}

// MarkerFrame is the render state of one marker plus what a hit on it does
type MarkerFrame struct {
	ID          string               `json:"id"`
	Index       int                  `json:"index"`
	Selector    string               `json:"selector"`
	State       timeline.State       `json:"state"`
	Caption     string               `json:"caption,omitempty"`
	Destination resolver.Destination `json:"link"`
}

type sceneMarker struct {
	controller  *marker.Controller
	handle      marker.Handle
	destination resolver.Destination
}

// Scene is the runtime of one shoppable video: one marker controller per
// hotspot, all driven by a Synchronizer the scene owns. Like the
// Synchronizer it must be used from a single goroutine.
type Scene struct {
	video   *content.ShoppableVideo
	sync    *playback.Synchronizer
	markers []*sceneMarker
	radius  float64
}

// NewScene builds the controllers for every hotspot and registers them in
// display order.
func NewScene(sv *content.ShoppableVideo, opts Options) (*Scene, error) {
	if sv == nil {
		sv = &content.ShoppableVideo{}
	}

	syncOpts := []playback.Option{playback.WithDuration(sv.Video.Duration)}
	if opts.Clock != nil {
		syncOpts = append(syncOpts, playback.WithClock(opts.Clock))
	}
	if opts.Driver != nil {
		syncOpts = append(syncOpts, playback.WithDriver(opts.Driver))
	}

	s := &Scene{
		video:  sv,
		sync:   playback.New(syncOpts...),
		radius: opts.MarkerRadius,
	}
	if s.radius <= 0 {
		s.radius = DefaultMarkerRadius
	}
	s.sync.MetadataLoaded(sv.Video.Width, sv.Video.Height)

	for i, h := range sv.Hotspots {
		c, handle := marker.New(marker.Hotspot{
			ID:       h.ID,
			Selector: h.Selector,
			Target:   h.Target,
			Caption:  h.Caption(),
		}, h.Build())

		if err := s.sync.Register(handle); err != nil {
			s.Close()
			return nil, fmt.Errorf("register hotspot %d (%s): %w", i, h.ID, err)
		}

		s.markers = append(s.markers, &sceneMarker{
			controller:  c,
			handle:      handle,
			destination: resolver.Resolve(resolver.Target{Selector: h.Selector, Target: h.Target}),
		})
	}

	return s, nil
}

// Video returns the content the scene was built from
func (s *Scene) Video() *content.ShoppableVideo {
	return s.video
}

// Sync returns the synchronizer driving the scene, e.g. to Bind a source
func (s *Scene) Sync() *playback.Synchronizer {
	return s.sync
}

// TimeChanged moves every marker to t
func (s *Scene) TimeChanged(t float64) {
	s.sync.TimeChanged(t)
}

// PlayStateChanged starts or stops extrapolation between time events
func (s *Scene) PlayStateChanged(running bool) {
	s.sync.PlayStateChanged(running)
}

// MetadataLoaded records the frame size used for hit geometry
func (s *Scene) MetadataLoaded(width, height int) {
	s.sync.MetadataLoaded(width, height)
}

// DurationChanged sets the media duration times are clamped to
func (s *Scene) DurationChanged(d float64) {
	s.sync.DurationChanged(d)
}

// Tick advances markers along the extrapolated position while playing
func (s *Scene) Tick() bool {
	return s.sync.Tick()
}

// Frame returns the state of every marker in display order
func (s *Scene) Frame() []MarkerFrame {
	frame := make([]MarkerFrame, 0, len(s.markers))
	for i, m := range s.markers {
		h := m.controller.Hotspot()
		frame = append(frame, MarkerFrame{
			ID:          h.ID,
			Index:       i,
			Selector:    h.Selector,
			State:       m.controller.CurrentState(),
			Caption:     h.Caption,
			Destination: m.destination,
		})
	}
	return frame
}

// Visible returns only the markers currently painted
func (s *Scene) Visible() []MarkerFrame {
	var out []MarkerFrame
	for _, f := range s.Frame() {
		if f.State.Visible() {
			out = append(out, f)
		}
	}
	return out
}

// HitTest finds the topmost visible marker whose hit circle contains p
func (s *Scene) HitTest(p timeline.Point) (MarkerFrame, bool) {
	aspect := s.aspect()
	frame := s.Frame()
	for i := len(frame) - 1; i >= 0; i-- {
		f := frame[i]
		if !f.State.Visible() {
			continue
		}
		if resolver.Within(p, f.State.Position, s.radius, aspect) {
			return f, true
		}
	}
	return MarkerFrame{}, false
}

// Reset re-seeds every marker to its pre-appearance state
func (s *Scene) Reset() {
	for _, m := range s.markers {
		m.handle.StartFrom()
	}
}

// Close detaches the scene from its sources and releases every marker
func (s *Scene) Close() {
	s.sync.Close()
	s.markers = nil
}

func (s *Scene) aspect() float64 {
	st := s.sync.State()
	if st.Width > 0 && st.Height > 0 {
		return float64(st.Width) / float64(st.Height)
	}
	return 1
}

package content

import (
	"math"

	"github.com/ivlev/shoppable/internal/timeline"
)

// Director reconciles authored hotspot timings with the media they play on:
// keyframe times are scaled proportionally onto the final duration.
type Director struct {
	Duration float64 // Actual media duration in seconds
	FPS      int     // Keyframe times are snapped to frame boundaries when > 0
}

// NewDirector creates a Director for media of the given duration
func NewDirector(duration float64, fps int) *Director {
	return &Director{
		Duration: duration,
		FPS:      fps,
	}
}

// Retime returns a copy of sv whose keyframe times are scaled from the
// authored video duration to the director's duration. Content without an
// authored duration, or a director without one, is copied unchanged.
func (d *Director) Retime(sv *ShoppableVideo) *ShoppableVideo {
	out := Clone(sv)
	if out == nil {
		return nil
	}
	authored := sv.Video.Duration
	if authored <= 0 || d.Duration <= 0 {
		return out
	}

	timeScale := d.Duration / authored
	for i := range out.Hotspots {
		points := out.Hotspots[i].Timeline.Points
		for j := range points {
			points[j].T = d.snap(points[j].T * timeScale)
		}
	}
	out.Video.Duration = d.Duration
	return out
}

// snap aligns a time to the nearest frame for frame-accurate playback
func (d *Director) snap(t float64) float64 {
	if d.FPS <= 0 {
		return t
	}
	return math.Round(t*float64(d.FPS)) / float64(d.FPS)
}

// Clone deep-copies a shoppable video
func Clone(sv *ShoppableVideo) *ShoppableVideo {
	if sv == nil {
		return nil
	}
	out := *sv
	out.Hotspots = make([]Hotspot, len(sv.Hotspots))
	for i, h := range sv.Hotspots {
		if h.CTA != nil {
			cta := *h.CTA
			h.CTA = &cta
		}
		points := make([]timeline.Keyframe, len(h.Timeline.Points))
		copy(points, h.Timeline.Points)
		for j := range points {
			if points[j].CTA != nil {
				c := *points[j].CTA
				points[j].CTA = &c
			}
		}
		h.Timeline.Points = points
		out.Hotspots[i] = h
	}
	return &out
}

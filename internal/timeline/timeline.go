package timeline

import (
	"math"
	"sort"
)

// Point is a position normalized to the media frame (0..1 on both axes)
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Keyframe is one control point of a marker path
type Keyframe struct {
	T   float64 `yaml:"t" json:"t"`                         // Time offset in seconds
	P   Point   `yaml:"p" json:"p"`                         // Marker position
	CTA *Point  `yaml:"cta,omitempty" json:"cta,omitempty"` // Caption position
}

// State is the interpolated render state of a marker at a given time
type State struct {
	Position Point   `json:"position"`
	Opacity  float64 `json:"opacity"`
	Caption  *Point  `json:"caption,omitempty"`
}

// Visible reports whether the marker should be painted at all
func (s State) Visible() bool {
	return s.Opacity > 0
}

// Timeline is an immutable, time-ordered sequence of keyframes for one marker.
type Timeline struct {
	keyframes []Keyframe
}

// New builds a Timeline from raw keyframes. It never fails: NaN keyframes are
// dropped, negative times are clamped to zero, points are clamped into the
// unit square and the result is stably sorted by time.
func New(keyframes []Keyframe) *Timeline {
	kfs := make([]Keyframe, 0, len(keyframes))
	for _, kf := range keyframes {
		if math.IsNaN(kf.T) || math.IsInf(kf.T, 0) {
			continue
		}
		if kf.T < 0 {
			kf.T = 0
		}
		kf.P = kf.P.Clamp()
		if kf.CTA != nil {
			cta := kf.CTA.Clamp()
			kf.CTA = &cta
		}
		kfs = append(kfs, kf)
	}

	sort.SliceStable(kfs, func(i, j int) bool {
		return kfs[i].T < kfs[j].T
	})

	return &Timeline{keyframes: kfs}
}

// Len returns the number of keyframes
func (tl *Timeline) Len() int {
	if tl == nil {
		return 0
	}
	return len(tl.keyframes)
}

// Keyframes returns a copy of the ordered keyframes
func (tl *Timeline) Keyframes() []Keyframe {
	if tl == nil {
		return nil
	}
	out := make([]Keyframe, len(tl.keyframes))
	copy(out, tl.keyframes)
	return out
}

// Start is the appearance time of the marker
func (tl *Timeline) Start() float64 {
	if tl.Len() == 0 {
		return 0
	}
	return tl.keyframes[0].T
}

// End is the disappearance time of the marker
func (tl *Timeline) End() float64 {
	if tl.Len() == 0 {
		return 0
	}
	return tl.keyframes[len(tl.keyframes)-1].T
}

// Active reports whether t falls inside the visible span of the marker
func (tl *Timeline) Active(t float64) bool {
	return tl.At(t).Visible()
}

// Initial is the pre-appearance state: first position, fully transparent
func (tl *Timeline) Initial() State {
	if tl.Len() == 0 {
		return State{}
	}
	first := tl.keyframes[0]
	return State{Position: first.P, Opacity: 0, Caption: copyPoint(first.CTA)}
}

// At calculates the marker state at time t by linear interpolation between
// the surrounding keyframes. The segment leading into the last keyframe fades
// the marker out.
func (tl *Timeline) At(t float64) State {
	n := tl.Len()
	if n == 0 {
		return State{}
	}
	if math.IsNaN(t) {
		return tl.Initial()
	}

	first := tl.keyframes[0]
	last := tl.keyframes[n-1]

	if n == 1 {
		if t == first.T {
			return State{Position: first.P, Opacity: 1, Caption: copyPoint(first.CTA)}
		}
		return tl.Initial()
	}

	if t < first.T {
		return tl.Initial()
	}

	if t >= last.T {
		return State{Position: last.P, Opacity: 0, Caption: tl.captionAt(n-1, n-1, 1)}
	}

	// First keyframe strictly after t; the segment is [idx-1, idx]
	idx := sort.Search(n, func(i int) bool {
		return tl.keyframes[i].T > t
	})
	prev := tl.keyframes[idx-1]
	next := tl.keyframes[idx]

	f := 1.0
	if delta := next.T - prev.T; delta > 0 {
		f = (t - prev.T) / delta
	}

	opacity := 1.0
	if idx == n-1 {
		opacity = 1 - f
	}

	return State{
		Position: Point{
			X: lerp(prev.P.X, next.P.X, f),
			Y: lerp(prev.P.Y, next.P.Y, f),
		},
		Opacity: opacity,
		Caption: tl.captionAt(idx-1, idx, f),
	}
}

// captionAt interpolates the caption when both ends of the segment carry one,
// otherwise it holds the nearest preceding caption.
func (tl *Timeline) captionAt(from, to int, f float64) *Point {
	a := tl.keyframes[from].CTA
	b := tl.keyframes[to].CTA
	if a != nil && b != nil {
		return &Point{X: lerp(a.X, b.X, f), Y: lerp(a.Y, b.Y, f)}
	}
	for i := from; i >= 0; i-- {
		if c := tl.keyframes[i].CTA; c != nil {
			return copyPoint(c)
		}
	}
	return nil
}

// Clamp returns the point forced into the unit square. NaN maps to 0.
func (p Point) Clamp() Point {
	return Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func copyPoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

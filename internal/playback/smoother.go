package playback

import "time"

// Driver advances markers between explicit time events while playback runs.
type Driver interface {
	// Resume starts extrapolating from position at the given wall time
	Resume(position float64, now time.Time)
	// Suspend stops extrapolating
	Suspend(now time.Time)
	// Sync re-anchors the driver on a reported playback position
	Sync(position float64, now time.Time)
	// Estimate returns the extrapolated position; ok is false when suspended
	Estimate(now time.Time) (position float64, ok bool)
}

// Smoother extrapolates the playback head linearly from the last reported
// position, so markers keep moving between sparse timeupdate events.
type Smoother struct {
	Rate float64 // Playback rate, 1.0 when unset

	running  bool
	anchor   float64
	anchorAt time.Time
}

// NewSmoother creates a suspended smoother at normal playback rate
func NewSmoother() *Smoother {
	return &Smoother{Rate: 1.0}
}

func (s *Smoother) Resume(position float64, now time.Time) {
	s.running = true
	s.anchor = position
	s.anchorAt = now
}

func (s *Smoother) Suspend(now time.Time) {
	if s.running {
		s.anchor, _ = s.Estimate(now)
	}
	s.running = false
	s.anchorAt = now
}

func (s *Smoother) Sync(position float64, now time.Time) {
	s.anchor = position
	s.anchorAt = now
}

func (s *Smoother) Estimate(now time.Time) (float64, bool) {
	if !s.running {
		return s.anchor, false
	}
	rate := s.Rate
	if rate <= 0 {
		rate = 1.0
	}
	elapsed := now.Sub(s.anchorAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return s.anchor + elapsed*rate, true
}

// Running reports whether the smoother is extrapolating
func (s *Smoother) Running() bool {
	return s.running
}

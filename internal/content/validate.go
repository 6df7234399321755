package content

import (
	"fmt"
	"math"

	"github.com/ivlev/shoppable/internal/resolver"
)

// IssueKind classifies a content problem. None of them are fatal: the
// affected hotspot degrades (invisible marker, no-op link) instead.
type IssueKind string

const (
	IssueEmptyTimeline   IssueKind = "empty_timeline"
	IssueUnknownSelector IssueKind = "unknown_selector"
	IssueOutOfFrame      IssueKind = "out_of_frame"
	IssueUnordered       IssueKind = "unordered_keyframes"
	IssueBadTime         IssueKind = "bad_time"
	IssuePastEnd         IssueKind = "past_end"
)

// Issue is one problem found in a content file
type Issue struct {
	HotspotID string
	Kind      IssueKind
	Message   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.HotspotID, i.Message, i.Kind)
}

// Validate reports every structural problem of sv. Zero hotspots is valid.
func Validate(sv *ShoppableVideo) []Issue {
	if sv == nil {
		return nil
	}

	var issues []Issue
	add := func(h Hotspot, kind IssueKind, format string, args ...any) {
		issues = append(issues, Issue{HotspotID: h.ID, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	for _, h := range sv.Hotspots {
		if !resolver.Known(h.Selector) {
			add(h, IssueUnknownSelector, "selector %q has no destination, link disabled", h.Selector)
		}

		points := h.Timeline.Points
		if len(points) == 0 {
			add(h, IssueEmptyTimeline, "no keyframes, marker never shown")
			continue
		}

		for i, kf := range points {
			if math.IsNaN(kf.T) || math.IsInf(kf.T, 0) || kf.T < 0 {
				add(h, IssueBadTime, "keyframe %d has invalid time %v", i, kf.T)
			}
			if !inFrame(kf.P.X) || !inFrame(kf.P.Y) {
				add(h, IssueOutOfFrame, "keyframe %d position (%.3f, %.3f) outside the frame", i, kf.P.X, kf.P.Y)
			}
			if kf.CTA != nil && (!inFrame(kf.CTA.X) || !inFrame(kf.CTA.Y)) {
				add(h, IssueOutOfFrame, "keyframe %d caption (%.3f, %.3f) outside the frame", i, kf.CTA.X, kf.CTA.Y)
			}
			if i > 0 && kf.T < points[i-1].T {
				add(h, IssueUnordered, "keyframe %d at %.3fs precedes keyframe %d at %.3fs", i, kf.T, i-1, points[i-1].T)
			}
		}

		if d := sv.Video.Duration; d > 0 {
			if start := h.Build().Start(); start >= d {
				add(h, IssuePastEnd, "appears at %.3fs after the video ends (%.3fs)", start, d)
			}
		}
	}

	return issues
}

func inFrame(v float64) bool {
	return v >= 0 && v <= 1
}

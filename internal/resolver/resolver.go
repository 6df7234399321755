package resolver

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/ivlev/shoppable/internal/timeline"
)

// Selector kinds understood by Resolve. Content may carry them with a leading
// dot (".product") as emitted by the CMS.
const (
	SelectorPage     = "page"
	SelectorLink     = "link"
	SelectorProduct  = "product"
	SelectorCategory = "category"
)

// NoOp is the destination of hotspots whose selector is not recognised
const NoOp = "#"

// Target is the navigable part of a hotspot
type Target struct {
	Selector string
	Target   string
}

// Destination is where a hit on a hotspot leads
type Destination struct {
	URL   string `json:"destination"`
	Label string `json:"label"`
}

// Resolve maps a hotspot target to its destination and label. It never fails.
func Resolve(t Target) Destination {
	return Destination{
		URL:   Link(t),
		Label: Label(t),
	}
}

// Link returns the destination URL or path for a target
func Link(t Target) string {
	switch Kind(t.Selector) {
	case SelectorPage:
		return "/" + t.Target
	case SelectorLink:
		return t.Target
	case SelectorProduct:
		return "/product/" + t.Target
	case SelectorCategory:
		return "/category/" + t.Target
	default:
		return NoOp
	}
}

// Label builds the human readable description shown for a hotspot
func Label(t Target) string {
	return fmt.Sprintf("Target: %s | Selector: %s", t.Target, t.Selector)
}

// Kind normalises a selector to one of the Selector constants, or "" when
// the selector is unknown.
func Kind(selector string) string {
	s := strings.ToLower(strings.TrimSpace(selector))
	s = strings.TrimPrefix(s, ".")
	switch s {
	case SelectorPage, SelectorLink, SelectorProduct, SelectorCategory:
		return s
	}
	return ""
}

// Known reports whether the selector maps to a real destination
func Known(selector string) bool {
	return Kind(selector) != ""
}

// Absolute turns a site-relative destination into an absolute URL under base.
// Absolute links, the no-op destination and an empty or invalid base are
// returned unchanged.
func Absolute(base, dest string) string {
	if dest == NoOp || base == "" {
		return dest
	}
	ref, err := url.Parse(dest)
	if err != nil || ref.IsAbs() {
		return dest
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return dest
	}
	return b.ResolveReference(ref).String()
}

// Within reports whether p lies inside the circle of the given radius around
// center. Distances are measured in frame-height units so a marker stays
// round on non-square frames; aspect is width/height (<= 0 means square).
func Within(p, center timeline.Point, radius, aspect float64) bool {
	if aspect <= 0 {
		aspect = 1
	}
	dx := (p.X - center.X) * aspect
	dy := p.Y - center.Y
	return math.Hypot(dx, dy) <= radius
}

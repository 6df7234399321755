package content

import (
	"fmt"
	"net/url"

	"github.com/ivlev/shoppable/internal/timeline"
)

// ShoppableVideo is a video together with the hotspots drawn over it
type ShoppableVideo struct {
	Version  string    `yaml:"version" json:"version"`
	Video    VideoRef  `yaml:"video" json:"video"`
	Hotspots []Hotspot `yaml:"hotspots" json:"hotspots"` // Display (z) order, later is on top
}

// VideoRef points at the media asset on the content delivery host
type VideoRef struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	DefaultHost string  `yaml:"defaultHost" json:"defaultHost"`
	Duration    float64 `yaml:"duration,omitempty" json:"duration,omitempty"` // Seconds, 0 if unknown
	Width       int     `yaml:"width,omitempty" json:"width,omitempty"`
	Height      int     `yaml:"height,omitempty" json:"height,omitempty"`
}

// Hotspot is a clickable marker moving along its own timeline
type Hotspot struct {
	ID       string   `yaml:"id" json:"id"`
	Selector string   `yaml:"selector" json:"selector"` // .page, .link, .product, .category
	Target   string   `yaml:"target" json:"target"`
	CTA      *CTA     `yaml:"cta,omitempty" json:"cta,omitempty"`
	Timeline Timeline `yaml:"timeline" json:"timeline"`
}

// CTA is the caption attached to a hotspot
type CTA struct {
	Caption string `yaml:"caption" json:"caption"`
}

// Timeline is the keyframed path of one hotspot
type Timeline struct {
	Points []timeline.Keyframe `yaml:"points" json:"points"`
}

// SourceURL builds the 720p MP4 rendition URL of the video, or "" when the
// reference is incomplete.
func (v VideoRef) SourceURL() string {
	if v.ID == "" || v.DefaultHost == "" || v.Endpoint == "" || v.Name == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/v/%s/%s/mp4_720p", v.DefaultHost, v.Endpoint, url.PathEscape(v.Name))
}

// Key identifies the video in catalogs: its ID, or its name when the ID is empty
func (v VideoRef) Key() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}

// Caption returns the CTA caption or ""
func (h Hotspot) Caption() string {
	if h.CTA == nil {
		return ""
	}
	return h.CTA.Caption
}

// Build turns the raw points into an immutable Timeline
func (h Hotspot) Build() *timeline.Timeline {
	return timeline.New(h.Timeline.Points)
}

// Normalize fills in missing hotspot IDs so every marker can be addressed
func (sv *ShoppableVideo) Normalize() {
	if sv.Version == "" {
		sv.Version = "1.0"
	}
	seen := make(map[string]bool, len(sv.Hotspots))
	for i := range sv.Hotspots {
		id := sv.Hotspots[i].ID
		if id == "" || seen[id] {
			id = fmt.Sprintf("hotspot_%d", i+1)
			sv.Hotspots[i].ID = id
		}
		seen[id] = true
	}
}

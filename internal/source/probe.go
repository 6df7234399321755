package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// ErrNoVideoStream is returned when the probed file has no video stream
var ErrNoVideoStream = errors.New("source: no video stream")

// Metadata is what the player surface would report once the media loads
type Metadata struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
}

// Surface receives probed metadata, e.g. a playback synchronizer or scene
type Surface interface {
	MetadataLoaded(width, height int)
	DurationChanged(d float64)
}

// Apply reports the metadata to a surface the way a player would
func (m Metadata) Apply(s Surface) {
	s.MetadataLoaded(m.Width, m.Height)
	s.DurationChanged(m.Duration)
}

// Prober runs ffprobe
type Prober struct {
	Path string // ffprobe binary, "ffprobe" when empty
}

// Probe reads duration and frame size of a video file
func (p Prober) Probe(ctx context.Context, path string) (Metadata, error) {
	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,codec_name,avg_frame_rate:format=duration",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Metadata{}, fmt.Errorf("ffprobe failed for %s: %w: %s", path, err, bytes.TrimSpace(stderr.Bytes()))
	}

	m, err := ParseProbe(out.Bytes())
	if err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseProbe decodes ffprobe's JSON output
func ParseProbe(data []byte) (Metadata, error) {
	var probe struct {
		Streams []struct {
			Width        int    `json:"width"`
			Height       int    `json:"height"`
			CodecName    string `json:"codec_name"`
			AvgFrameRate string `json:"avg_frame_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return Metadata{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return Metadata{}, ErrNoVideoStream
	}

	s := probe.Streams[0]
	m := Metadata{
		Width:  s.Width,
		Height: s.Height,
		Codec:  s.CodecName,
		FPS:    parseRate(s.AvgFrameRate),
	}
	if probe.Format.Duration != "" {
		d, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return Metadata{}, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
		}
		m.Duration = d
	}
	return m, nil
}

// parseRate turns "30000/1001" into frames per second
func parseRate(r string) float64 {
	var num, den float64
	if _, err := fmt.Sscanf(r, "%g/%g", &num, &den); err != nil || den == 0 {
		return 0
	}
	return num / den
}

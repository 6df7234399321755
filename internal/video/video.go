package video

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoInput is returned when no source video was given
var ErrNoInput = errors.New("video: no input")

// Burner renders a marker overlay filter onto a video with ffmpeg
type Burner struct {
	FFmpeg  string // Binary, "ffmpeg" when empty
	Encoder string // libx264, h264_videotoolbox or h264_nvenc
	Quality int    // CRF for libx264, CQ for nvenc, bitrate/100 for videotoolbox
	Width   int    // Output size; the source size is kept when 0
	Height  int
}

// Burn writes out: in with filter applied to every frame. An empty filter
// re-encodes the video unchanged. Audio is copied.
func (b *Burner) Burn(ctx context.Context, in, out, filter string) error {
	if in == "" {
		return ErrNoInput
	}
	cmd := exec.CommandContext(ctx, b.binary(), b.burnArgs(in, out, filter)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg burn error: %w, output: %s", err, tail(output))
	}
	return nil
}

// ExtractFrame writes the frame at t seconds of in as an image to out
func (b *Burner) ExtractFrame(ctx context.Context, in string, t float64, out string) error {
	if in == "" {
		return ErrNoInput
	}
	cmd := exec.CommandContext(ctx, b.binary(), b.frameArgs(in, t, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg frame error: %w, output: %s", err, tail(output))
	}
	return nil
}

func (b *Burner) binary() string {
	if b.FFmpeg == "" {
		return "ffmpeg"
	}
	return b.FFmpeg
}

func (b *Burner) burnArgs(in, out, filter string) []string {
	args := []string{"-y", "-i", in}

	var chain []string
	if b.Width > 0 && b.Height > 0 {
		chain = append(chain, fmt.Sprintf("scale=%d:%d", b.Width, b.Height))
	}
	if filter != "" {
		chain = append(chain, filter)
	}
	if len(chain) > 0 {
		args = append(args, "-vf", strings.Join(chain, ","))
	}

	encoder := b.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args = append(args, "-c:v", encoder, "-pix_fmt", "yuv420p")

	quality := b.Quality
	if quality <= 0 {
		quality = 23
	}
	switch encoder {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}

	args = append(args, "-c:a", "copy", out)
	return args
}

func (b *Burner) frameArgs(in string, t float64, out string) []string {
	args := []string{"-y", "-ss", fmt.Sprintf("%.3f", t), "-i", in, "-frames:v", "1"}
	if b.Width > 0 && b.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", b.Width, b.Height))
	}
	return append(args, out)
}

// tail keeps the end of ffmpeg's output, where the error usually is
func tail(output []byte) string {
	const limit = 2048
	s := strings.TrimSpace(string(output))
	if len(s) > limit {
		return "..." + s[len(s)-limit:]
	}
	return s
}

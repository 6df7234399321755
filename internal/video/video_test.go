package video

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBurnArgs(t *testing.T) {
	b := &Burner{Width: 1280, Height: 720}
	args := strings.Join(b.burnArgs("in.mp4", "out.mp4", "drawbox=x=1"), " ")

	want := "-y -i in.mp4 -vf scale=1280:720,drawbox=x=1 -c:v libx264 -pix_fmt yuv420p -crf 23 -preset medium -c:a copy out.mp4"
	if args != want {
		t.Errorf("Unexpected args:\n got: %s\nwant: %s", args, want)
	}
}

func TestBurnArgsEncoders(t *testing.T) {
	tests := []struct {
		encoder string
		quality int
		want    string
	}{
		{"h264_videotoolbox", 75, "-b:v 7500k"},
		{"h264_nvenc", 28, "-cq 28"},
		{"libx264", 18, "-crf 18"},
	}

	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			b := &Burner{Encoder: tt.encoder, Quality: tt.quality}
			args := strings.Join(b.burnArgs("a.mp4", "b.mp4", ""), " ")
			if !strings.Contains(args, tt.want) {
				t.Errorf("Expected %q in %s", tt.want, args)
			}
			if strings.Contains(args, "-vf") {
				t.Errorf("No filter expected without overlay or scaling: %s", args)
			}
		})
	}
}

func TestFrameArgs(t *testing.T) {
	b := &Burner{}
	args := strings.Join(b.frameArgs("in.mp4", 3.5, "still.png"), " ")
	if args != "-y -ss 3.500 -i in.mp4 -frames:v 1 still.png" {
		t.Errorf("Unexpected args: %s", args)
	}
}

func TestNoInput(t *testing.T) {
	b := &Burner{}
	if err := b.Burn(context.Background(), "", "out.mp4", ""); !errors.Is(err, ErrNoInput) {
		t.Errorf("Expected ErrNoInput, got %v", err)
	}
	if err := b.ExtractFrame(context.Background(), "", 0, "x.png"); !errors.Is(err, ErrNoInput) {
		t.Errorf("Expected ErrNoInput, got %v", err)
	}
}

func TestTail(t *testing.T) {
	long := strings.Repeat("a", 5000) + "error at end"
	got := tail([]byte(long))
	if !strings.HasSuffix(got, "error at end") || len(got) > 2100 {
		t.Errorf("Unexpected tail length %d", len(got))
	}
}

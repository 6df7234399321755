package renderer

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/engine"
	"github.com/ivlev/shoppable/internal/system"
	"github.com/ivlev/shoppable/internal/timeline"
)

func loadFixture(t *testing.T) *content.ShoppableVideo {
	t.Helper()
	sv, err := content.Read(filepath.Join("..", "content", "testdata", "spring.yaml"))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return sv
}

func TestPathExpression(t *testing.T) {
	kfs := []timeline.Keyframe{
		{T: 0, P: timeline.Point{X: 0, Y: 0}},
		{T: 2, P: timeline.Point{X: 1, Y: 1}},
	}

	expr := pathExpression(kfs, func(p timeline.Point) float64 { return p.X * 100 })
	want := "if(lt(t,2.0000),0.0000+(t-0.0000)*50.000000,100.0000)"
	if expr != want {
		t.Errorf("Expected %s, got %s", want, expr)
	}
}

func TestPathExpressionZeroDuration(t *testing.T) {
	kfs := []timeline.Keyframe{
		{T: 0, P: timeline.Point{X: 0, Y: 0}},
		{T: 1, P: timeline.Point{X: 0, Y: 0}},
		{T: 1, P: timeline.Point{X: 1, Y: 0}},
		{T: 3, P: timeline.Point{X: 0.5, Y: 0}},
	}

	expr := pathExpression(kfs, func(p timeline.Point) float64 { return p.X * 10 })
	if strings.Count(expr, "if(") != 2 {
		t.Errorf("Zero-duration segment must be skipped, got %s", expr)
	}
	if strings.Contains(expr, "Inf") || strings.Contains(expr, "NaN") {
		t.Errorf("Expression must not divide by zero: %s", expr)
	}
	t.Logf("Expression: %s", expr)
}

func TestMarkerFilter(t *testing.T) {
	sv := loadFixture(t)

	filter := MarkerFilter(sv, FilterOptions{Width: 1280, Height: 720, Size: 24})
	if filter == "" {
		t.Fatal("Expected non-empty filter")
	}

	// jacket and sale: one opaque box plus four fade steps each; lookbook has no keyframes
	if got := strings.Count(filter, "drawbox="); got != 10 {
		t.Errorf("Expected 10 drawbox filters, got %d", got)
	}
	if !strings.Contains(filter, "enable='gte(t,2.0000)*lt(t,6.0000)'") {
		t.Error("Filter should show sale at full opacity from 2s to 6s")
	}
	if !strings.Contains(filter, "color=0xFF8C1A@1.000") {
		t.Error("Filter should paint products orange")
	}
	if !strings.Contains(filter, "color=0x1E90FF@0.125") {
		t.Error("Filter should end the category fade at low alpha")
	}
	if strings.Contains(filter, "drawtext") {
		t.Error("Captions are off by default")
	}

	t.Logf("Generated filter: %s", filter)
}

func TestMarkerFilterCaptions(t *testing.T) {
	sv := loadFixture(t)

	filter := MarkerFilter(sv, FilterOptions{Width: 1280, Height: 720, Captions: true})
	if got := strings.Count(filter, "drawtext="); got != 1 {
		t.Errorf("Expected one caption, got %d", got)
	}
	if !strings.Contains(filter, "text='Linen jacket'") {
		t.Error("Caption text missing")
	}
}

func TestMarkerFilterEmpty(t *testing.T) {
	if f := MarkerFilter(&content.ShoppableVideo{}, FilterOptions{Width: 100, Height: 100}); f != "" {
		t.Errorf("Expected empty filter, got %s", f)
	}
	if f := MarkerFilter(nil, FilterOptions{Width: 100, Height: 100}); f != "" {
		t.Errorf("Expected empty filter for nil content, got %s", f)
	}
}

func TestEscapeText(t *testing.T) {
	if got := escapeText("50% off: it's new, now"); got != `50\% off\: its new\, now` {
		t.Errorf("Unexpected escaping: %s", got)
	}
}

func frameAt(x, y, opacity float64) engine.MarkerFrame {
	return engine.MarkerFrame{
		ID:       "m",
		Selector: ".product",
		State: timeline.State{
			Position: timeline.Point{X: x, Y: y},
			Opacity:  opacity,
		},
	}
}

func TestSnapshot(t *testing.T) {
	opts := SnapshotOptions{Width: 100, Height: 100, Radius: 5}

	img := Snapshot([]engine.MarkerFrame{frameAt(0.5, 0.5, 1)}, opts)
	defer system.PutImage(img)

	want := MarkerColor(".product")
	if got := img.RGBAAt(50, 50); got != want {
		t.Errorf("Expected marker color %v at center, got %v", want, got)
	}
	if got := img.RGBAAt(10, 10); got != (color.RGBA{A: 255}) {
		t.Errorf("Expected black background, got %v", got)
	}
	if got := img.RGBAAt(50, 57); got != (color.RGBA{A: 255}) {
		t.Errorf("Pixel outside the radius must stay untouched, got %v", got)
	}
}

func TestSnapshotOpacity(t *testing.T) {
	opts := SnapshotOptions{Width: 100, Height: 100, Radius: 5}

	img := Snapshot([]engine.MarkerFrame{frameAt(0.5, 0.5, 0.5), frameAt(0.2, 0.2, 0)}, opts)
	defer system.PutImage(img)

	got := img.RGBAAt(50, 50)
	if got.R < 120 || got.R > 136 {
		t.Errorf("Expected half-blended red channel, got %v", got)
	}
	if got := img.RGBAAt(20, 20); got != (color.RGBA{A: 255}) {
		t.Errorf("Invisible marker must not be drawn, got %v", got)
	}
}

func TestSnapshotBackgroundAndLabels(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := range bg.Pix {
		bg.Pix[i] = 0xFF
	}

	f := frameAt(0.5, 0.5, 1)
	f.Caption = "Linen jacket"
	f.State.Caption = &timeline.Point{X: 0.1, Y: 0.9}

	img := Snapshot([]engine.MarkerFrame{f}, SnapshotOptions{Width: 64, Height: 64, Background: bg, Labels: true})
	defer system.PutImage(img)

	if got := img.RGBAAt(63, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected background at corner, got %v", got)
	}
	// label box darkens the padding just above-left of the caption text
	if got := img.RGBAAt(5, 46); got.R == 255 && got.G == 255 {
		t.Errorf("Expected label drawn near caption position, got %v", got)
	}
}

func TestRenderSequence(t *testing.T) {
	sv := loadFixture(t)
	dir := t.TempDir()

	times := []float64{0, 1, 4, 7, 9}
	paths, err := RenderSequence(context.Background(), sv, times, dir, SnapshotOptions{Width: 160, Height: 90}, 2)
	if err != nil {
		t.Fatalf("RenderSequence failed: %v", err)
	}
	if len(paths) != len(times) {
		t.Fatalf("Expected %d files, got %d", len(times), len(paths))
	}
	for i, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Frame %d not written: %v", i, err)
		}
	}
	if filepath.Base(paths[2]) != "frame_00002.png" {
		t.Errorf("Unexpected file name %s", paths[2])
	}
}

func TestRenderSequenceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RenderSequence(ctx, loadFixture(t), []float64{1, 2}, t.TempDir(), SnapshotOptions{Width: 16, Height: 9}, 1)
	if err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}

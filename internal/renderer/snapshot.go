package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/engine"
	"github.com/ivlev/shoppable/internal/system"
	"github.com/ivlev/shoppable/internal/timeline"
)

// SnapshotOptions controls how a frame of markers is painted
type SnapshotOptions struct {
	Width      int
	Height     int
	Radius     int         // Marker radius in pixels, derived from the hit radius when 0
	Background image.Image // Video still drawn under the markers, black when nil
	Labels     bool
}

// Snapshot paints every visible marker of frame with alpha = opacity.
// The canvas comes from the image pool; hand it back with system.PutImage.
func Snapshot(frame []engine.MarkerFrame, opts SnapshotOptions) *image.RGBA {
	rect := image.Rect(0, 0, opts.Width, opts.Height)
	canvas := system.GetImage(rect)

	if opts.Background != nil {
		draw.Draw(canvas, rect, opts.Background, opts.Background.Bounds().Min, draw.Src)
	} else {
		draw.Draw(canvas, rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	radius := opts.Radius
	if radius <= 0 {
		radius = int(math.Max(4, math.Round(engine.DefaultMarkerRadius*float64(opts.Height))))
	}

	for _, f := range frame {
		if !f.State.Visible() {
			continue
		}
		center := toPixel(f.State.Position, opts)
		drawDisc(canvas, center, radius, MarkerColor(f.Selector), f.State.Opacity)

		if opts.Labels {
			at := center.Add(image.Pt(radius+4, 4))
			if f.State.Caption != nil {
				at = toPixel(*f.State.Caption, opts)
			}
			drawLabel(canvas, at, labelFor(f))
		}
	}

	return canvas
}

func labelFor(f engine.MarkerFrame) string {
	if f.Caption != "" {
		return f.Caption
	}
	return f.Destination.URL
}

func toPixel(p timeline.Point, opts SnapshotOptions) image.Point {
	return image.Pt(
		int(math.Round(p.X*float64(opts.Width))),
		int(math.Round(p.Y*float64(opts.Height))),
	)
}

// disc is an alpha mask of a filled circle
type disc struct {
	center image.Point
	r      int
}

func (d *disc) ColorModel() color.Model { return color.AlphaModel }

func (d *disc) Bounds() image.Rectangle {
	return image.Rect(d.center.X-d.r, d.center.Y-d.r, d.center.X+d.r+1, d.center.Y+d.r+1)
}

func (d *disc) At(x, y int) color.Color {
	dx, dy := x-d.center.X, y-d.center.Y
	if dx*dx+dy*dy <= d.r*d.r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

func drawDisc(dst *image.RGBA, center image.Point, r int, c color.RGBA, opacity float64) {
	mask := &disc{center: center, r: r}
	bounds := mask.Bounds().Intersect(dst.Bounds())
	if bounds.Empty() {
		return
	}
	fill := color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(255 * math.Min(1, opacity)))}
	draw.DrawMask(dst, bounds, image.NewUniform(fill), image.Point{}, mask, bounds.Min, draw.Over)
}

func drawLabel(dst *image.RGBA, at image.Point, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()

	box := image.Rect(at.X-2, at.Y-metrics.Ascent.Ceil()-2, at.X+width+2, at.Y+metrics.Descent.Ceil()+2)
	draw.Draw(dst, box, image.NewUniform(color.NRGBA{A: 0x99}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(text)
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SavePNG writes img to path, creating parent directories
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// RenderSequence writes one snapshot per time into dir and returns the file
// paths in the order of times. Every worker drives its own Scene.
func RenderSequence(ctx context.Context, sv *content.ShoppableVideo, times []float64, dir string, opts SnapshotOptions, workers int) ([]string, error) {
	if workers < 1 {
		workers = 1
	}
	paths := make([]string, len(times))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, t := range times {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			scene, err := engine.NewScene(sv, engine.Options{})
			if err != nil {
				return err
			}
			defer scene.Close()

			scene.MetadataLoaded(opts.Width, opts.Height)
			scene.TimeChanged(t)

			img := Snapshot(scene.Frame(), opts)
			defer system.PutImage(img)

			path := filepath.Join(dir, fmt.Sprintf("frame_%05d.png", i))
			if err := SavePNG(path, img); err != nil {
				return fmt.Errorf("snapshot at %.3fs: %w", t, err)
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

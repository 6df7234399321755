package renderer

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/timeline"
)

// FilterOptions controls the burnt-in marker overlay
type FilterOptions struct {
	Width     int  // Output frame width in pixels
	Height    int  // Output frame height in pixels
	Size      int  // Marker box edge in pixels
	FadeSteps int  // Boxes approximating the final-segment fade, 4 when 0
	Captions  bool // Adds drawtext captions; needs ffmpeg built with libfreetype
}

// MarkerFilter creates an FFmpeg drawbox chain painting every hotspot along
// its keyframed path. Positions follow the same piecewise-linear path as
// Timeline.At. drawbox colors are static, so the fade over the final segment
// is drawn as FadeSteps boxes of decreasing alpha. Hotspots that can never be
// seen (fewer than two keyframes) are skipped; the result is empty when no
// hotspot is drawable.
func MarkerFilter(sv *content.ShoppableVideo, opts FilterOptions) string {
	if sv == nil || opts.Width <= 0 || opts.Height <= 0 {
		return ""
	}
	if opts.Size <= 0 {
		opts.Size = 24
	}
	if opts.FadeSteps <= 0 {
		opts.FadeSteps = 4
	}

	var parts []string
	for _, h := range sv.Hotspots {
		tl := h.Build()
		if tl.Len() < 2 {
			continue
		}
		kfs := tl.Keyframes()
		parts = append(parts, markerBoxes(kfs, MarkerColor(h.Selector), opts)...)
		if opts.Captions && h.Caption() != "" {
			parts = append(parts, captionText(kfs, h.Caption(), opts))
		}
	}

	return strings.Join(parts, ",")
}

// markerBoxes draws one box over the fully opaque part of the path and
// FadeSteps boxes over the final segment.
func markerBoxes(kfs []timeline.Keyframe, c color.RGBA, opts FilterOptions) []string {
	half := float64(opts.Size) / 2
	xExpr := pathExpression(kfs, func(p timeline.Point) float64 { return p.X*float64(opts.Width) - half })
	yExpr := pathExpression(kfs, func(p timeline.Point) float64 { return p.Y*float64(opts.Height) - half })

	n := len(kfs)
	start, fadeFrom, end := kfs[0].T, kfs[n-2].T, kfs[n-1].T

	var boxes []string
	if fadeFrom > start {
		boxes = append(boxes, drawbox(xExpr, yExpr, opts.Size, ffmpegColor(c, 1), start, fadeFrom))
	}

	span := end - fadeFrom
	if span <= 0 {
		return boxes
	}
	steps := float64(opts.FadeSteps)
	for s := 0; s < opts.FadeSteps; s++ {
		from := fadeFrom + span*float64(s)/steps
		to := fadeFrom + span*float64(s+1)/steps
		alpha := 1 - (float64(s)+0.5)/steps
		boxes = append(boxes, drawbox(xExpr, yExpr, opts.Size, ffmpegColor(c, alpha), from, to))
	}
	return boxes
}

func drawbox(xExpr, yExpr string, size int, fill string, from, to float64) string {
	return fmt.Sprintf("drawbox=x='%s':y='%s':w=%d:h=%d:color=%s:t=fill:enable='%s'",
		xExpr, yExpr, size, size, fill, window(from, to))
}

func captionText(kfs []timeline.Keyframe, caption string, opts FilterOptions) string {
	half := float64(opts.Size) / 2
	xExpr := pathExpression(kfs, func(p timeline.Point) float64 { return p.X*float64(opts.Width) + half + 4 })
	yExpr := pathExpression(kfs, func(p timeline.Point) float64 { return p.Y*float64(opts.Height) - half })

	return fmt.Sprintf("drawtext=text='%s':x='%s':y='%s':fontsize=18:fontcolor=white:box=1:boxcolor=black@0.5:enable='%s'",
		escapeText(caption), xExpr, yExpr, window(kfs[0].T, kfs[len(kfs)-1].T))
}

// pathExpression builds a nested if() over the segments of kfs evaluating to
// coord of the interpolated point at time t. Zero-duration segments are
// skipped; at and after the last keyframe it holds the last value.
func pathExpression(kfs []timeline.Keyframe, coord func(timeline.Point) float64) string {
	n := len(kfs)
	expr := fmt.Sprintf("%.4f", coord(kfs[n-1].P))

	for i := n - 2; i >= 0; i-- {
		dur := kfs[i+1].T - kfs[i].T
		if dur <= 0 {
			continue
		}
		from, to := coord(kfs[i].P), coord(kfs[i+1].P)
		if from == to {
			expr = fmt.Sprintf("if(lt(t,%.4f),%.4f,%s)", kfs[i+1].T, from, expr)
			continue
		}
		expr = fmt.Sprintf("if(lt(t,%.4f),%.4f+(t-%.4f)*%.6f,%s)",
			kfs[i+1].T, from, kfs[i].T, (to-from)/dur, expr)
	}
	return expr
}

// window is true on [from, to)
func window(from, to float64) string {
	return fmt.Sprintf("gte(t,%.4f)*lt(t,%.4f)", from, to)
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `'`, ``, `:`, `\:`, `%`, `\%`, `,`, `\,`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

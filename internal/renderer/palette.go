package renderer

import (
	"fmt"
	"image/color"

	"github.com/ivlev/shoppable/internal/resolver"
)

var palette = map[string]color.RGBA{
	resolver.SelectorProduct:  {R: 0xFF, G: 0x8C, B: 0x1A, A: 0xFF},
	resolver.SelectorCategory: {R: 0x1E, G: 0x90, B: 0xFF, A: 0xFF},
	resolver.SelectorPage:     {R: 0x32, G: 0xCD, B: 0x32, A: 0xFF},
	resolver.SelectorLink:     {R: 0xA0, G: 0x40, B: 0xE0, A: 0xFF},
}

var unknownColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}

// MarkerColor is the fill used for a marker of the given selector
func MarkerColor(selector string) color.RGBA {
	if c, ok := palette[resolver.Kind(selector)]; ok {
		return c
	}
	return unknownColor
}

// ffmpegColor formats a color with alpha for drawbox/drawtext
func ffmpegColor(c color.RGBA, alpha float64) string {
	return fmt.Sprintf("0x%02X%02X%02X@%.3f", c.R, c.G, c.B, alpha)
}

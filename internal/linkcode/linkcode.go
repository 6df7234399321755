package linkcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/resolver"
)

// Code is a generated QR image for one hotspot
type Code struct {
	HotspotID string
	URL       string
	Path      string
}

// Options controls QR generation
type Options struct {
	BaseURL string // Site root that relative destinations are joined to
	Size    int    // Image edge in pixels, 256 when 0
	Workers int
}

// Encode renders url as a PNG QR code
func Encode(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", url, err)
	}
	return png, nil
}

// Links returns the absolute destination of every hotspot that has one,
// in hotspot order. Hotspots resolving to the no-op destination are left out.
func Links(sv *content.ShoppableVideo, base string) []Code {
	var codes []Code
	for _, h := range sv.Hotspots {
		dest := resolver.Link(resolver.Target{Selector: h.Selector, Target: h.Target})
		if dest == resolver.NoOp {
			continue
		}
		codes = append(codes, Code{
			HotspotID: h.ID,
			URL:       resolver.Absolute(base, dest),
		})
	}
	return codes
}

// Generate writes one QR PNG per linked hotspot into dir
func Generate(ctx context.Context, sv *content.ShoppableVideo, dir string, opts Options) ([]Code, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	codes := Links(sv, opts.BaseURL)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range codes {
		c := &codes[i]
		c.Path = filepath.Join(dir, fmt.Sprintf("%02d_%s.png", i+1, safeName(c.HotspotID)))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			png, err := Encode(c.URL, opts.Size)
			if err != nil {
				return err
			}
			return os.WriteFile(c.Path, png, 0644)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return codes, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func safeName(id string) string {
	name := unsafeChars.ReplaceAllString(id, "_")
	if name == "" {
		return "hotspot"
	}
	return name
}

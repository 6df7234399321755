package linkcode

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/shoppable/internal/content"
)

func TestLinks(t *testing.T) {
	sv := &content.ShoppableVideo{Hotspots: []content.Hotspot{
		{ID: "a", Selector: ".product", Target: "sku-1"},
		{ID: "b", Selector: ".banner", Target: "x"},
		{ID: "c", Selector: ".link", Target: "https://other.example.com/x"},
	}}

	codes := Links(sv, "https://shop.example.com")
	if len(codes) != 2 {
		t.Fatalf("Expected 2 links (unknown selector skipped), got %d", len(codes))
	}
	if codes[0].URL != "https://shop.example.com/product/sku-1" {
		t.Errorf("Unexpected URL %s", codes[0].URL)
	}
	if codes[1].URL != "https://other.example.com/x" {
		t.Errorf("Absolute link must be kept, got %s", codes[1].URL)
	}
}

func TestEncode(t *testing.T) {
	data, err := Encode("https://shop.example.com/product/sku-1", 128)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("Expected 128px image, got %d", img.Bounds().Dx())
	}
}

func TestGenerate(t *testing.T) {
	sv, err := content.Read(filepath.Join("..", "content", "testdata", "spring.yaml"))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "qr")

	codes, err := Generate(context.Background(), sv, dir, Options{BaseURL: "https://shop.example.com", Size: 64, Workers: 2})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(codes) != 3 {
		t.Fatalf("Expected 3 codes, got %d", len(codes))
	}
	for _, c := range codes {
		if _, err := os.Stat(c.Path); err != nil {
			t.Errorf("QR for %s not written: %v", c.HotspotID, err)
		}
		t.Logf("%s -> %s (%s)", c.HotspotID, c.URL, filepath.Base(c.Path))
	}
	if filepath.Base(codes[1].Path) != "02_sale.png" {
		t.Errorf("Unexpected file name %s", codes[1].Path)
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"jacket":     "jacket",
		"a/b c":      "a_b_c",
		"":           "hotspot",
		"sku-42_red": "sku-42_red",
	}
	for in, want := range tests {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q): expected %q, got %q", in, want, got)
		}
	}
}

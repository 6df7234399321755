package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/shoppable/internal/content"
)

const extraVideo = `
video:
  id: vid-extra
  name: Extra
hotspots:
  - selector: .page
    target: about
    timeline:
      points:
        - {t: 0, p: {x: 0.5, y: 0.5}}
        - {t: 2, p: {x: 0.6, y: 0.5}}
`

func TestCatalogReload(t *testing.T) {
	dir := fixtureDir(t)
	c, err := NewCatalog(dir)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Expected 1 video, got %d", c.Len())
	}

	if err := os.WriteFile(filepath.Join(dir, "extra.yml"), []byte(extraVideo), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("hotspots: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 videos (broken file skipped), got %d", c.Len())
	}

	sv, ok := c.Get("vid-extra")
	if !ok || sv.Hotspots[0].ID != "hotspot_1" {
		t.Fatalf("Expected normalized extra video, got %+v", sv)
	}
}

func TestCatalogGetReturnsCopy(t *testing.T) {
	c, err := NewCatalog(fixtureDir(t))
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	sv, _ := c.Get("vid-spring-01")
	sv.Hotspots[0].Timeline.Points[0].T = 99

	again, _ := c.Get("vid-spring-01")
	if again.Hotspots[0].Timeline.Points[0].T != 0 {
		t.Error("Sessions must not share content")
	}
}

func TestCatalogPut(t *testing.T) {
	c, err := NewCatalog(t.TempDir())
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	c.Put(&content.ShoppableVideo{Video: content.VideoRef{Name: "named-only"}})
	if _, ok := c.Get("named-only"); !ok {
		t.Error("Video without ID should be keyed by name")
	}
}

func TestCatalogMissingDir(t *testing.T) {
	if _, err := NewCatalog(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestCatalogWatch(t *testing.T) {
	dir := fixtureDir(t)
	c, err := NewCatalog(dir)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, 20*time.Millisecond) }()
	defer func() {
		cancel()
		<-done
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(extraVideo), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for c.Len() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Catalog was not reloaded, %d videos", c.Len())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

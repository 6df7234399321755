package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "missing.env"))

	if c.Width != 1280 || c.Height != 720 || c.FPS != 30 {
		t.Errorf("Unexpected frame defaults: %dx%d@%d", c.Width, c.Height, c.FPS)
	}
	if c.Workers < 1 {
		t.Errorf("Expected at least one worker, got %d", c.Workers)
	}
	if c.TickInterval != 50*time.Millisecond {
		t.Errorf("Expected 50ms tick, got %s", c.TickInterval)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SHOPPABLE_FPS", "25")
	t.Setenv("SHOPPABLE_MARKER_RADIUS", "0.08")
	t.Setenv("SHOPPABLE_TICK", "20ms")
	t.Setenv("SHOPPABLE_STATS", "true")
	t.Setenv("SHOPPABLE_WIDTH", "not-a-number")

	c := Load(filepath.Join(t.TempDir(), "missing.env"))

	if c.FPS != 25 {
		t.Errorf("Expected FPS 25, got %d", c.FPS)
	}
	if c.MarkerRadius != 0.08 {
		t.Errorf("Expected radius 0.08, got %.3f", c.MarkerRadius)
	}
	if c.TickInterval != 20*time.Millisecond {
		t.Errorf("Expected 20ms tick, got %s", c.TickInterval)
	}
	if !c.ShowStats {
		t.Error("Expected stats enabled")
	}
	if c.Width != 1280 {
		t.Errorf("Invalid value must keep the default, got %d", c.Width)
	}
}

func TestDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	data := "SHOPPABLE_BASE_URL=https://shop.example.com\nSHOPPABLE_LISTEN=:9090\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	// Registered so the values loaded from the file are unset afterwards
	t.Setenv("SHOPPABLE_BASE_URL", "")
	os.Unsetenv("SHOPPABLE_BASE_URL")
	t.Setenv("SHOPPABLE_LISTEN", "")
	os.Unsetenv("SHOPPABLE_LISTEN")

	c := Load(path)
	if c.BaseURL != "https://shop.example.com" {
		t.Errorf("Expected base URL from .env, got %q", c.BaseURL)
	}
	if c.ListenAddr != ":9090" {
		t.Errorf("Expected listen address from .env, got %q", c.ListenAddr)
	}
}

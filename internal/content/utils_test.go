package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTimestampedPath(t *testing.T) {
	path := TimestampedPath(filepath.Join("output", "snapshots"), "snapshot", ".png")

	if !strings.Contains(path, "snapshot_") {
		t.Errorf("Path should contain 'snapshot_': %s", path)
	}
	if !strings.HasPrefix(path, filepath.Join("output", "snapshots")) {
		t.Errorf("Path should be in output/snapshots: %s", path)
	}
	if filepath.Ext(path) != ".png" {
		t.Errorf("Path should keep the extension: %s", path)
	}

	t.Logf("Generated path: %s", path)
}

func TestFindLatest(t *testing.T) {
	testDir := t.TempDir()

	files := []string{
		filepath.Join(testDir, "spring_2026-02-12.yaml"),
		filepath.Join(testDir, "summer_2026-02-13.yml"),
		filepath.Join(testDir, "autumn_2026-02-11.yaml"),
	}

	for i, f := range files {
		if err := os.WriteFile(f, []byte("version: \"1.0\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(f, modTime, modTime)
	}
	// Non-content files are ignored even when newer
	other := filepath.Join(testDir, "notes.txt")
	os.WriteFile(other, []byte("x"), 0644)
	later := time.Now().Add(10 * time.Hour)
	os.Chtimes(other, later, later)

	latest, err := FindLatest(testDir)
	if err != nil {
		t.Fatalf("FindLatest failed: %v", err)
	}

	t.Logf("Latest content: %s", latest)

	if latest != files[len(files)-1] {
		t.Errorf("Expected latest to be %s, got %s", files[len(files)-1], latest)
	}
}

func TestFindLatestEmpty(t *testing.T) {
	if _, err := FindLatest(t.TempDir()); err == nil {
		t.Error("Expected error for a directory without content files")
	}
	if _, err := FindLatest(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for a missing directory")
	}
}

package server

import (
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fixtureDir(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "content", "testdata", "spring.yaml"))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "spring.yaml"), data, 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	catalog, err := NewCatalog(fixtureDir(t))
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	srv := New(catalog, Options{
		BaseURL:      "https://shop.example.com",
		TickInterval: time.Hour,
		QRSize:       64,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("Decode %s failed: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestListVideos(t *testing.T) {
	_, ts := newTestServer(t)

	var list []Summary
	if code := getJSON(t, ts.URL+"/videos", &list); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(list) != 1 || list[0].ID != "vid-spring-01" || list[0].Hotspots != 3 {
		t.Errorf("Unexpected catalog: %+v", list)
	}

	if code := getJSON(t, ts.URL+"/videos/missing", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown video, got %d", code)
	}
}

func TestResolveEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var out []ResolvedHotspot
	if code := getJSON(t, ts.URL+"/videos/vid-spring-01/resolve", &out); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(out) != 3 {
		t.Fatalf("Expected 3 hotspots, got %d", len(out))
	}
	if out[0].Destination != "/product/sku-42" || out[0].URL != "https://shop.example.com/product/sku-42" {
		t.Errorf("Unexpected product resolution: %+v", out[0])
	}
	if out[0].Label != "Target: sku-42 | Selector: .product" {
		t.Errorf("Unexpected label: %s", out[0].Label)
	}
	if out[2].Destination != "https://shop.example.com/lookbook" {
		t.Errorf("Links must pass through, got %s", out[2].Destination)
	}
}

func TestFrameEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var frame FrameMessage
	if code := getJSON(t, ts.URL+"/videos/vid-spring-01/frame?t=4", &frame); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(frame.Markers) != 2 || frame.Time != 4 {
		t.Errorf("Expected 2 markers at 4s, got %+v", frame)
	}

	if code := getJSON(t, ts.URL+"/videos/vid-spring-01/frame?t=soon", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad time, got %d", code)
	}

	resp, err := http.Get(ts.URL + "/videos/vid-spring-01/frame?t=4&format=png&width=320&height=180")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Expected image/png, got %s", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 180 {
		t.Errorf("Unexpected size %v", img.Bounds())
	}
}

func TestQREndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/videos/vid-spring-01/qr/jacket")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if _, err := png.Decode(resp.Body); err != nil {
		t.Errorf("Invalid PNG: %v", err)
	}

	if code := getJSON(t, ts.URL+"/videos/vid-spring-01/qr/nope", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown hotspot, got %d", code)
	}
}

// socket is a test player
type socket struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, ts *httptest.Server, video string) *socket {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + video
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &socket{t: t, conn: conn}
}

func (s *socket) send(msg string) {
	s.t.Helper()
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		s.t.Fatalf("Send failed: %v", err)
	}
}

func (s *socket) read(v any) {
	s.t.Helper()
	s.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := s.conn.ReadJSON(v); err != nil {
		s.t.Fatalf("Read failed: %v", err)
	}
}

func TestSocketSession(t *testing.T) {
	srv, ts := newTestServer(t)
	ws := dial(t, ts, "vid-spring-01")

	var hello SessionMessage
	ws.read(&hello)
	if hello.Type != MsgTypeSession || hello.Session == "" || hello.Markers != 3 {
		t.Fatalf("Unexpected session message: %+v", hello)
	}
	t.Logf("Session %s, source %s", hello.Session, hello.Source)

	var frame FrameMessage
	ws.read(&frame)
	if frame.Type != MsgTypeFrame || len(frame.Markers) != 0 {
		t.Fatalf("Expected an empty initial frame, got %+v", frame)
	}

	ws.send(`{"type":"time","time":4}`)
	ws.read(&frame)
	if len(frame.Markers) != 2 || frame.Markers[1].ID != "sale" {
		t.Fatalf("Expected jacket and sale at 4s, got %+v", frame)
	}
	if frame.Markers[1].Destination.URL != "/category/women" {
		t.Errorf("Unexpected destination %s", frame.Markers[1].Destination.URL)
	}

	ws.send(`{"type":"hit","x":0.75,"y":0.8}`)
	var hit HitMessage
	ws.read(&hit)
	if hit.ID != "sale" || hit.Destination != "/category/women" || hit.Label != "Target: women | Selector: .category" {
		t.Errorf("Unexpected hit: %+v", hit)
	}

	ws.send(`{"type":"hit","x":0.05,"y":0.05}`)
	ws.read(&hit)
	if hit.Destination != "#" || hit.ID != "" {
		t.Errorf("Expected a miss, got %+v", hit)
	}

	ws.send(`{"type":"play"}`)
	ws.read(&frame)
	if !frame.Running {
		t.Error("Expected running frame after play")
	}

	ws.send(`{"type":"rewind"}`)
	var errMsg ErrorMessage
	ws.read(&errMsg)
	if errMsg.Type != MsgTypeError || !strings.Contains(errMsg.Error, "rewind") {
		t.Errorf("Expected error for unknown type, got %+v", errMsg)
	}

	if srv.Sessions() != 1 {
		t.Errorf("Expected 1 active session, got %d", srv.Sessions())
	}
}

func TestSocketUnknownVideo(t *testing.T) {
	_, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Expected dial to fail for unknown video")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 response, got %v", resp)
	}
}

func TestSocketMetadataClamp(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts, "vid-spring-01")

	var hello SessionMessage
	var frame FrameMessage
	ws.read(&hello)
	ws.read(&frame)

	ws.send(`{"type":"metadata","width":640,"height":360,"duration":5}`)
	ws.send(`{"type":"time","time":30}`)
	ws.read(&frame)
	if frame.Time != 5 {
		t.Errorf("Expected time clamped to reported duration 5, got %.2f", frame.Time)
	}
}

// brokenWriter accepts headers but fails every body write
type brokenWriter struct {
	header http.Header
}

func (b *brokenWriter) Header() http.Header       { return b.header }
func (b *brokenWriter) WriteHeader(int)           {}
func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteFailuresAreLogged(t *testing.T) {
	srv, ts := newTestServer(t)
	core, logs := observer.New(zapcore.DebugLevel)
	srv.log = zap.New(core)

	srv.writeJSON(&brokenWriter{header: http.Header{}}, http.StatusOK, map[string]string{"status": "ok"})
	if n := logs.FilterMessage("Response write failed").Len(); n != 1 {
		t.Errorf("Expected the failed JSON write to be logged once, got %d", n)
	}

	req := httptest.NewRequest(http.MethodGet, ts.URL+"/videos/vid-spring-01/qr/jacket", nil)
	srv.Handler().ServeHTTP(&brokenWriter{header: http.Header{}}, req)
	entries := logs.FilterMessage("QR write failed").All()
	if len(entries) != 1 {
		t.Fatalf("Expected the failed QR write to be logged once, got %d", len(entries))
	}
	t.Logf("Logged: %s %v", entries[0].Message, entries[0].ContextMap())
}

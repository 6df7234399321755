package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ivlev/shoppable/internal/engine"
	"github.com/ivlev/shoppable/internal/linkcode"
	"github.com/ivlev/shoppable/internal/logger"
	"github.com/ivlev/shoppable/internal/renderer"
	"github.com/ivlev/shoppable/internal/resolver"
	"github.com/ivlev/shoppable/internal/system"
)

// Options configures the session server
type Options struct {
	Addr         string
	MarkerRadius float64
	TickInterval time.Duration
	BaseURL      string // Site root for absolute links and QR codes
	QRSize       int
}

// Server exposes the catalog over HTTP and runs one Scene per websocket
type Server struct {
	catalog  *Catalog
	opts     Options
	router   *mux.Router
	upgrader websocket.Upgrader
	log      *zap.Logger

	baseCtx  context.Context
	sessions sync.WaitGroup
	active   atomic.Int64
}

// New creates a server over catalog
func New(catalog *Catalog, opts Options) *Server {
	s := &Server{
		catalog: catalog,
		opts:    opts,
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // any origin
			},
		},
		log:     logger.Named("server"),
		baseCtx: context.Background(),
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/videos", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/videos/{video}", s.handleVideo).Methods(http.MethodGet)
	s.router.HandleFunc("/videos/{video}/resolve", s.handleResolve).Methods(http.MethodGet)
	s.router.HandleFunc("/videos/{video}/frame", s.handleFrame).Methods(http.MethodGet)
	s.router.HandleFunc("/videos/{video}/qr/{hotspot}", s.handleQR).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/{video}", s.handleSocket).Methods(http.MethodGet)

	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the number of open websocket sessions
func (s *Server) Sessions() int64 {
	return s.active.Load()
}

// ListenAndServe serves until ctx is done, then closes every session
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.baseCtx = ctx

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", zap.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.Wait()
	s.log.Info("Server stopped")
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"videos":   s.catalog.Len(),
		"sessions": s.Sessions(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.catalog.Get(mux.Vars(r)["video"])
	if !ok {
		http.Error(w, "video not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, sv)
}

// ResolvedHotspot is the navigation target of one hotspot
type ResolvedHotspot struct {
	ID          string `json:"id"`
	Selector    string `json:"selector"`
	Target      string `json:"target"`
	Destination string `json:"destination"`
	Label       string `json:"label"`
	URL         string `json:"url"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.catalog.Get(mux.Vars(r)["video"])
	if !ok {
		http.Error(w, "video not found", http.StatusNotFound)
		return
	}

	out := make([]ResolvedHotspot, 0, len(sv.Hotspots))
	for _, h := range sv.Hotspots {
		d := resolver.Resolve(resolver.Target{Selector: h.Selector, Target: h.Target})
		out = append(out, ResolvedHotspot{
			ID:          h.ID,
			Selector:    h.Selector,
			Target:      h.Target,
			Destination: d.URL,
			Label:       d.Label,
			URL:         resolver.Absolute(s.opts.BaseURL, d.URL),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleFrame renders the markers at ?t= as JSON, or as PNG with ?format=png
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.catalog.Get(mux.Vars(r)["video"])
	if !ok {
		http.Error(w, "video not found", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	t, err := strconv.ParseFloat(q.Get("t"), 64)
	if err != nil {
		http.Error(w, "query parameter t must be a number of seconds", http.StatusBadRequest)
		return
	}

	scene, err := engine.NewScene(sv, engine.Options{MarkerRadius: s.opts.MarkerRadius})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer scene.Close()
	scene.TimeChanged(t)

	if q.Get("format") != "png" {
		markers := scene.Visible()
		if markers == nil {
			markers = []engine.MarkerFrame{}
		}
		s.writeJSON(w, http.StatusOK, FrameMessage{
			Type:    MsgTypeFrame,
			Time:    scene.Sync().Position(),
			Markers: markers,
		})
		return
	}

	width, height := frameSize(q.Get("width"), q.Get("height"), sv.Video.Width, sv.Video.Height)
	img := renderer.Snapshot(scene.Frame(), renderer.SnapshotOptions{Width: width, Height: height, Labels: true})
	defer system.PutImage(img)

	w.Header().Set("Content-Type", "image/png")
	if err := renderer.EncodePNG(w, img); err != nil {
		s.log.Warn("PNG encode failed", zap.Error(err))
	}
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sv, ok := s.catalog.Get(vars["video"])
	if !ok {
		http.Error(w, "video not found", http.StatusNotFound)
		return
	}

	for _, c := range linkcode.Links(sv, s.opts.BaseURL) {
		if c.HotspotID != vars["hotspot"] {
			continue
		}
		png, err := linkcode.Encode(c.URL, s.opts.QRSize)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if _, err := w.Write(png); err != nil {
			s.log.Debug("QR write failed", zap.String("hotspot", c.HotspotID), zap.Error(err))
		}
		return
	}
	http.Error(w, "hotspot not found or has no link", http.StatusNotFound)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.catalog.Get(mux.Vars(r)["video"])
	if !ok {
		http.Error(w, "video not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sess, err := newSession(conn, sv, s.opts, s.log)
	if err != nil {
		s.log.Error("Session setup failed", zap.Error(err))
		return
	}

	s.sessions.Add(1)
	s.active.Add(1)
	defer func() {
		s.active.Add(-1)
		s.sessions.Done()
	}()

	sess.run(s.baseCtx)
}

func frameSize(qw, qh string, vw, vh int) (int, int) {
	w, errW := strconv.Atoi(qw)
	h, errH := strconv.Atoi(qh)
	if errW == nil && errH == nil && w > 0 && h > 0 && w <= 3840 && h <= 2160 {
		return w, h
	}
	if vw > 0 && vh > 0 {
		return vw, vh
	}
	return 1280, 720
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("Response write failed", zap.Error(err))
	}
}

package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/engine"
	"github.com/ivlev/shoppable/internal/playback"
	"github.com/ivlev/shoppable/internal/resolver"
	"github.com/ivlev/shoppable/internal/timeline"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 4096
)

// session drives one Scene from one player connection. Everything but the
// read pump runs on the goroutine calling run.
type session struct {
	id    string
	conn  *websocket.Conn
	video *content.ShoppableVideo
	scene *engine.Scene
	feed  *playback.Feed
	tick  time.Duration
	log   *zap.Logger
	dirty bool
}

func newSession(conn *websocket.Conn, sv *content.ShoppableVideo, opts Options, log *zap.Logger) (*session, error) {
	scene, err := engine.NewScene(sv, engine.Options{MarkerRadius: opts.MarkerRadius})
	if err != nil {
		return nil, err
	}

	feed := &playback.Feed{}
	if _, err := scene.Sync().Bind(feed); err != nil {
		scene.Close()
		return nil, err
	}

	id := uuid.New().String()
	s := &session{
		id:    id,
		conn:  conn,
		video: sv,
		scene: scene,
		feed:  feed,
		tick:  opts.TickInterval,
		log:   log.With(zap.String("session", id), zap.String("video", sv.Video.Key())),
	}
	scene.Sync().OnDispatch(func(playback.PlaybackState, float64) {
		s.dirty = true
	})
	return s, nil
}

// run serves the session until the player disconnects or ctx is done
func (s *session) run(ctx context.Context) {
	defer s.scene.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	events := make(chan []byte)
	readErr := make(chan error, 1)
	go s.readPump(events, readErr, done)

	tick := s.tick
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	s.log.Info("Session started", zap.Int("markers", len(s.video.Hotspots)))
	defer s.log.Info("Session ended")

	hello := SessionMessage{
		Type:    MsgTypeSession,
		Session: s.id,
		Video:   s.video.Video,
		Source:  s.video.Video.SourceURL(),
		Markers: len(s.video.Hotspots),
	}
	if err := s.write(hello); err != nil {
		return
	}
	if err := s.writeFrame(); err != nil {
		return
	}

	for {
		select {
		case data := <-events:
			if err := s.handle(data); err != nil {
				s.log.Debug("Write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			s.scene.Tick()
		case <-pinger.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Connection closed unexpectedly", zap.Error(err))
			}
			return
		case <-ctx.Done():
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}

		if s.dirty {
			s.dirty = false
			if err := s.writeFrame(); err != nil {
				return
			}
		}
	}
}

func (s *session) readPump(events chan<- []byte, readErr chan<- error, done <-chan struct{}) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		select {
		case events <- data:
		case <-done:
			return
		}
	}
}

// handle applies one player message. Only write failures are returned.
func (s *session) handle(data []byte) error {
	s.conn.SetReadDeadline(time.Now().Add(pongWait))

	msg, err := DecodeInbound(data)
	if err != nil {
		return s.write(ErrorMessage{Type: MsgTypeError, Error: err.Error()})
	}

	switch msg.Type {
	case MsgTypeTime:
		s.feed.TimeChanged(msg.Time)
	case MsgTypePlay:
		s.feed.PlayStateChanged(true)
		s.dirty = true
	case MsgTypePause:
		s.feed.PlayStateChanged(false)
		s.dirty = true
	case MsgTypeMetadata:
		s.feed.MetadataLoaded(msg.Width, msg.Height)
		if msg.Duration > 0 {
			s.scene.DurationChanged(msg.Duration)
		}
	case MsgTypeHit:
		return s.write(s.hit(timeline.Point{X: msg.X, Y: msg.Y}))
	}
	return nil
}

func (s *session) hit(p timeline.Point) HitMessage {
	f, ok := s.scene.HitTest(p)
	if !ok {
		return HitMessage{Type: MsgTypeHit, Destination: resolver.NoOp}
	}
	s.log.Debug("Marker hit", zap.String("hotspot", f.ID), zap.String("destination", f.Destination.URL))
	return HitMessage{
		Type:        MsgTypeHit,
		ID:          f.ID,
		Destination: f.Destination.URL,
		Label:       f.Destination.Label,
	}
}

func (s *session) writeFrame() error {
	state := s.scene.Sync().State()
	markers := s.scene.Visible()
	if markers == nil {
		markers = []engine.MarkerFrame{}
	}
	return s.write(FrameMessage{
		Type:    MsgTypeFrame,
		Time:    s.scene.Sync().Position(),
		Running: state.Running,
		Markers: markers,
	})
}

func (s *session) write(v any) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

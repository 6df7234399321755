package server

import (
	"encoding/json"
	"fmt"

	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/engine"
)

// MessageType tags every websocket message
type MessageType string

const (
	// From the player
	MsgTypeTime     MessageType = "time"
	MsgTypePlay     MessageType = "play"
	MsgTypePause    MessageType = "pause"
	MsgTypeMetadata MessageType = "metadata"
	MsgTypeHit      MessageType = "hit"

	// To the player
	MsgTypeSession MessageType = "session"
	MsgTypeFrame   MessageType = "frame"
	MsgTypeError   MessageType = "error"
)

// Inbound is any message sent by the player. Only the fields of its type
// are meaningful.
type Inbound struct {
	Type     MessageType `json:"type"`
	Time     float64     `json:"time,omitempty"`
	Width    int         `json:"width,omitempty"`
	Height   int         `json:"height,omitempty"`
	Duration float64     `json:"duration,omitempty"`
	X        float64     `json:"x,omitempty"`
	Y        float64     `json:"y,omitempty"`
}

// DecodeInbound parses and checks a player message
func DecodeInbound(data []byte) (Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("invalid message: %w", err)
	}
	switch msg.Type {
	case MsgTypeTime, MsgTypePlay, MsgTypePause, MsgTypeMetadata, MsgTypeHit:
		return msg, nil
	case "":
		return msg, fmt.Errorf("message type is required")
	default:
		return msg, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// SessionMessage opens every session
type SessionMessage struct {
	Type    MessageType      `json:"type"`
	Session string           `json:"session"`
	Video   content.VideoRef `json:"video"`
	Source  string           `json:"source,omitempty"`
	Markers int              `json:"markers"`
}

// FrameMessage carries the visible markers after a dispatch
type FrameMessage struct {
	Type    MessageType          `json:"type"`
	Time    float64              `json:"time"`
	Running bool                 `json:"running"`
	Markers []engine.MarkerFrame `json:"markers"`
}

// HitMessage answers a hit query. A miss carries the no-op destination.
type HitMessage struct {
	Type        MessageType `json:"type"`
	ID          string      `json:"id,omitempty"`
	Destination string      `json:"destination"`
	Label       string      `json:"label"`
}

// ErrorMessage reports a rejected player message; the session continues
type ErrorMessage struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

// Package protocol defines the WebSocket messages exchanged between landmark
// detectors, the attention guard and dashboard clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-attention/pkg/landmarks"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Detector → Guard messages
	TypeLandmarks MessageType = "landmarks" // Face mesh for one frame
	TypeNoFace    MessageType = "no_face"   // Frame without a detected face

	// Guard → Detector / dashboard messages
	TypeStatus  MessageType = "status"  // Attention decision
	TypeDisplay MessageType = "display" // Overlay settings
	TypeError   MessageType = "error"   // Rejected message

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Detector → Guard Message Types
// =============================================================================

// LandmarksData carries one frame's face mesh. Points are pixel coordinates
// unless Normalized is set, in which case Width and Height scale them.
type LandmarksData struct {
	landmarks.Record
}

// NoFaceData marks a frame in which the detector found no face
type NoFaceData struct {
	FrameID uint64 `json:"id,omitempty"`
	FrameTS int64  `json:"ts,omitempty"` // Capture time, Unix milliseconds
}

// =============================================================================
// Guard → Client Message Types
// =============================================================================

// StatusData is the per-frame decision pushed to dashboards
type StatusData struct {
	State      string  `json:"state"`
	FaceFound  bool    `json:"face_found"`
	EAR        float64 `json:"ear"`
	Direction  string  `json:"direction"`
	GazeX      float64 `json:"gaze_x"`
	GazeY      float64 `json:"gaze_y"`
	Drowsy     bool    `json:"drowsy"`
	Distracted bool    `json:"distracted"`
	Muted      bool    `json:"muted"`
	FrameTS    int64   `json:"frame_ts"` // Unix milliseconds
}

// DisplayData tells detector overlays what to draw
type DisplayData struct {
	DrawMesh bool `json:"draw_mesh"`
}

// ErrorData explains why a message was rejected
type ErrorData struct {
	Message string `json:"message"`
	FrameID uint64 `json:"id,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

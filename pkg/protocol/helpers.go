package protocol

import (
	"time"

	"github.com/teslashibe/go-attention/pkg/attention"
	"github.com/teslashibe/go-attention/pkg/landmarks"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewLandmarksMessage creates a landmarks message from a record
func NewLandmarksMessage(rec landmarks.Record) (*Message, error) {
	return NewMessage(TypeLandmarks, LandmarksData{Record: rec})
}

// NewNoFaceMessage creates a no-face message
func NewNoFaceMessage(frameID uint64, at time.Time) (*Message, error) {
	return NewMessage(TypeNoFace, NoFaceData{FrameID: frameID, FrameTS: at.UnixMilli()})
}

// NewStatusMessage creates a status message from a decision
func NewStatusMessage(d attention.Decision, muted bool) (*Message, error) {
	return NewMessage(TypeStatus, StatusFromDecision(d, muted))
}

// NewDisplayMessage creates a display settings message
func NewDisplayMessage(drawMesh bool) (*Message, error) {
	return NewMessage(TypeDisplay, DisplayData{DrawMesh: drawMesh})
}

// NewErrorMessage creates an error message
func NewErrorMessage(frameID uint64, text string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: text, FrameID: frameID})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// StatusFromDecision flattens a decision for the wire
func StatusFromDecision(d attention.Decision, muted bool) StatusData {
	return StatusData{
		State:      d.State.String(),
		FaceFound:  d.FaceFound,
		EAR:        d.EAR,
		Direction:  d.Direction.String(),
		GazeX:      d.Gaze.X,
		GazeY:      d.Gaze.Y,
		Drowsy:     d.Drowsy,
		Distracted: d.Distracted,
		Muted:      muted,
		FrameTS:    d.At.UnixMilli(),
	}
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetLandmarksData extracts landmarks data from a message
func (m *Message) GetLandmarksData() (*LandmarksData, error) {
	var data LandmarksData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Frame converts landmarks data to a frame. A missing capture time falls
// back to the envelope timestamp, then to now.
func (d *LandmarksData) Frame(envelopeTS int64) (landmarks.Frame, error) {
	rec := d.Record
	rec.Timestamp = frameTS(rec.Timestamp, envelopeTS)
	return rec.Frame()
}

// GetNoFaceData extracts no-face data from a message
func (m *Message) GetNoFaceData() (*NoFaceData, error) {
	var data NoFaceData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Frame converts no-face data to a frame without a landmark set
func (d *NoFaceData) Frame(envelopeTS int64) landmarks.Frame {
	return landmarks.Frame{ID: d.FrameID, At: time.UnixMilli(frameTS(d.FrameTS, envelopeTS))}
}

// GetStatusData extracts status data from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetDisplayData extracts display data from a message
func (m *Message) GetDisplayData() (*DisplayData, error) {
	var data DisplayData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func frameTS(frame, envelope int64) int64 {
	if frame != 0 {
		return frame
	}
	if envelope != 0 {
		return envelope
	}
	return time.Now().UnixMilli()
}

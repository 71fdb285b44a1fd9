// Package ingest accepts landmark streams from external face-mesh detectors
// over WebSocket and hands decoded frames to the frame loop.
package ingest

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-attention/pkg/landmarks"
	"github.com/teslashibe/go-attention/pkg/protocol"
)

// ErrDetectorNotConnected is returned when sending to an unknown detector.
var ErrDetectorNotConnected = errors.New("ingest: detector not connected")

// FrameHandler receives every decoded frame, face or no face.
type FrameHandler func(detectorID string, frame landmarks.Frame)

// DetectorConnection represents a connected detector
type DetectorConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time
	Frames    uint64

	mu sync.Mutex
}

// Send sends a message to the detector
func (d *DetectorConnection) Send(msg *protocol.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	return d.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections from detectors
type Hub struct {
	mu        sync.RWMutex
	detectors map[string]*DetectorConnection
	logger    *slog.Logger
	onFrame   FrameHandler
	drawMesh  atomic.Bool

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	framesReceived   atomic.Uint64
	noFaceFrames     atomic.Uint64
	rejected         atomic.Uint64
}

// NewHub creates a new detector hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		detectors: make(map[string]*DetectorConnection),
		logger:    logger.With("component", "ingest"),
	}
}

// OnFrame sets the callback for incoming frames
func (h *Hub) OnFrame(callback FrameHandler) {
	h.mu.Lock()
	h.onFrame = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/detector", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/detector", websocket.New(h.handleDetector))
	app.Get("/ws/detector/:id", websocket.New(h.handleDetector))
}

// handleDetector handles a detector WebSocket connection
func (h *Hub) handleDetector(c *websocket.Conn) {
	detectorID := c.Params("id")
	if detectorID == "" {
		detectorID = generateDetectorID()
	}

	det := &DetectorConnection{
		ID:        detectorID,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	h.mu.Lock()
	h.detectors[detectorID] = det
	count := len(h.detectors)
	h.mu.Unlock()

	h.logger.Info("📷 detector connected", "detector", detectorID, "total", count)

	// New detectors learn the current overlay setting right away
	if msg, err := protocol.NewDisplayMessage(h.drawMesh.Load()); err == nil {
		if err := det.Send(msg); err == nil {
			h.messagesSent.Add(1)
		}
	}

	defer func() {
		h.mu.Lock()
		if h.detectors[detectorID] == det {
			delete(h.detectors, detectorID)
		}
		count := len(h.detectors)
		h.mu.Unlock()

		h.logger.Info("📷 detector disconnected", "detector", detectorID, "total", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("detector read error", "detector", detectorID, "error", err)
			return
		}

		det.mu.Lock()
		det.LastSeen = time.Now()
		det.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(det, data)
	}
}

// handleMessage processes an incoming message from a detector
func (h *Hub) handleMessage(det *DetectorConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.reject(det, 0, err)
		return
	}

	h.mu.RLock()
	frameCb := h.onFrame
	h.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeLandmarks:
		lm, err := msg.GetLandmarksData()
		if err != nil {
			h.reject(det, 0, err)
			return
		}
		frame, err := lm.Frame(msg.Timestamp)
		if err != nil {
			h.reject(det, lm.ID, err)
			return
		}
		h.deliver(det, frame, frameCb)

	case protocol.TypeNoFace:
		nf, err := msg.GetNoFaceData()
		if err != nil {
			h.reject(det, 0, err)
			return
		}
		h.noFaceFrames.Add(1)
		h.deliver(det, nf.Frame(msg.Timestamp), frameCb)

	case protocol.TypePing:
		ping, _ := msg.GetPingData()
		id := ""
		if ping != nil {
			id = ping.ID
		}
		h.SendPong(det.ID, id, msg.Timestamp)

	default:
		h.logger.Debug("ignoring message", "detector", det.ID, "type", msg.Type)
	}
}

func (h *Hub) deliver(det *DetectorConnection, frame landmarks.Frame, cb FrameHandler) {
	h.framesReceived.Add(1)
	det.mu.Lock()
	det.Frames++
	det.mu.Unlock()

	if cb != nil {
		cb(det.ID, frame)
	}
}

func (h *Hub) reject(det *DetectorConnection, frameID uint64, err error) {
	h.rejected.Add(1)
	h.logger.Warn("rejected detector message", "detector", det.ID, "frame", frameID, "error", err)

	msg, mErr := protocol.NewErrorMessage(frameID, err.Error())
	if mErr != nil {
		return
	}
	if err := det.Send(msg); err == nil {
		h.messagesSent.Add(1)
	}
}

// SendPong sends a pong response to a detector
func (h *Hub) SendPong(detectorID, id string, pingTS int64) error {
	msg, err := protocol.NewPongMessage(id, pingTS, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	return h.sendToDetector(detectorID, msg)
}

// SetDrawMesh records the overlay setting and pushes it to every detector
func (h *Hub) SetDrawMesh(draw bool) {
	h.drawMesh.Store(draw)
	msg, err := protocol.NewDisplayMessage(draw)
	if err != nil {
		return
	}
	h.Broadcast(msg)
}

// sendToDetector sends a message to a specific detector
func (h *Hub) sendToDetector(detectorID string, msg *protocol.Message) error {
	h.mu.RLock()
	det, ok := h.detectors[detectorID]
	h.mu.RUnlock()

	if !ok {
		return ErrDetectorNotConnected
	}

	h.messagesSent.Add(1)
	return det.Send(msg)
}

// Broadcast sends a message to all connected detectors
func (h *Hub) Broadcast(msg *protocol.Message) {
	for _, det := range h.GetDetectors() {
		h.messagesSent.Add(1)
		if err := det.Send(msg); err != nil {
			h.logger.Debug("broadcast error", "detector", det.ID, "error", err)
		}
	}
}

// GetDetector returns a detector connection by ID
func (h *Hub) GetDetector(detectorID string) *DetectorConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.detectors[detectorID]
}

// GetDetectors returns all connected detectors
func (h *Hub) GetDetectors() []*DetectorConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dets := make([]*DetectorConnection, 0, len(h.detectors))
	for _, d := range h.detectors {
		dets = append(dets, d)
	}
	return dets
}

// DetectorCount returns the number of connected detectors
func (h *Hub) DetectorCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.detectors)
}

// Stats contains hub statistics
type Stats struct {
	DetectorCount    int    `json:"detector_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	FramesReceived   uint64 `json:"frames_received"`
	NoFaceFrames     uint64 `json:"no_face_frames"`
	Rejected         uint64 `json:"rejected"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		DetectorCount:    h.DetectorCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		FramesReceived:   h.framesReceived.Load(),
		NoFaceFrames:     h.noFaceFrames.Load(),
		Rejected:         h.rejected.Load(),
	}
}

// DetectorInfo contains info about a connected detector
type DetectorInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Frames    uint64    `json:"frames"`
}

// GetDetectorInfos returns info about all connected detectors
func (h *Hub) GetDetectorInfos() []DetectorInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]DetectorInfo, 0, len(h.detectors))
	for _, d := range h.detectors {
		d.mu.Lock()
		infos = append(infos, DetectorInfo{
			ID:        d.ID,
			Connected: d.Connected,
			LastSeen:  d.LastSeen,
			Frames:    d.Frames,
		})
		d.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for detector management
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	detectors := api.Group("/detectors")

	detectors.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"detectors": h.GetDetectorInfos(),
			"count":     h.DetectorCount(),
		})
	})

	detectors.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}

// generateDetectorID generates a unique detector ID
func generateDetectorID() string {
	return time.Now().Format("20060102150405.000")
}

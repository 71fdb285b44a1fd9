package web

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-attention/pkg/attention"
	"github.com/teslashibe/go-attention/pkg/history"
	"github.com/teslashibe/go-attention/pkg/hub"
	"github.com/teslashibe/go-attention/pkg/monitor"
	"github.com/teslashibe/go-attention/pkg/protocol"
	"github.com/teslashibe/go-attention/pkg/session"
)

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Decision *attention.Decision `json:"decision,omitempty"`
	Session  session.Snapshot    `json:"session"`
	Stats    monitor.Stats       `json:"stats"`
	Muted    bool                `json:"muted"`
	DrawMesh bool                `json:"draw_mesh"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"session": s.mon.Session().ID(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return c.SendString(s.metricsText())
}

// handleStatus returns the latest decision and session counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		Session:  s.mon.Session().Snapshot(),
		Stats:    s.mon.Stats(),
		Muted:    s.gate.Muted(),
		DrawMesh: s.display.DrawMesh(),
	}
	if d, ok := s.mon.Last(); ok {
		resp.Decision = &d
	}
	return c.JSON(resp)
}

func (s *Server) handleGetAlerts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"muted": s.gate.Muted()})
}

// MuteRequest sets the mute flag. An empty body toggles it.
type MuteRequest struct {
	Muted *bool `json:"muted"`
}

func (s *Server) handleMute(c *fiber.Ctx) error {
	var req MuteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	var muted bool
	if req.Muted == nil {
		muted = s.gate.Toggle()
	} else {
		s.gate.SetMuted(*req.Muted)
		muted = *req.Muted
	}
	s.logger.Info("🔕 alert mute changed", "muted", muted)
	return c.JSON(fiber.Map{"muted": muted})
}

func (s *Server) handleGetDisplay(c *fiber.Ctx) error {
	return c.JSON(protocol.DisplayData{DrawMesh: s.display.DrawMesh()})
}

func (s *Server) handleSetDisplay(c *fiber.Ctx) error {
	var req protocol.DisplayData
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.display.SetDrawMesh(req.DrawMesh)
	return c.JSON(protocol.DisplayData{DrawMesh: s.display.DrawMesh()})
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	if s.history == nil {
		return c.JSON(fiber.Map{"sessions": []*history.Summary{}, "count": 0})
	}

	limit := 0
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
		}
		limit = n
	}

	sessions, err := s.history.List(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if sessions == nil {
		sessions = []*history.Summary{}
	}
	return c.JSON(fiber.Map{"sessions": sessions, "count": len(sessions)})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	if s.history == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "history disabled"})
	}

	sum, err := s.history.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, history.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sum)
}

// handleStatusWS streams decisions to a dashboard client
func (s *Server) handleStatusWS(c *websocket.Conn) {
	// current state first, before the hub owns the writer
	if d, ok := s.mon.Last(); ok {
		if msg, err := protocol.NewStatusMessage(d, s.gate.Muted()); err == nil {
			if data, err := msg.Bytes(); err == nil {
				c.WriteMessage(websocket.TextMessage, data)
			}
		}
	}

	client := hub.NewClient(s.statusHub, c)
	if client == nil {
		return
	}
	client.Run()
}

func (s *Server) metricsText() string {
	snap := s.mon.Session().Snapshot()
	stats := s.mon.Stats()
	muted := 0
	if s.gate.Muted() {
		muted = 1
	}

	text := fmt.Sprintf(`# HELP attention_state_seconds Seconds accumulated per attention state
# TYPE attention_state_seconds counter
attention_state_seconds{state="attentive"} %.3f
attention_state_seconds{state="distracted"} %.3f
attention_state_seconds{state="drowsy"} %.3f

# HELP attention_current_state Current attention state (1 for the active label)
# TYPE attention_current_state gauge
attention_current_state{state="attentive"} %d
attention_current_state{state="distracted"} %d
attention_current_state{state="drowsy"} %d

# HELP attention_frames_processed Total frames classified
# TYPE attention_frames_processed counter
attention_frames_processed %d

# HELP attention_frames_no_face Total frames without a face
# TYPE attention_frames_no_face counter
attention_frames_no_face %d

# HELP attention_frames_skipped Total frames rejected as invalid
# TYPE attention_frames_skipped counter
attention_frames_skipped %d

# HELP attention_frames_per_second Incoming frame rate over the last 60 frames
# TYPE attention_frames_per_second gauge
attention_frames_per_second %.2f

# HELP attention_persistence_errors Total failed session writes
# TYPE attention_persistence_errors counter
attention_persistence_errors %d

# HELP attention_alerts_fired Total alarms triggered
# TYPE attention_alerts_fired counter
attention_alerts_fired %d

# HELP attention_alerts_muted Whether alarms are muted
# TYPE attention_alerts_muted gauge
attention_alerts_muted %d

# HELP attention_dashboard_clients Connected live status clients
# TYPE attention_dashboard_clients gauge
attention_dashboard_clients %d
`,
		snap.Counters.Attentive, snap.Counters.Distracted, snap.Counters.Drowsy,
		boolInt(snap.State == attention.Attentive), boolInt(snap.State == attention.Distracted), boolInt(snap.State == attention.Drowsy),
		stats.Processed, stats.NoFace, stats.Skipped, stats.FPS, stats.PersistenceErrors, stats.AlertsFired,
		muted, s.statusHub.ClientCount(),
	)

	if s.ingest != nil {
		is := s.ingest.GetStats()
		text += fmt.Sprintf(`
# HELP attention_detectors Connected detector count
# TYPE attention_detectors gauge
attention_detectors %d

# HELP attention_detector_messages_received Total detector messages received
# TYPE attention_detector_messages_received counter
attention_detector_messages_received %d
`, is.DetectorCount, is.MessagesReceived)
	}
	return text
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

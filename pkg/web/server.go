// Package web serves the attention dashboard: REST status and controls,
// session history and a live decision stream.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	accesslog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-attention/pkg/alert"
	"github.com/teslashibe/go-attention/pkg/attention"
	"github.com/teslashibe/go-attention/pkg/history"
	"github.com/teslashibe/go-attention/pkg/hub"
	"github.com/teslashibe/go-attention/pkg/ingest"
	"github.com/teslashibe/go-attention/pkg/monitor"
	"github.com/teslashibe/go-attention/pkg/protocol"
)

// Config controls the HTTP listener.
type Config struct {
	Addr      string `yaml:"addr" json:"addr"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
	DrawMesh  bool   `yaml:"draw_mesh" json:"draw_mesh"`
	AccessLog bool   `yaml:"access_log" json:"access_log"`
}

// DefaultConfig listens on :8080 without static files.
func DefaultConfig() Config {
	return Config{Addr: ":8080"}
}

// Deps are the components the dashboard reads and controls. Only Monitor
// is required.
type Deps struct {
	Monitor *monitor.Monitor
	Display *Display
	History history.Store
	Ingest  *ingest.Hub
	Logger  *slog.Logger
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	mon     *monitor.Monitor
	gate    *alert.Gate
	display *Display
	history history.Store
	ingest  *ingest.Hub

	statusHub *hub.Hub
	cancel    context.CancelFunc
}

// NewServer builds the Fiber app and starts the status hub loop.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gate := alert.NewGate(false)
	if al := deps.Monitor.Alerter(); al != nil {
		gate = al.Gate()
	}
	display := deps.Display
	if display == nil {
		display = NewDisplay(cfg.DrawMesh)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		logger:    logger.With("component", "web"),
		mon:       deps.Monitor,
		gate:      gate,
		display:   display,
		history:   deps.History,
		ingest:    deps.Ingest,
		statusHub: hub.New("status", logger),
		cancel:    cancel,
	}
	go s.statusHub.Run(ctx)

	if s.ingest != nil {
		s.ingest.SetDrawMesh(display.DrawMesh())
		display.OnChange(s.ingest.SetDrawMesh)
	}
	s.mon.Subscribe(s.PublishDecision)

	app := fiber.New(fiber.Config{
		AppName:               "Attention Guard",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	if cfg.AccessLog {
		app.Use(accesslog.New())
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/alerts", s.handleGetAlerts)
	api.Post("/alerts/mute", s.handleMute)
	api.Get("/display", s.handleGetDisplay)
	api.Post("/display", s.handleSetDisplay)
	api.Get("/sessions", s.handleListSessions)
	api.Get("/sessions/:id", s.handleGetSession)

	if s.ingest != nil {
		s.ingest.RegisterRoutes(app)
		s.ingest.RegisterAPIRoutes(api)
	}

	app.Use("/ws/status", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App exposes the Fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	s.logger.Info("🌐 dashboard listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// PublishDecision pushes a decision to live status clients.
func (s *Server) PublishDecision(d attention.Decision) {
	msg, err := protocol.NewStatusMessage(d, s.gate.Muted())
	if err != nil {
		return
	}
	if err := s.statusHub.Broadcast(msg); err != nil {
		s.logger.Debug("status broadcast failed", "error", err)
	}
}

// StatusHub returns the live status hub.
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// Shutdown stops the HTTP server and the status hub.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.cancel()
	return err
}

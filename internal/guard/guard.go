// Package guard assembles a running attention guard from configuration:
// session, alerting, monitor, detector ingest, dashboard and history.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-attention/internal/config"
	"github.com/teslashibe/go-attention/pkg/alert"
	"github.com/teslashibe/go-attention/pkg/history"
	"github.com/teslashibe/go-attention/pkg/ingest"
	"github.com/teslashibe/go-attention/pkg/landmarks"
	"github.com/teslashibe/go-attention/pkg/monitor"
	"github.com/teslashibe/go-attention/pkg/session"
	"github.com/teslashibe/go-attention/pkg/web"
)

// frameBuffer bounds how far ingest may run ahead of classification.
const frameBuffer = 64

// Guard is one monitoring session with its serving stack.
type Guard struct {
	Monitor *monitor.Monitor
	History history.Store
	Ingest  *ingest.Hub
	Server  *web.Server

	frames chan landmarks.Frame
	logger *slog.Logger
}

// Options tweak assembly, mainly for tests and replay.
type Options struct {
	// Serve mounts the dashboard and detector ingest.
	Serve bool

	// Clock overrides the session clock.
	Clock session.Clock

	// Sink overrides the alert sink built from the config.
	Sink alert.Sink
}

// New builds a guard. The caller owns Close.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Guard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.History.Validate(); err != nil {
		return nil, err
	}

	sink := opts.Sink
	if sink == nil {
		var err error
		sink, err = buildSink(cfg.Alert, logger)
		if err != nil {
			return nil, err
		}
	}
	alerter, err := alert.NewAlerter(cfg.Alert, nil, sink, logger)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	// The session creates its event log on disk, so it is built last and
	// discarded if the monitor cannot run.
	sessOpts := []session.Option{session.WithLogger(logger)}
	if opts.Clock != nil {
		sessOpts = append(sessOpts, session.WithClock(opts.Clock))
	}
	acc, err := session.New(cfg.Session, sessOpts...)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("start session: %w", err)
	}

	mon, err := monitor.New(cfg.Thresholds, acc, alerter, logger)
	if err != nil {
		acc.Discard()
		closeStore(store)
		return nil, err
	}

	g := &Guard{
		Monitor: mon,
		History: store,
		frames:  make(chan landmarks.Frame, frameBuffer),
		logger:  logger,
	}

	if opts.Serve {
		g.Ingest = ingest.NewHub(logger)
		g.Ingest.OnFrame(g.enqueue)
		g.Server = web.NewServer(cfg.Server, web.Deps{
			Monitor: mon,
			History: store,
			Ingest:  g.Ingest,
			Logger:  logger,
		})
	}
	return g, nil
}

func closeStore(s history.Store) {
	if s != nil {
		s.Close()
	}
}

func buildSink(cfg alert.Config, logger *slog.Logger) (alert.Sink, error) {
	if len(cfg.Command) == 0 {
		return alert.NewLogSink(logger), nil
	}
	return alert.NewCommandSink(cfg.Command)
}

// enqueue hands an ingested frame to the frame loop. Frames are dropped when
// the loop falls behind so a slow classifier never stalls the socket.
func (g *Guard) enqueue(detectorID string, frame landmarks.Frame) {
	select {
	case g.frames <- frame:
	default:
		g.logger.Warn("frame queue full, dropping frame", "detector", detectorID, "frame", frame.ID)
	}
}

// Run starts the session tick and consumes ingested frames until ctx ends.
func (g *Guard) Run(ctx context.Context) error {
	g.Monitor.Start()
	err := g.Monitor.Run(ctx, g.frames)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops serving, finalizes the session and records it in history.
// The report is returned even when a write failed.
func (g *Guard) Close(ctx context.Context) (*session.Report, error) {
	var errs []error
	if g.Server != nil {
		if err := g.Server.Shutdown(); err != nil {
			g.logger.Warn("dashboard shutdown failed", "error", err)
		}
	}

	report, err := g.Monitor.Close()
	if err != nil {
		errs = append(errs, err)
	}

	if report != nil && g.History != nil {
		sum := history.FromReport(report)
		if err := g.History.Save(ctx, &sum); err != nil {
			errs = append(errs, fmt.Errorf("save history: %w", err))
		}
	}
	if g.History != nil {
		if err := g.History.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return report, errors.Join(errs...)
}

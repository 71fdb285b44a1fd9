// Package monitor runs the frame loop: every frame is classified, its state
// is accumulated into the session, the alert gate is consulted and the
// decision is published to observers.
package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-attention/pkg/alert"
	"github.com/teslashibe/go-attention/pkg/attention"
	"github.com/teslashibe/go-attention/pkg/landmarks"
	"github.com/teslashibe/go-attention/pkg/session"
)

// ErrClosed is returned by HandleFrame after Close.
var ErrClosed = errors.New("monitor: closed")

// Observer receives every decision in frame order.
type Observer func(attention.Decision)

// Stats counts frame loop outcomes.
type Stats struct {
	Processed         uint64 `json:"processed"`
	NoFace            uint64 `json:"no_face"`
	Skipped           uint64 `json:"skipped"`
	PersistenceErrors uint64 `json:"persistence_errors"`
	AlertsFired       int64  `json:"alerts_fired"`

	// FPS is the incoming frame rate over the last 60 frames, by the
	// session clock. DrowsyConsecFrames assumes about 30.
	FPS float64 `json:"fps"`
}

// Monitor owns one session's pipeline, accumulator and alerter.
type Monitor struct {
	pipeline *attention.Pipeline
	session  *session.Accumulator
	alerter  *alert.Alerter
	logger   *slog.Logger

	frameMu sync.Mutex // serializes HandleFrame
	closed  bool

	obsMu     sync.RWMutex
	observers []Observer

	lastMu  sync.RWMutex
	last    attention.Decision
	hasLast bool

	processed   atomic.Uint64
	noFace      atomic.Uint64
	skipped     atomic.Uint64
	persistErrs atomic.Uint64
	fps         fpsMeter

	closeOnce sync.Once
	report    *session.Report
	closeErr  error
}

// New builds a monitor around an accumulator. A nil alerter disables alerts.
func New(cfg attention.Config, acc *session.Accumulator, alerter *alert.Alerter, logger *slog.Logger) (*Monitor, error) {
	p, err := attention.NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		pipeline: p,
		session:  acc,
		alerter:  alerter,
		logger:   logger.With("component", "monitor", "session", acc.ID()),
	}, nil
}

// Session returns the accumulator.
func (m *Monitor) Session() *session.Accumulator {
	return m.session
}

// Alerter returns the alerter, which may be nil.
func (m *Monitor) Alerter() *alert.Alerter {
	return m.alerter
}

// Subscribe registers an observer. Observers run on the frame goroutine
// and must not block.
func (m *Monitor) Subscribe(o Observer) {
	m.obsMu.Lock()
	m.observers = append(m.observers, o)
	m.obsMu.Unlock()
}

// Start launches the session tick loop.
func (m *Monitor) Start() {
	m.session.Start()
	m.logger.Info("👁️ monitoring started", "event_log", m.session.EventLogPath())
}

// HandleFrame classifies one frame and records its state. Untimed frames
// are stamped from the session clock. Invalid landmark
// data is skipped and returned as an error with the session untouched. A
// persistence failure is returned alongside a valid decision.
func (m *Monitor) HandleFrame(ctx context.Context, frame landmarks.Frame) (attention.Decision, error) {
	m.frameMu.Lock()
	defer m.frameMu.Unlock()

	if m.closed {
		return attention.Decision{}, ErrClosed
	}
	arrived := m.session.Now()
	m.fps.Tick(arrived)
	if frame.At.IsZero() {
		frame.At = arrived
	}

	d, err := m.pipeline.Process(frame)
	if err != nil {
		m.skipped.Add(1)
		m.logger.Debug("skipping frame", "frame", frame.ID, "error", err)
		return attention.Decision{}, err
	}

	m.processed.Add(1)
	if !d.FaceFound {
		m.noFace.Add(1)
	}

	persistErr := m.session.SetState(d.State)
	if persistErr != nil {
		m.persistErrs.Add(1)
		m.logger.Warn("session write failed", "frame", frame.ID, "error", persistErr)
	}

	if m.alerter != nil {
		m.alerter.Notify(ctx, d.State)
	}

	m.lastMu.Lock()
	m.last = d
	m.hasLast = true
	m.lastMu.Unlock()

	m.obsMu.RLock()
	observers := m.observers
	m.obsMu.RUnlock()
	for _, o := range observers {
		o(d)
	}

	return d, persistErr
}

// Run consumes frames until the channel closes or ctx is cancelled. Frame
// errors are logged and never stop the loop.
func (m *Monitor) Run(ctx context.Context, frames <-chan landmarks.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if _, err := m.HandleFrame(ctx, frame); errors.Is(err, ErrClosed) {
				return err
			}
		}
	}
}

// Replay drains a source frame by frame until io.EOF.
func (m *Monitor) Replay(ctx context.Context, src landmarks.Source) error {
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, landmarks.ErrInvalidInput) {
				m.skipped.Add(1)
				m.logger.Debug("skipping replay record", "error", err)
				continue
			}
			return err
		}
		if _, err := m.HandleFrame(ctx, frame); errors.Is(err, ErrClosed) {
			return err
		}
	}
}

// Last returns the most recent decision.
func (m *Monitor) Last() (attention.Decision, bool) {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	return m.last, m.hasLast
}

// Stats returns the frame loop counters.
func (m *Monitor) Stats() Stats {
	s := Stats{
		Processed:         m.processed.Load(),
		NoFace:            m.noFace.Load(),
		Skipped:           m.skipped.Load(),
		PersistenceErrors: m.persistErrs.Load(),
		FPS:               m.fps.FPS(),
	}
	if m.alerter != nil {
		s.AlertsFired = m.alerter.Fired()
	}
	return s
}

// Close stops accepting frames, then stops the tick loop with a bounded
// wait and finalizes the session. It is safe to call more than once; every
// call returns the same report.
func (m *Monitor) Close() (*session.Report, error) {
	m.closeOnce.Do(func() {
		m.frameMu.Lock()
		m.closed = true
		m.frameMu.Unlock()

		m.report, m.closeErr = m.session.Finalize()
		if m.report != nil {
			m.logger.Info("📊 session finalized",
				"report", m.report.Path,
				"total_seconds", session.FormatSeconds(m.report.Total))
		}
	})
	return m.report, m.closeErr
}

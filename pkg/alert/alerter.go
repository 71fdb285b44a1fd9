package alert

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-attention/pkg/attention"
)

// Alerter fires the sink for drowsy frames while the gate is open. Sink
// failures are logged and dropped; they never reach the caller.
type Alerter struct {
	cfg    Config
	gate   *Gate
	sink   Sink
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	lastFire time.Time

	fired    atomic.Int64
	failures atomic.Int64
}

// NewAlerter builds an alerter. A nil sink makes it silent; a nil gate is
// created from cfg.Muted.
func NewAlerter(cfg Config, gate *Gate, sink Sink, logger *slog.Logger) (*Alerter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gate == nil {
		gate = NewGate(cfg.Muted)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{
		cfg:    cfg,
		gate:   gate,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Gate returns the mute switch.
func (a *Alerter) Gate() *Gate {
	return a.gate
}

// Notify is called once per decision. It reports whether the sink was
// triggered.
func (a *Alerter) Notify(ctx context.Context, state attention.State) bool {
	if state != attention.Drowsy || a.gate.Muted() || a.sink == nil {
		return false
	}

	a.mu.Lock()
	now := a.now()
	if !a.lastFire.IsZero() && now.Sub(a.lastFire) < a.cfg.Cooldown {
		a.mu.Unlock()
		return false
	}
	a.lastFire = now
	a.mu.Unlock()

	a.fired.Add(1)
	go a.play(ctx)
	return true
}

func (a *Alerter) play(ctx context.Context) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	if err := a.sink.Play(ctx); err != nil {
		a.failures.Add(1)
		a.logger.Debug("alert playback failed", "sink", a.sink.Name(), "error", err)
	}
}

// Fired returns how many times the sink was triggered.
func (a *Alerter) Fired() int64 {
	return a.fired.Load()
}

// Failures returns how many playbacks returned an error.
func (a *Alerter) Failures() int64 {
	return a.failures.Load()
}

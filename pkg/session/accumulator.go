// Package session accumulates time spent in each attention state and
// persists it as an event log and an end-of-session report.
//
// An Accumulator is shared by the frame loop and its own tick goroutine.
// Every SetState call attributes the time since the previous call to the
// previous state, so on-disk totals lag reality by at most one tick.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-attention/pkg/attention"
)

// IDLayout formats session ids from the start time. Sessions started in
// the same second get a numeric suffix: 20060102_150405_2.
const IDLayout = "20060102_150405"

// maxIDSuffix bounds the search for a free session id.
const maxIDSuffix = 1000

// Snapshot is a point-in-time view of an accumulator.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	StartedAt time.Time       `json:"started_at"`
	State     attention.State `json:"state"`
	Counters  Counters        `json:"counters"`
	Rows      int             `json:"rows"`
	Finalized bool            `json:"finalized"`
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(a *Accumulator) { a.clock = c }
}

// WithLogger sets the logger used by the tick goroutine.
func WithLogger(l *slog.Logger) Option {
	return func(a *Accumulator) { a.logger = l }
}

// Accumulator tracks time-in-state for one session.
type Accumulator struct {
	cfg    Config
	clock  Clock
	logger *slog.Logger

	id        string
	startedAt time.Time

	mu        sync.Mutex
	counters  Counters
	state     attention.State
	lastTick  time.Time
	rows      int
	finalized bool

	// logMu orders event log appends. It is taken before mu is released so
	// rows land in SetState order while the flush runs outside mu.
	logMu sync.Mutex
	log   *EventLog

	tickMu  sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// New validates cfg, creates the event log under cfg.Dir/logs and returns
// an accumulator in the Attentive state. The tick loop is not started.
func New(cfg Config, opts ...Option) (*Accumulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Accumulator{
		cfg:    cfg,
		clock:  RealClock{},
		logger: slog.Default(),
		state:  attention.Attentive,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.startedAt = a.clock.Now()
	a.lastTick = a.startedAt

	base := a.startedAt.Format(IDLayout)
	for n := 1; n <= maxIDSuffix; n++ {
		a.id = base
		if n > 1 {
			a.id = base + "_" + strconv.Itoa(n)
		}
		if _, err := os.Stat(a.ReportPath()); err == nil {
			continue
		}
		log, err := CreateEventLog(a.EventLogPath())
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		a.log = log
		return a, nil
	}
	return nil, persistErr("create", a.EventLogPath(), fmt.Errorf("no free session id after %s", base))
}

// ID returns the session id derived from the start time.
func (a *Accumulator) ID() string {
	return a.id
}

// StartedAt returns the time the session was created.
func (a *Accumulator) StartedAt() time.Time {
	return a.startedAt
}

// EventLogPath returns the location of the per-session event log.
func (a *Accumulator) EventLogPath() string {
	return filepath.Join(a.cfg.Dir, "logs", "session_"+a.id+".csv")
}

// ReportPath returns the location the report is written to.
func (a *Accumulator) ReportPath() string {
	return filepath.Join(a.cfg.Dir, "reports", "report_"+a.id+".csv")
}

// ChartPath returns the location of the optional HTML chart.
func (a *Accumulator) ChartPath() string {
	return filepath.Join(a.cfg.Dir, "reports", "report_"+a.id+".html")
}

// SetState attributes the time since the last call to the previous state,
// makes label current and appends a row to the event log. The counters are
// updated even when the append fails; the error wraps ErrPersistence.
func (a *Accumulator) SetState(label attention.State) error {
	a.mu.Lock()
	if a.finalized {
		a.mu.Unlock()
		return ErrFinalized
	}
	ev := a.advanceLocked(label)
	return a.appendUnlocking(ev)
}

// Tick re-asserts the current state so elapsed time is flushed.
func (a *Accumulator) Tick() error {
	a.mu.Lock()
	if a.finalized {
		a.mu.Unlock()
		return ErrFinalized
	}
	ev := a.advanceLocked(a.state)
	return a.appendUnlocking(ev)
}

// advanceLocked moves the counters to now. Callers hold mu.
func (a *Accumulator) advanceLocked(label attention.State) Event {
	now := a.clock.Now()
	elapsed := now.Sub(a.lastTick).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	a.counters.Add(a.state, elapsed)
	a.lastTick = now
	a.state = label
	a.rows++
	return Event{At: now, State: label}
}

// appendUnlocking hands off from mu to logMu and writes ev. It is entered
// with mu held and returns with neither lock held.
func (a *Accumulator) appendUnlocking(ev Event) error {
	a.logMu.Lock()
	a.mu.Unlock()
	defer a.logMu.Unlock()
	return a.log.Append(ev)
}

// Now reads the session clock.
func (a *Accumulator) Now() time.Time {
	return a.clock.Now()
}

// State returns the current label.
func (a *Accumulator) State() attention.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Counters returns a copy of the accumulated seconds.
func (a *Accumulator) Counters() Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters
}

// Snapshot returns the current state and counters.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		SessionID: a.id,
		StartedAt: a.startedAt,
		State:     a.state,
		Counters:  a.counters,
		Rows:      a.rows,
		Finalized: a.finalized,
	}
}

// Start launches the background tick loop. Calling it twice is a no-op.
func (a *Accumulator) Start() {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	go a.tickLoop(a.stop, a.done)
}

func (a *Accumulator) tickLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := a.Tick(); err != nil {
				if errors.Is(err, ErrFinalized) {
					return
				}
				a.logger.Warn("session tick failed", "session", a.id, "error", err)
			}
		}
	}
}

// Stop signals the tick loop and waits at most one tick interval for it to
// exit. It reports whether the goroutine was joined.
func (a *Accumulator) Stop() bool {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	if !a.running {
		return true
	}
	a.running = false
	close(a.stop)

	select {
	case <-a.done:
		return true
	case <-time.After(a.cfg.TickInterval):
		a.logger.Warn("session tick loop did not stop in time", "session", a.id, "wait", a.cfg.TickInterval)
		return false
	}
}

// Discard abandons a session that never ran. The tick loop is stopped, the
// event log is closed and removed, and no report is written. Later calls to
// SetState or Finalize return ErrFinalized.
func (a *Accumulator) Discard() error {
	a.Stop()

	a.mu.Lock()
	if a.finalized {
		a.mu.Unlock()
		return ErrFinalized
	}
	a.finalized = true
	a.logMu.Lock()
	a.mu.Unlock()
	defer a.logMu.Unlock()

	closeErr := a.log.Close()
	if err := os.Remove(a.EventLogPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(closeErr, persistErr("remove", a.EventLogPath(), err))
	}
	return closeErr
}

// Finalize stops the tick loop, flushes the remaining time, closes the event
// log and writes the report. It returns the report even when a write fails,
// alongside an error wrapping ErrPersistence. A second call returns
// ErrFinalized.
func (a *Accumulator) Finalize() (*Report, error) {
	a.Stop()

	a.mu.Lock()
	if a.finalized {
		a.mu.Unlock()
		return nil, ErrFinalized
	}
	ev := a.advanceLocked(a.state)
	a.finalized = true
	counters, endedAt := a.counters, a.lastTick

	var errs []error
	a.logMu.Lock()
	a.mu.Unlock()
	if err := a.log.Append(ev); err != nil {
		errs = append(errs, err)
	}
	if err := a.log.Close(); err != nil {
		errs = append(errs, err)
	}
	a.logMu.Unlock()

	r := &Report{
		SessionID:    a.id,
		StartedAt:    a.startedAt,
		EndedAt:      endedAt,
		Counters:     counters,
		Total:        counters.Total(),
		Rows:         BuildRows(counters),
		EventLogPath: a.EventLogPath(),
		Path:         a.ReportPath(),
	}

	if err := WriteReport(r.Path, r.Rows); err != nil {
		errs = append(errs, err)
	}
	if a.cfg.Chart {
		r.ChartPath = a.ChartPath()
		if err := WriteChart(r.ChartPath, r); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return r, fmt.Errorf("finalize session %s: %w", a.id, err)
	}
	return r, nil
}

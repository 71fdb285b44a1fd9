package alert

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
)

// Sink produces the audible alarm.
type Sink interface {
	// Play sounds the alarm once. It may block until playback ends.
	Play(ctx context.Context) error

	// Name returns the backend name (e.g. "command", "log", "mock").
	Name() string
}

// CommandSink plays the alarm by running a local player binary.
type CommandSink struct {
	name string
	args []string
}

// NewCommandSink returns a sink that runs argv[0] with the remaining args.
func NewCommandSink(argv []string) (*CommandSink, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("%w: empty player command", ErrInvalidConfig)
	}
	return &CommandSink{name: argv[0], args: argv[1:]}, nil
}

// Play runs the player and waits for it to exit.
func (s *CommandSink) Play(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.name, s.args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w (output: %s)", s.name, err, out)
	}
	return nil
}

// Name returns "command".
func (s *CommandSink) Name() string { return "command" }

// LogSink records alarms in the log instead of playing them.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log-only sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Play logs the alarm.
func (s *LogSink) Play(ctx context.Context) error {
	s.logger.Info("🔔 drowsiness alarm")
	return nil
}

// Name returns "log".
func (s *LogSink) Name() string { return "log" }

// MockSink counts plays and can be told to fail. Used in tests.
type MockSink struct {
	plays atomic.Int64

	mu  sync.Mutex
	err error
}

// NewMockSink creates a mock sink.
func NewMockSink() *MockSink {
	return &MockSink{}
}

// SetError makes subsequent plays fail with err.
func (m *MockSink) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Play records the call.
func (m *MockSink) Play(ctx context.Context) error {
	m.plays.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Plays returns the number of Play calls.
func (m *MockSink) Plays() int64 {
	return m.plays.Load()
}

// Name returns "mock".
func (m *MockSink) Name() string { return "mock" }

package guard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-attention/internal/config"
	"github.com/teslashibe/go-attention/internal/testutil"
	"github.com/teslashibe/go-attention/pkg/alert"
	"github.com/teslashibe/go-attention/pkg/landmarks"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Session.Dir = dir
	cfg.Session.TickInterval = 20 * time.Millisecond
	cfg.History.Path = filepath.Join(dir, "history", "sessions.json")
	return cfg
}

func TestGuardLifecycle(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	g, err := New(ctx, cfg, nil, Options{Serve: true, Sink: alert.NewMockSink()})
	require.NoError(t, err)
	require.NotNil(t, g.Server)
	require.NotNil(t, g.Ingest)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- g.Run(runCtx) }()

	g.enqueue("cam", landmarks.Frame{ID: 1, At: time.Now(), Set: testutil.OpenFace()})
	g.enqueue("cam", landmarks.Frame{ID: 2, At: time.Now()})

	require.Eventually(t, func() bool {
		return g.Monitor.Stats().Processed == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	report, err := g.Close(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.FileExists(t, report.Path)
	assert.EqualValues(t, 1, g.Monitor.Stats().NoFace)
}

func TestGuardRecordsHistory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	g, err := New(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	assert.Nil(t, g.Server)

	_, err = g.Monitor.HandleFrame(ctx, landmarks.Frame{ID: 1, At: time.Now(), Set: testutil.OpenFace()})
	require.NoError(t, err)

	report, err := g.Close(ctx)
	require.NoError(t, err)

	g2, err := New(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	defer g2.Close(ctx)

	list, err := g2.History.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, report.SessionID, list[0].SessionID)
	assert.Equal(t, report.Path, list[0].ReportPath)
}

func TestBuildSink(t *testing.T) {
	s, err := buildSink(alert.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "log", s.Name())

	cfg := alert.DefaultConfig()
	cfg.Command = []string{"aplay", "alarm.wav"}
	s, err = buildSink(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "command", s.Name())
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	g, err := New(context.Background(), testConfig(t), nil, Options{})
	require.NoError(t, err)
	defer g.Close(context.Background())

	for i := 0; i < frameBuffer+5; i++ {
		g.enqueue("cam", landmarks.Frame{ID: uint64(i)})
	}
	assert.Len(t, g.frames, frameBuffer)
}

func sessionLogs(t *testing.T, cfg *config.Config) []string {
	t.Helper()
	logs, err := filepath.Glob(filepath.Join(cfg.Session.Dir, "logs", "session_*.csv"))
	require.NoError(t, err)
	return logs
}

func TestNewFailureLeavesNoSessionFiles(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"unknown history backend", func(cfg *config.Config) { cfg.History.Backend = "postgres" }},
		{"invalid thresholds", func(cfg *config.Config) { cfg.Thresholds.DrowsyConsecFrames = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			g, err := New(context.Background(), cfg, nil, Options{Sink: alert.NewMockSink()})
			require.Error(t, err)
			assert.Nil(t, g)
			assert.Empty(t, sessionLogs(t, cfg))
		})
	}
}

package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-attention/pkg/attention"
)

func newTestAlerter(t *testing.T, cfg Config, sink Sink) (*Alerter, *time.Time) {
	t.Helper()
	a, err := NewAlerter(cfg, nil, sink, nil)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	return a, &now
}

func TestGate(t *testing.T) {
	g := NewGate(false)
	assert.False(t, g.Muted())

	g.SetMuted(true)
	assert.True(t, g.Muted())

	assert.False(t, g.Toggle())
	assert.True(t, g.Toggle())
}

func TestGateConcurrent(t *testing.T) {
	g := NewGate(false)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Toggle()
			_ = g.Muted()
		}()
	}
	wg.Wait()
	// 100 toggles cancel out
	assert.False(t, g.Muted())
}

func TestNotifyOnlyDrowsy(t *testing.T) {
	sink := NewMockSink()
	a, _ := newTestAlerter(t, DefaultConfig(), sink)

	assert.False(t, a.Notify(context.Background(), attention.Attentive))
	assert.False(t, a.Notify(context.Background(), attention.Distracted))
	assert.True(t, a.Notify(context.Background(), attention.Drowsy))

	require.Eventually(t, func() bool { return sink.Plays() == 1 }, time.Second, time.Millisecond)
	assert.EqualValues(t, 1, a.Fired())
}

func TestNotifyMuted(t *testing.T) {
	sink := NewMockSink()
	cfg := DefaultConfig()
	cfg.Muted = true
	a, _ := newTestAlerter(t, cfg, sink)

	assert.False(t, a.Notify(context.Background(), attention.Drowsy))

	a.Gate().SetMuted(false)
	assert.True(t, a.Notify(context.Background(), attention.Drowsy))
}

func TestNotifyCooldown(t *testing.T) {
	sink := NewMockSink()
	a, now := newTestAlerter(t, DefaultConfig(), sink)

	assert.True(t, a.Notify(context.Background(), attention.Drowsy))

	*now = now.Add(time.Second)
	assert.False(t, a.Notify(context.Background(), attention.Drowsy))

	*now = now.Add(time.Second)
	assert.True(t, a.Notify(context.Background(), attention.Drowsy))

	assert.EqualValues(t, 2, a.Fired())
}

func TestNotifyWithoutSink(t *testing.T) {
	a, _ := newTestAlerter(t, DefaultConfig(), nil)
	assert.False(t, a.Notify(context.Background(), attention.Drowsy))
}

func TestSinkFailureIsSwallowed(t *testing.T) {
	sink := NewMockSink()
	sink.SetError(errors.New("device busy"))
	a, _ := newTestAlerter(t, DefaultConfig(), sink)

	assert.True(t, a.Notify(context.Background(), attention.Drowsy))
	require.Eventually(t, func() bool { return a.Failures() == 1 }, time.Second, time.Millisecond)
}

func TestCommandSink(t *testing.T) {
	_, err := NewCommandSink(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := NewCommandSink([]string{"definitely-not-a-real-player-binary", "alarm.wav"})
	require.NoError(t, err)
	assert.Equal(t, "command", s.Name())
	assert.Error(t, s.Play(context.Background()))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Cooldown = -time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	_, err := NewAlerter(cfg, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

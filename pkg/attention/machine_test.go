package attention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-attention/pkg/gaze"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

const frame = time.Second / 30

func newMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(DefaultConfig())
	require.NoError(t, err)
	return m
}

func centered(at time.Time, ear float64) Input {
	return Input{At: at, MeanEAR: ear, Direction: gaze.Center}
}

func looking(at time.Time, dir gaze.Direction) Input {
	return Input{At: at, MeanEAR: 0.30, Direction: dir}
}

func TestNewMachine_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero grace", func(c *Config) { c.DistractionGrace = 0 }},
		{"negative grace", func(c *Config) { c.DistractionGrace = -time.Second }},
		{"zero frames", func(c *Config) { c.DrowsyConsecFrames = 0 }},
		{"zero tolerance", func(c *Config) { c.CenterToleranceX = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewMachine(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestPresets_AreValid(t *testing.T) {
	for name, cfg := range map[string]Config{
		"default":   DefaultConfig(),
		"sensitive": SensitiveConfig(),
		"relaxed":   RelaxedConfig(),
	} {
		assert.NoError(t, cfg.Validate(), name)
	}
}

func TestStep_DrowsyOnThresholdFrame(t *testing.T) {
	m := newMachine(t)
	n := m.Config().DrowsyConsecFrames

	for i := 1; i < n; i++ {
		d := m.Step(centered(t0.Add(time.Duration(i)*frame), 0.10))
		require.Equal(t, Attentive, d.State, "frame %d should not be drowsy yet", i)
		require.False(t, d.Drowsy)
	}

	d := m.Step(centered(t0.Add(time.Duration(n)*frame), 0.10))
	assert.Equal(t, Drowsy, d.State)
	assert.True(t, d.Drowsy)
}

func TestStep_OpenFrameResetsDrowsyCounter(t *testing.T) {
	m := newMachine(t)
	n := m.Config().DrowsyConsecFrames
	at := t0

	for i := 0; i < n-1; i++ {
		at = at.Add(frame)
		m.Step(centered(at, 0.10))
	}
	require.Equal(t, n-1, m.ConsecutiveDrowsyFrames())

	at = at.Add(frame)
	m.Step(centered(at, 0.30))
	assert.Equal(t, 0, m.ConsecutiveDrowsyFrames())

	at = at.Add(frame)
	d := m.Step(centered(at, 0.10))
	assert.Equal(t, Attentive, d.State)
	assert.Equal(t, 1, m.ConsecutiveDrowsyFrames())
}

func TestStep_DistractionGrace(t *testing.T) {
	grace := DefaultConfig().DistractionGrace
	const eps = 10 * time.Millisecond

	t.Run("just before grace", func(t *testing.T) {
		m := newMachine(t)
		m.Step(looking(t0, gaze.Left))
		d := m.Step(looking(t0.Add(grace-eps), gaze.Left))
		assert.Equal(t, Attentive, d.State)
		assert.False(t, d.Distracted)
	})

	t.Run("just after grace", func(t *testing.T) {
		m := newMachine(t)
		m.Step(looking(t0, gaze.Left))
		d := m.Step(looking(t0.Add(grace+eps), gaze.Left))
		assert.Equal(t, Distracted, d.State)
		assert.True(t, d.Distracted)
	})

	t.Run("exactly at grace", func(t *testing.T) {
		m := newMachine(t)
		m.Step(looking(t0, gaze.UpRight))
		d := m.Step(looking(t0.Add(grace), gaze.Down))
		assert.Equal(t, Distracted, d.State)
	})

	t.Run("center frame resets timer", func(t *testing.T) {
		m := newMachine(t)
		m.Step(looking(t0, gaze.Left))
		m.Step(looking(t0.Add(grace/2), gaze.Left))
		m.Step(centered(t0.Add(grace/2+frame), 0.30))

		_, ok := m.DistractionOnset()
		assert.False(t, ok, "onset should be cleared on a centered frame")

		restart := t0.Add(grace/2 + 2*frame)
		m.Step(looking(restart, gaze.Left))
		d := m.Step(looking(t0.Add(grace+eps), gaze.Left))
		assert.Equal(t, Attentive, d.State, "grace must restart after the centered frame")

		d = m.Step(looking(restart.Add(grace), gaze.Left))
		assert.Equal(t, Distracted, d.State)
	})

	t.Run("latched while raw distraction persists", func(t *testing.T) {
		m := newMachine(t)
		m.Step(looking(t0, gaze.Right))
		require.Equal(t, Distracted, m.Step(looking(t0.Add(grace), gaze.Right)).State)

		// A clock step backwards does not un-arm the distraction.
		d := m.Step(looking(t0.Add(grace/2), gaze.Right))
		assert.Equal(t, Distracted, d.State)
	})
}

func TestStep_DrowsyTakesPrecedence(t *testing.T) {
	m := newMachine(t)
	n := m.Config().DrowsyConsecFrames
	at := t0

	var d Decision
	for i := 0; i < n; i++ {
		d = m.Step(Input{At: at, MeanEAR: 0.05, Direction: gaze.DownLeft})
		at = at.Add(200 * time.Millisecond)
	}

	assert.True(t, d.Distracted, "grace elapsed, distraction should hold")
	assert.True(t, d.Drowsy)
	assert.Equal(t, Drowsy, d.State)
}

func TestStepNoFace_AlwaysDistractedAndLeavesCounter(t *testing.T) {
	m := newMachine(t)
	at := t0
	for i := 0; i < 7; i++ {
		at = at.Add(frame)
		m.Step(centered(at, 0.10))
	}
	before := m.ConsecutiveDrowsyFrames()

	d := m.StepNoFace(at.Add(frame))

	assert.Equal(t, Distracted, d.State)
	assert.False(t, d.FaceFound)
	assert.Equal(t, before, m.ConsecutiveDrowsyFrames())
}

func TestStepNoFace_AfterDrowsy(t *testing.T) {
	m := newMachine(t)
	n := m.Config().DrowsyConsecFrames
	at := t0
	for i := 0; i < n+3; i++ {
		at = at.Add(frame)
		m.Step(centered(at, 0.10))
	}
	require.Equal(t, Drowsy, m.State())

	d := m.StepNoFace(at.Add(frame))
	assert.Equal(t, Distracted, d.State)
	assert.Equal(t, n+3, m.ConsecutiveDrowsyFrames())

	// The next closed-eye frame continues the run rather than restarting it.
	d = m.Step(centered(at.Add(2*frame), 0.10))
	assert.Equal(t, Drowsy, d.State)
}

func TestReset(t *testing.T) {
	m := newMachine(t)
	m.Step(looking(t0, gaze.Left))
	m.Step(centered(t0.Add(frame), 0.1))
	m.Reset()

	assert.Equal(t, Attentive, m.State())
	assert.Zero(t, m.ConsecutiveDrowsyFrames())
	_, ok := m.DistractionOnset()
	assert.False(t, ok)
}

func TestParseState(t *testing.T) {
	for _, s := range States() {
		got, err := ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseState("asleep")
	assert.Error(t, err)
}

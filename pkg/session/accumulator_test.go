package session

import (
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-attention/pkg/attention"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 9, 14, 30, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestAccumulator(t *testing.T, clock Clock) *Accumulator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	a, err := New(cfg, WithClock(clock))
	require.NoError(t, err)
	return a
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.TickInterval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Dir = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	_, err := New(Config{Dir: t.TempDir(), TickInterval: -time.Second})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewCreatesEventLog(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)

	assert.Equal(t, "20240309_143000", a.ID())
	assert.Equal(t, attention.Attentive, a.State())
	assert.FileExists(t, a.EventLogPath())
	assert.Equal(t, "session_20240309_143000.csv", filepath.Base(a.EventLogPath()))

	events, err := ReadEvents(a.EventLogPath())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSetStateAttributesPreviousState(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)

	clock.Advance(2 * time.Second)
	require.NoError(t, a.SetState(attention.Drowsy))

	got := a.Counters()
	assert.InDelta(t, 2.0, got.Attentive, 1e-9)
	assert.Zero(t, got.Drowsy)

	clock.Advance(3 * time.Second)
	require.NoError(t, a.SetState(attention.Attentive))

	got = a.Counters()
	assert.InDelta(t, 2.0, got.Attentive, 1e-9)
	assert.InDelta(t, 3.0, got.Drowsy, 1e-9)
	assert.Zero(t, got.Distracted)
}

func TestCountersSumToElapsed(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)
	start := clock.Now()

	steps := []struct {
		wait  time.Duration
		state attention.State
	}{
		{250 * time.Millisecond, attention.Distracted},
		{1500 * time.Millisecond, attention.Attentive},
		{700 * time.Millisecond, attention.Drowsy},
		{0, attention.Drowsy},
		{4 * time.Second, attention.Distracted},
		{100 * time.Millisecond, attention.Attentive},
	}
	for _, s := range steps {
		clock.Advance(s.wait)
		require.NoError(t, a.SetState(s.state))
	}

	total := a.Counters().Total()
	want := clock.Now().Sub(start).Seconds()
	if math.Abs(total-want) > 1e-9 {
		t.Errorf("Total() = %v, want %v", total, want)
	}
}

func TestSetStateAppendsEveryCall(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)

	var want []Event
	for i, st := range []attention.State{attention.Attentive, attention.Attentive, attention.Drowsy, attention.Distracted} {
		clock.Advance(time.Duration(i+1) * time.Second)
		require.NoError(t, a.SetState(st))
		want = append(want, Event{At: clock.Now(), State: st})
	}
	require.NoError(t, a.Tick())
	want = append(want, Event{At: clock.Now(), State: attention.Distracted})

	got, err := ReadEvents(a.EventLogPath())
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, a.Snapshot().Rows)
}

func TestBackwardsClockIsClamped(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)

	clock.Advance(-5 * time.Second)
	require.NoError(t, a.SetState(attention.Distracted))

	assert.Zero(t, a.Counters().Total())
}

func TestFinalizeWritesReport(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)

	clock.Advance(6 * time.Second)
	require.NoError(t, a.SetState(attention.Distracted))
	clock.Advance(3 * time.Second)
	require.NoError(t, a.SetState(attention.Drowsy))
	clock.Advance(1 * time.Second)

	r, err := a.Finalize()
	require.NoError(t, err)

	assert.Equal(t, a.ReportPath(), r.Path)
	assert.Equal(t, "20240309_143000", r.SessionID)
	assert.InDelta(t, 10.0, r.Total, 1e-9)
	assert.Empty(t, r.ChartPath)

	f, err := os.Open(r.Path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	want := [][]string{
		{"metric", "seconds", "percent"},
		{"attentive", "6.0", "60.0%"},
		{"distracted", "3.0", "30.0%"},
		{"drowsy", "1.0", "10.0%"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	// the final flush is logged too
	events, err := ReadEvents(a.EventLogPath())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, attention.Drowsy, events[2].State)
}

func TestFinalizeEmptySession(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)

	r, err := a.Finalize()
	require.NoError(t, err)

	assert.Zero(t, r.Total)
	for _, row := range r.Rows {
		assert.Zero(t, row.Percent, row.State.String())
		assert.Zero(t, row.Seconds, row.State.String())
	}
}

func TestFinalizeTwice(t *testing.T) {
	a := newTestAccumulator(t, newFakeClock())

	_, err := a.Finalize()
	require.NoError(t, err)

	_, err = a.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, a.SetState(attention.Drowsy), ErrFinalized)
	assert.True(t, a.Snapshot().Finalized)
}

func TestFinalizeWithChart(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.Chart = true
	a, err := New(cfg, WithClock(clock))
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	r, err := a.Finalize()
	require.NoError(t, err)

	require.NotEmpty(t, r.ChartPath)
	data, err := os.ReadFile(r.ChartPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "attentive")
}

func TestPersistenceFailureStillCounts(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)

	// closing the file underneath forces the append to fail
	require.NoError(t, a.log.file.Close())

	clock.Advance(time.Second)
	err := a.SetState(attention.Drowsy)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)

	var pe *PersistError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "append", pe.Op)

	assert.InDelta(t, 1.0, a.Counters().Attentive, 1e-9)
	assert.Equal(t, attention.Drowsy, a.State())
}

func TestTickLoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.TickInterval = 10 * time.Millisecond
	a, err := New(cfg)
	require.NoError(t, err)

	a.Start()
	a.Start()
	require.Eventually(t, func() bool {
		return a.Snapshot().Rows >= 3
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, a.Stop())
	assert.True(t, a.Stop())

	r, err := a.Finalize()
	require.NoError(t, err)
	assert.Greater(t, r.Counters.Attentive, 0.0)
}

func TestConcurrentSetState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.TickInterval = time.Millisecond
	a, err := New(cfg)
	require.NoError(t, err)
	a.Start()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = a.SetState(attention.States()[(w+i)%3])
			}
		}(w)
	}
	wg.Wait()

	r, err := a.Finalize()
	require.NoError(t, err)

	events, err := ReadEvents(a.EventLogPath())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(events), 201)

	elapsed := r.EndedAt.Sub(r.StartedAt).Seconds()
	assert.InDelta(t, elapsed, r.Total, 1e-6)
}

// tickingClock moves one second forward on every read.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestEventLogKeepsCallOrder(t *testing.T) {
	clock := &tickingClock{now: time.Date(2024, 3, 9, 14, 30, 0, 0, time.Local)}
	a := newTestAccumulator(t, clock)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if err := a.SetState(attention.States()[(w+i)%3]); err != nil {
					t.Errorf("SetState: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	_, err := a.Finalize()
	require.NoError(t, err)

	events, err := ReadEvents(a.EventLogPath())
	require.NoError(t, err)
	require.Len(t, events, 101)
	for i := 1; i < len(events); i++ {
		if events[i].At.Before(events[i-1].At) {
			t.Fatalf("row %d at %v written after row at %v", i, events[i].At, events[i-1].At)
		}
	}
}

func TestSameSecondSessionsGetDistinctFiles(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()

	first, err := New(cfg, WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, first.SetState(attention.Drowsy))
	require.NoError(t, first.SetState(attention.Attentive))
	firstReport, err := first.Finalize()
	require.NoError(t, err)

	second, err := New(cfg, WithClock(clock))
	require.NoError(t, err)
	third, err := New(cfg, WithClock(clock))
	require.NoError(t, err)

	assert.Equal(t, "20240309_143000", first.ID())
	assert.Equal(t, "20240309_143000_2", second.ID())
	assert.Equal(t, "20240309_143000_3", third.ID())
	assert.NotEqual(t, first.EventLogPath(), second.EventLogPath())
	assert.NotEqual(t, first.ReportPath(), second.ReportPath())

	events, err := ReadEvents(firstReport.EventLogPath)
	require.NoError(t, err)
	assert.Len(t, events, 3, "first session log must be left intact")
}

func TestCreateEventLogRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "session.csv")
	l, err := CreateEventLog(path)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = CreateEventLog(path)
	assert.ErrorIs(t, err, os.ErrExist)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestDiscard(t *testing.T) {
	clock := newFakeClock()
	a := newTestAccumulator(t, clock)
	path := a.EventLogPath()
	require.FileExists(t, path)

	require.NoError(t, a.Discard())
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, a.ReportPath())

	assert.ErrorIs(t, a.SetState(attention.Drowsy), ErrFinalized)
	assert.ErrorIs(t, a.Discard(), ErrFinalized)
	_, err := a.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
}

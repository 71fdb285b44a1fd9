package monitor

import (
	"sync"
	"time"
)

// fpsWindow is how many recent frame arrivals the rate is measured over.
const fpsWindow = 60

// fpsMeter estimates the incoming frame rate from the spread of the last
// fpsWindow arrival times.
type fpsMeter struct {
	mu    sync.Mutex
	times [fpsWindow]time.Time
	next  int
	n     int
}

func (m *fpsMeter) Tick(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times[m.next] = at
	m.next = (m.next + 1) % fpsWindow
	if m.n < fpsWindow {
		m.n++
	}
}

// FPS returns frames per second, or 0 until two frames have arrived over
// a positive span.
func (m *fpsMeter) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.n < 2 {
		return 0
	}
	newest := m.times[(m.next-1+fpsWindow)%fpsWindow]
	oldest := m.times[(m.next-m.n+fpsWindow)%fpsWindow]
	elapsed := newest.Sub(oldest).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.n-1) / elapsed
}

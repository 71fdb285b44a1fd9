// Package alert decides when a drowsiness alarm should sound and plays it
// through a pluggable Sink.
package alert

import "sync"

// Gate is the user-facing mute switch. It is safe for concurrent use.
type Gate struct {
	mu    sync.Mutex
	muted bool
}

// NewGate returns a gate with the given initial mute state.
func NewGate(muted bool) *Gate {
	return &Gate{muted: muted}
}

// SetMuted sets the mute flag.
func (g *Gate) SetMuted(muted bool) {
	g.mu.Lock()
	g.muted = muted
	g.mu.Unlock()
}

// Muted reports whether alerts are suppressed.
func (g *Gate) Muted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.muted
}

// Toggle flips the mute flag and returns the new value.
func (g *Gate) Toggle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.muted = !g.muted
	return g.muted
}

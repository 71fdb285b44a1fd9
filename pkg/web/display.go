package web

import (
	"sync"
	"sync/atomic"
)

// Display holds runtime overlay settings. The zero value draws no mesh.
type Display struct {
	drawMesh atomic.Bool

	mu        sync.Mutex
	listeners []func(drawMesh bool)
}

// NewDisplay returns display settings with the given mesh default.
func NewDisplay(drawMesh bool) *Display {
	d := &Display{}
	d.drawMesh.Store(drawMesh)
	return d
}

// DrawMesh reports whether detectors should overlay the face mesh.
func (d *Display) DrawMesh() bool {
	return d.drawMesh.Load()
}

// SetDrawMesh overrides the mesh overlay and notifies listeners on change.
func (d *Display) SetDrawMesh(draw bool) {
	if d.drawMesh.Swap(draw) == draw {
		return
	}
	d.mu.Lock()
	listeners := d.listeners
	d.mu.Unlock()
	for _, fn := range listeners {
		fn(draw)
	}
}

// OnChange registers fn to run after every change.
func (d *Display) OnChange(fn func(drawMesh bool)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

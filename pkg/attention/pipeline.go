package attention

import (
	"github.com/teslashibe/go-attention/pkg/features"
	"github.com/teslashibe/go-attention/pkg/gaze"
	"github.com/teslashibe/go-attention/pkg/landmarks"
)

// Pipeline runs feature extraction, gaze bucketing and the state machine
// for one frame at a time.
type Pipeline struct {
	machine *Machine
}

// NewPipeline builds a pipeline with a fresh machine.
func NewPipeline(cfg Config) (*Pipeline, error) {
	m, err := NewMachine(cfg)
	if err != nil {
		return nil, err
	}
	return &Pipeline{machine: m}, nil
}

// Machine exposes the underlying state machine for inspection.
func (p *Pipeline) Machine() *Machine {
	return p.machine
}

// Process classifies one frame. Invalid landmark data returns an error
// wrapping landmarks.ErrInvalidInput and leaves the machine untouched.
func (p *Pipeline) Process(frame landmarks.Frame) (Decision, error) {
	if !frame.HasFace() {
		return p.machine.StepNoFace(frame.At), nil
	}

	f, err := features.Extract(frame.Set)
	if err != nil {
		return Decision{}, err
	}

	cfg := p.machine.cfg
	dir := gaze.Classify(f.Gaze.X, f.Gaze.Y, cfg.CenterToleranceX, cfg.CenterToleranceY)

	return p.machine.Step(Input{
		At:        frame.At,
		MeanEAR:   f.Eyes.Mean,
		Gaze:      f.Gaze,
		Direction: dir,
	}), nil
}

package attention

import (
	"time"

	"github.com/teslashibe/go-attention/pkg/features"
	"github.com/teslashibe/go-attention/pkg/gaze"
)

// Input is one face-present frame as seen by the machine.
type Input struct {
	At        time.Time
	MeanEAR   float64
	Gaze      features.GazeOffset
	Direction gaze.Direction
}

// Decision is the machine's output for a frame. EAR, Direction and Gaze are
// passed through for display only.
type Decision struct {
	At         time.Time           `json:"at"`
	State      State               `json:"state"`
	FaceFound  bool                `json:"face_found"`
	EAR        float64             `json:"ear"`
	Direction  gaze.Direction      `json:"direction"`
	Gaze       features.GazeOffset `json:"gaze"`
	Drowsy     bool                `json:"drowsy"`     // Debounced drowsy condition
	Distracted bool                `json:"distracted"` // Distraction past the grace period
}

// Machine holds the per-session decision state. It is not safe for
// concurrent use; one frame loop owns it.
type Machine struct {
	cfg Config

	consecutiveDrowsy int
	distractionOnset  time.Time // zero when gaze is centered
	distractionArmed  bool      // latched once the grace period elapsed
	label             State
}

// NewMachine validates cfg and returns a machine in the Attentive state.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Machine{cfg: cfg, label: Attentive}, nil
}

// Config returns the thresholds the machine was built with.
func (m *Machine) Config() Config {
	return m.cfg
}

// Step applies one face-present frame.
func (m *Machine) Step(in Input) Decision {
	// Drowsiness: consecutive-frame debounce
	if in.MeanEAR < m.cfg.EARDrowsy {
		m.consecutiveDrowsy++
	} else {
		m.consecutiveDrowsy = 0
	}
	drowsy := m.consecutiveDrowsy >= m.cfg.DrowsyConsecFrames

	// Distraction: grace period from the first off-center frame
	distracted := false
	if in.Direction != gaze.Center {
		if m.distractionOnset.IsZero() {
			m.distractionOnset = in.At
		}
		if !m.distractionArmed && in.At.Sub(m.distractionOnset) >= m.cfg.DistractionGrace {
			m.distractionArmed = true
		}
		distracted = m.distractionArmed
	} else {
		m.distractionOnset = time.Time{}
		m.distractionArmed = false
	}

	switch {
	case drowsy:
		m.label = Drowsy
	case distracted:
		m.label = Distracted
	default:
		m.label = Attentive
	}

	return Decision{
		At:         in.At,
		State:      m.label,
		FaceFound:  true,
		EAR:        in.MeanEAR,
		Direction:  in.Direction,
		Gaze:       in.Gaze,
		Drowsy:     drowsy,
		Distracted: distracted,
	}
}

// StepNoFace applies a frame where the detector found no face. The label is
// always Distracted. The drowsy counter and the distraction onset are left
// exactly as they were: a face lost mid eyes-closed episode neither
// advances nor resets drowsiness.
func (m *Machine) StepNoFace(at time.Time) Decision {
	m.label = Distracted
	return Decision{
		At:         at,
		State:      Distracted,
		FaceFound:  false,
		Direction:  gaze.Center,
		Distracted: true,
	}
}

// State returns the label of the last step.
func (m *Machine) State() State {
	return m.label
}

// ConsecutiveDrowsyFrames returns the current debounce counter.
func (m *Machine) ConsecutiveDrowsyFrames() int {
	return m.consecutiveDrowsy
}

// DistractionOnset returns when the current off-center run started.
func (m *Machine) DistractionOnset() (time.Time, bool) {
	return m.distractionOnset, !m.distractionOnset.IsZero()
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.consecutiveDrowsy = 0
	m.distractionOnset = time.Time{}
	m.distractionArmed = false
	m.label = Attentive
}

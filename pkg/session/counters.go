package session

import (
	"gonum.org/v1/gonum/floats"

	"github.com/teslashibe/go-attention/pkg/attention"
)

// Counters is the accumulated time in each state, in seconds.
type Counters struct {
	Attentive  float64 `json:"attentive"`
	Distracted float64 `json:"distracted"`
	Drowsy     float64 `json:"drowsy"`
}

// Add attributes secs to state.
func (c *Counters) Add(state attention.State, secs float64) {
	switch state {
	case attention.Attentive:
		c.Attentive += secs
	case attention.Distracted:
		c.Distracted += secs
	default:
		c.Drowsy += secs
	}
}

// Get returns the seconds attributed to state.
func (c Counters) Get(state attention.State) float64 {
	switch state {
	case attention.Attentive:
		return c.Attentive
	case attention.Distracted:
		return c.Distracted
	default:
		return c.Drowsy
	}
}

// Total returns the seconds across all states.
func (c Counters) Total() float64 {
	return floats.Sum([]float64{c.Attentive, c.Distracted, c.Drowsy})
}

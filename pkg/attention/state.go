// Package attention turns per-frame eye features into an attention state.
//
// A Machine holds the session-scoped debounce counters and is stepped once
// per frame from a single goroutine. Pipeline wires feature extraction and
// gaze bucketing in front of it.
package attention

import "fmt"

// State is the attention label for a frame. Exactly one holds at a time.
type State int

const (
	Attentive State = iota
	Distracted
	Drowsy
)

// String returns the label used in logs and persisted files.
func (s State) String() string {
	switch s {
	case Attentive:
		return "attentive"
	case Distracted:
		return "distracted"
	case Drowsy:
		return "drowsy"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the label.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a persisted label.
func (s *State) UnmarshalText(text []byte) error {
	st, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState parses a label written by String.
func ParseState(label string) (State, error) {
	switch label {
	case "attentive":
		return Attentive, nil
	case "distracted":
		return Distracted, nil
	case "drowsy":
		return Drowsy, nil
	}
	return Attentive, fmt.Errorf("attention: unknown state %q", label)
}

// States lists every state in report order.
func States() []State {
	return []State{Attentive, Distracted, Drowsy}
}

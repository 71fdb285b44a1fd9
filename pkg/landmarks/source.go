package landmarks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Source yields frames from a detector. Next returns io.EOF when the
// source is exhausted.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}

// Record is the serialized form of a frame, shared by the replay file
// format and the ingest protocol.
type Record struct {
	ID         uint64       `json:"id,omitempty"`
	Timestamp  int64        `json:"ts,omitempty"` // Unix milliseconds
	Width      int          `json:"width,omitempty"`
	Height     int          `json:"height,omitempty"`
	Normalized bool         `json:"normalized,omitempty"`
	Points     [][3]float64 `json:"points,omitempty"`
}

// Frame converts the record. An empty point list is a no-face frame. A
// record without a timestamp gives a frame with a zero At; the consumer
// stamps it from its own clock.
func (r Record) Frame() (Frame, error) {
	f := Frame{ID: r.ID}
	if r.Timestamp != 0 {
		f.At = time.UnixMilli(r.Timestamp)
	}
	if len(r.Points) == 0 {
		return f, nil
	}

	var pts []Point3D
	if r.Normalized {
		if r.Width <= 0 || r.Height <= 0 {
			return f, fmt.Errorf("%w: normalized frame %d without size", ErrInvalidInput, r.ID)
		}
		pts = FromNormalized(r.Points, r.Width, r.Height)
	} else {
		pts = make([]Point3D, len(r.Points))
		for i, p := range r.Points {
			pts[i] = Point3D{X: p[0], Y: p[1], Z: p[2]}
		}
	}

	set, err := NewSet(pts)
	if err != nil {
		return f, err
	}
	f.Set = set
	return f, nil
}

// JSONLSource replays newline-delimited Record values.
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLSource reads records from r. Lines may be large (478 points),
// so the scanner buffer is raised to 1 MiB.
func NewJSONLSource(r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	return &JSONLSource{scanner: sc}
}

// Next returns the next frame, skipping blank lines.
func (s *JSONLSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("read replay line %d: %w", s.line+1, err)
			}
			return Frame{}, io.EOF
		}
		s.line++

		data := s.scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return Frame{}, fmt.Errorf("%w: line %d: %v", ErrInvalidInput, s.line, err)
		}
		return rec.Frame()
	}
}

package session

import (
	"math"
	"testing"

	"github.com/teslashibe/go-attention/pkg/attention"
)

func TestBuildRows(t *testing.T) {
	tests := []struct {
		name string
		in   Counters
		want []float64
	}{
		{"empty", Counters{}, []float64{0, 0, 0}},
		{"single state", Counters{Drowsy: 4}, []float64{0, 0, 100}},
		{"split", Counters{Attentive: 1, Distracted: 1, Drowsy: 2}, []float64{25, 25, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := BuildRows(tt.in)
			if len(rows) != 3 {
				t.Fatalf("len(rows) = %d, want 3", len(rows))
			}
			sum := 0.0
			for i, r := range rows {
				if r.State != attention.States()[i] {
					t.Errorf("rows[%d].State = %v, want %v", i, r.State, attention.States()[i])
				}
				if math.Abs(r.Percent-tt.want[i]) > 1e-9 {
					t.Errorf("rows[%d].Percent = %v, want %v", i, r.Percent, tt.want[i])
				}
				sum += r.Percent
			}
			if tt.in.Total() > 0 && math.Abs(sum-100) > 1e-9 {
				t.Errorf("percent sum = %v, want 100", sum)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if got := FormatSeconds(12.345); got != "12.3" {
		t.Errorf("FormatSeconds = %q, want %q", got, "12.3")
	}
	if got := FormatPercent(33.333); got != "33.3%" {
		t.Errorf("FormatPercent = %q, want %q", got, "33.3%")
	}
	if got := FormatPercent(0); got != "0.0%" {
		t.Errorf("FormatPercent(0) = %q, want %q", got, "0.0%")
	}
}

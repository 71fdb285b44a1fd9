package testutil

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/teslashibe/go-attention/pkg/landmarks"
)

// Record serializes a set the way a detector sends it, in pixel units.
// A nil set gives a no-face record; a zero at gives an untimed one.
func Record(set *landmarks.Set, id uint64, at time.Time) landmarks.Record {
	rec := landmarks.Record{ID: id}
	if !at.IsZero() {
		rec.Timestamp = at.UnixMilli()
	}
	if set == nil {
		return rec
	}
	rec.Points = make([][3]float64, len(set.Points))
	for i, p := range set.Points {
		rec.Points[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return rec
}

// WriteJSONL writes records to path, one per line.
func WriteJSONL(t testing.TB, path string, recs []landmarks.Record) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode record: %v", err)
		}
	}
}

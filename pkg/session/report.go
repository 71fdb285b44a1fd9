package session

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teslashibe/go-attention/pkg/attention"
)

var reportHeader = []string{"metric", "seconds", "percent"}

// Row is one state line of the final report.
type Row struct {
	State   attention.State `json:"state"`
	Seconds float64         `json:"seconds"`
	Percent float64         `json:"percent"`
}

// Report summarizes a finalized session.
type Report struct {
	SessionID    string    `json:"session_id"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	Counters     Counters  `json:"counters"`
	Total        float64   `json:"total"`
	Rows         []Row     `json:"rows"`
	EventLogPath string    `json:"event_log_path"`
	Path         string    `json:"path"`
	ChartPath    string    `json:"chart_path,omitempty"`
}

// BuildRows computes per-state seconds and percentages in report order.
// Percentages are all zero when nothing was accumulated.
func BuildRows(c Counters) []Row {
	total := c.Total()
	rows := make([]Row, 0, 3)
	for _, st := range attention.States() {
		secs := c.Get(st)
		pct := 0.0
		if total > 0 {
			pct = secs / total * 100
		}
		rows = append(rows, Row{State: st, Seconds: secs, Percent: pct})
	}
	return rows
}

// FormatSeconds renders seconds the way the report file stores them.
func FormatSeconds(secs float64) string {
	return fmt.Sprintf("%.1f", secs)
}

// FormatPercent renders a percentage with one decimal and a % suffix.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// WriteReport writes rows as CSV to path, creating the directory.
func WriteReport(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return persistErr("report", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return persistErr("report", path, err)
	}

	w := csv.NewWriter(f)
	records := [][]string{reportHeader}
	for _, r := range rows {
		records = append(records, []string{r.State.String(), FormatSeconds(r.Seconds), FormatPercent(r.Percent)})
	}
	writeErr := w.WriteAll(records)
	closeErr := f.Close()
	return persistErr("report", path, errors.Join(writeErr, closeErr))
}

// Package history keeps a record of finished attention sessions.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-attention/pkg/session"
)

var (
	// ErrNotFound is returned when a session id is unknown.
	ErrNotFound = errors.New("history: session not found")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("history: invalid config")
)

// Summary is the stored record of one finished session.
type Summary struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	Attentive    float64   `json:"attentive_seconds"`
	Distracted   float64   `json:"distracted_seconds"`
	Drowsy       float64   `json:"drowsy_seconds"`
	EventLogPath string    `json:"event_log_path"`
	ReportPath   string    `json:"report_path"`
	ChartPath    string    `json:"chart_path,omitempty"`
}

// FromReport builds a summary with a fresh id.
func FromReport(r *session.Report) Summary {
	return Summary{
		ID:           uuid.New().String(),
		SessionID:    r.SessionID,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		Attentive:    r.Counters.Attentive,
		Distracted:   r.Counters.Distracted,
		Drowsy:       r.Counters.Drowsy,
		EventLogPath: r.EventLogPath,
		ReportPath:   r.Path,
		ChartPath:    r.ChartPath,
	}
}

// Total returns the accounted seconds.
func (s Summary) Total() float64 {
	return s.Attentive + s.Distracted + s.Drowsy
}

// Store defines the interface for session history storage.
type Store interface {
	// Save inserts or replaces a summary. An empty ID is filled in.
	Save(ctx context.Context, s *Summary) error

	// Get retrieves a summary by ID
	Get(ctx context.Context, id string) (*Summary, error)

	// List returns summaries, newest start first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*Summary, error)

	// Delete removes a summary by ID
	Delete(ctx context.Context, id string) error

	// Close releases the backend.
	Close() error
}

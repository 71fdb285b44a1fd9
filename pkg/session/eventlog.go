package session

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/teslashibe/go-attention/pkg/attention"
)

// TimestampLayout is the event log timestamp format (local time, seconds).
const TimestampLayout = "2006-01-02T15:04:05"

var eventHeader = []string{"timestamp", "state"}

// Event is one row of the session record.
type Event struct {
	At    time.Time
	State attention.State
}

// EventLog is the append-only CSV record of every SetState call. It is not
// safe for concurrent use; the Accumulator serializes access with its
// writer lock.
type EventLog struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// CreateEventLog creates the file (and its directory) and writes the header.
// An existing file is never reused; the error then matches fs.ErrExist.
func CreateEventLog(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, persistErr("create", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, persistErr("create", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(eventHeader); err != nil {
		f.Close()
		return nil, persistErr("create", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, persistErr("create", path, err)
	}

	return &EventLog{path: path, file: f, writer: w}, nil
}

// Path returns the file location.
func (l *EventLog) Path() string {
	return l.path
}

// Append writes one row and flushes it to the file.
func (l *EventLog) Append(e Event) error {
	if l.file == nil {
		return persistErr("append", l.path, os.ErrClosed)
	}
	record := []string{e.At.Format(TimestampLayout), e.State.String()}
	if err := l.writer.Write(record); err != nil {
		return persistErr("append", l.path, err)
	}
	l.writer.Flush()
	return persistErr("append", l.path, l.writer.Error())
}

// Close flushes and closes the file. It is safe to call twice.
func (l *EventLog) Close() error {
	if l.file == nil {
		return nil
	}
	l.writer.Flush()
	flushErr := l.writer.Error()
	closeErr := l.file.Close()
	l.file = nil
	return persistErr("append", l.path, errors.Join(flushErr, closeErr))
}

// ReadEvents reads an event log back in file order.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(eventHeader)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read event log header: %w", err)
	}
	if header[0] != eventHeader[0] || header[1] != eventHeader[1] {
		return nil, fmt.Errorf("unexpected event log header %v", header)
	}

	var events []Event
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read event log: %w", err)
		}

		at, err := time.ParseInLocation(TimestampLayout, rec[0], time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", rec[0], err)
		}
		state, err := attention.ParseState(rec[1])
		if err != nil {
			return nil, err
		}
		events = append(events, Event{At: at, State: state})
	}
	return events, nil
}

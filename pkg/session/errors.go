package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New for a config that cannot run.
	ErrInvalidConfig = errors.New("session: invalid config")

	// ErrPersistence is wrapped by every event log or report write failure.
	ErrPersistence = errors.New("session: persistence failure")

	// ErrFinalized is returned by SetState after Finalize.
	ErrFinalized = errors.New("session: already finalized")
)

// PersistError records which file a write failed on.
type PersistError struct {
	Op   string // "create", "append", "remove", "report", "chart"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistError) Error() string {
	return fmt.Sprintf("session: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistError) Unwrap() error {
	return e.Err
}

// Is makes every PersistError match ErrPersistence.
func (e *PersistError) Is(target error) bool {
	return target == ErrPersistence
}

func persistErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistError{Op: op, Path: path, Err: err}
}

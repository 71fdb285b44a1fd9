package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path     string
	sessions map[string]*Summary
	mu       sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int        `json:"version"`
	UpdatedAt string     `json:"updated_at"`
	Sessions  []*Summary `json:"sessions"`
}

const currentVersion = 1

// NewJSONStore creates a new JSON-based store at the given path.
// If the file doesn't exist, it will be created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	store := &JSONStore{
		path:     path,
		sessions: make(map[string]*Summary),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return store, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	s.sessions = make(map[string]*Summary, len(stored.Sessions))
	for _, sum := range stored.Sessions {
		s.sessions[sum.ID] = sum
	}
	return nil
}

// save writes the store to disk. Callers hold the write lock.
func (s *JSONStore) save() error {
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Sessions:  s.sorted(),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *JSONStore) sorted() []*Summary {
	out := make([]*Summary, 0, len(s.sessions))
	for _, sum := range s.sessions {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Save inserts or replaces a summary.
func (s *JSONStore) Save(ctx context.Context, sum *Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sum.ID == "" {
		sum.ID = uuid.New().String()
	}
	cp := *sum
	s.sessions[sum.ID] = &cp
	return s.save()
}

// Get retrieves a summary by ID.
func (s *JSONStore) Get(ctx context.Context, id string) (*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *sum
	return &cp, nil
}

// List returns summaries, newest first.
func (s *JSONStore) List(ctx context.Context, limit int) ([]*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.sorted()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i, sum := range out {
		cp := *sum
		out[i] = &cp
	}
	return out, nil
}

// Delete removes a summary by ID.
func (s *JSONStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.sessions, id)
	return s.save()
}

// Count returns the number of stored sessions.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close is a no-op; every write is already on disk.
func (s *JSONStore) Close() error {
	return nil
}

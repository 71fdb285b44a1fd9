package history

import (
	"context"
	"fmt"
)

// Config selects the history backend.
type Config struct {
	// Backend is "json", "sqlite" or "none".
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path" json:"path"`
}

// DefaultConfig keeps history in a JSON file next to the session files.
func DefaultConfig() Config {
	return Config{Backend: "json", Path: "history/sessions.json"}
}

// Validate rejects an unknown backend or a file backend without a path.
func (c Config) Validate() error {
	switch c.Backend {
	case "json", "sqlite", "":
		if c.Path == "" {
			return fmt.Errorf("%w: path is required for the %q backend", ErrInvalidConfig, c.Backend)
		}
	case "none":
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	return nil
}

// Open returns the configured store, or nil for the "none" backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "json", "":
		s, err := NewJSONStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("history: unknown backend %q", cfg.Backend)
	}
}

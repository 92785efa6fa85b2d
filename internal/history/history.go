// Package history persists the deployment log as a single JSON document.
// The whole file is rewritten on every mutation; at this scale (tens of
// entries) incremental writes are not worth the complexity.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// DefaultFileName is the history file written to the working directory.
const DefaultFileName = ".deploy-history.json"

// Store reads and writes the history file. The file is the single source
// of truth between invocations; nothing is cached across process runs.
//
// Concurrent invocations of the tool against the same file are not
// guarded; the tool assumes a single operator or CI job per host.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted history. A missing or unparsable file yields an
// empty history, never an error: a corrupt log means "start fresh", and the
// recovery is deliberately silent apart from a debug line.
func (s *Store) Load() (*History, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewHistory(), nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		s.logger.Debug("history file unparsable, starting fresh",
			"path", s.path, "error", err)
		return NewHistory(), nil
	}

	if h.Version == 0 {
		h.Version = FormatVersion
	}
	if h.Entries == nil {
		h.Entries = []Entry{}
	}

	return &h, nil
}

// Save rewrites the whole history file.
func (s *Store) Save(h *History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// Append adds an entry at the end of the log and persists the result.
func (s *Store) Append(h *History, e Entry) error {
	h.Entries = append(h.Entries, e)
	return s.Save(h)
}

// Clear empties the log and persists it, returning the number of entries
// removed.
func (s *Store) Clear(h *History) (int, error) {
	cleared := len(h.Entries)
	h.Entries = []Entry{}
	if err := s.Save(h); err != nil {
		return 0, err
	}
	return cleared, nil
}

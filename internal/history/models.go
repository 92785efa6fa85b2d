package history

import (
	"time"

	"tagroll/internal/detect"
)

// FormatVersion is the persisted schema version. It is written on every
// save and kept for forward compatibility; nothing interprets it yet.
const FormatVersion = 1

// MetadataRollbackFrom is the metadata key recording which tag a rollback
// entry replaced.
const MetadataRollbackFrom = "rollbackFrom"

// Entry represents a single recorded deployment event.
// Entries are immutable once appended.
type Entry struct {
	Tag       string            `json:"tag"`
	Kind      detect.Kind       `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// History is the full append-only deployment log. The last entry is the
// current deployment; the one before it is the rollback target for "now".
type History struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// NewHistory returns an empty history at the current format version.
func NewHistory() *History {
	return &History{Version: FormatVersion, Entries: []Entry{}}
}

// Current returns the most recent entry, or nil if the history is empty.
func (h *History) Current() *Entry {
	if len(h.Entries) == 0 {
		return nil
	}
	return &h.Entries[len(h.Entries)-1]
}

// Previous returns the second-to-last entry, or nil if there are fewer
// than two entries.
func (h *History) Previous() *Entry {
	if len(h.Entries) < 2 {
		return nil
	}
	return &h.Entries[len(h.Entries)-2]
}

// FindMostRecentByTag scans from the end of the log and returns the newest
// entry with the given tag, or nil if none matches. If a tag was pushed
// twice the later occurrence wins.
func (h *History) FindMostRecentByTag(tag string) *Entry {
	for i := len(h.Entries) - 1; i >= 0; i-- {
		if h.Entries[i].Tag == tag {
			return &h.Entries[i]
		}
	}
	return nil
}

// Recent returns up to limit entries, most recent first.
func (h *History) Recent(limit int) []Entry {
	n := len(h.Entries)
	if limit > n {
		limit = n
	}
	if limit <= 0 {
		return []Entry{}
	}

	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.Entries[i])
	}
	return out
}

// CountByKind tallies entries per deployment mechanism.
func (h *History) CountByKind() map[detect.Kind]int {
	counts := make(map[detect.Kind]int)
	for _, e := range h.Entries {
		counts[e.Kind]++
	}
	return counts
}

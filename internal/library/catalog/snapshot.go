// Package catalog indexes the series folders that already exist under the
// destination roots and matches guessed titles against them.
package catalog

import (
	"strings"
	"time"

	"github.com/tana/tana/internal/library/normalize"
)

// Entry is one existing series folder.
type Entry struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	Label       string `json:"destLabel"`
}

// Snapshot is an immutable view of the catalog. Entries sharing a lowercase
// name are grouped under one key; keys keep the order they were first seen.
type Snapshot struct {
	keys    []string
	entries map[string][]Entry
	norms   map[string]string
	builtAt time.Time
}

// NewSnapshot groups entries by lowercase name and precomputes the
// normalized key of every group.
func NewSnapshot(entries []Entry, builtAt time.Time) *Snapshot {
	s := &Snapshot{
		keys:    make([]string, 0, len(entries)),
		entries: make(map[string][]Entry, len(entries)),
		norms:   make(map[string]string, len(entries)),
		builtAt: builtAt,
	}
	for _, e := range entries {
		key := strings.ToLower(e.Name)
		if _, ok := s.entries[key]; !ok {
			s.keys = append(s.keys, key)
			s.norms[key] = normalize.Normalize(key)
		}
		s.entries[key] = append(s.entries[key], e)
	}
	return s
}

// Keys returns the series keys in scan order.
func (s *Snapshot) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Entries returns the folders stored under key.
func (s *Snapshot) Entries(key string) []Entry {
	return append([]Entry(nil), s.entries[key]...)
}

// NormalizedKey returns the precomputed normalized form of key.
func (s *Snapshot) NormalizedKey(key string) string {
	return s.norms[key]
}

// All returns every entry in scan order.
func (s *Snapshot) All() []Entry {
	all := make([]Entry, 0, len(s.keys))
	for _, key := range s.keys {
		all = append(all, s.entries[key]...)
	}
	return all
}

// Len returns the number of distinct series keys.
func (s *Snapshot) Len() int {
	return len(s.keys)
}

// BuiltAt returns when the snapshot was scanned.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

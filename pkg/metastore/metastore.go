// Package metastore tracks which table names map to which MIMDB file on
// disk. It is a small JSON-backed registry, not a catalog service —
// callers own the actual table files at the paths it records.
package metastore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
)

const filePermissions = 0o644

// Entry describes one registered table.
type Entry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	RowCount int    `json:"row_count"`
}

// Store is a JSON-backed table registry, safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
}

// Open loads an existing registry from path, or creates an empty one if
// the file does not yet exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, mimdberrors.Wrap(err, mimdberrors.IoFailure, "reading metastore file").
			WithDetail("path", path)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, mimdberrors.Wrap(err, mimdberrors.MalformedMetadata, "parsing metastore file").
			WithDetail("path", path)
	}
	for _, e := range entries {
		s.entries[e.Name] = e
	}
	return s, nil
}

// Put registers or replaces a table entry and persists the registry.
func (s *Store) Put(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Name] = entry
	return s.save()
}

// Get returns the entry for name and whether it exists.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	return e, ok
}

// List returns every registered entry, ordered by name.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

// Delete removes a table's entry and persists the registry. It is a
// no-op if the entry does not exist.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, name)
	return s.save()
}

// save writes the registry to a temp file and renames it over the real
// path so a crash mid-write never leaves a truncated registry behind.
func (s *Store) save() error {
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sortEntries(entries)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return mimdberrors.Wrap(err, mimdberrors.MalformedMetadata, "marshaling metastore entries")
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return mimdberrors.Wrap(err, mimdberrors.IoFailure, "creating metastore directory")
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return mimdberrors.Wrap(err, mimdberrors.IoFailure, "writing metastore temp file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return mimdberrors.Wrap(err, mimdberrors.IoFailure, "renaming metastore temp file")
	}
	return nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

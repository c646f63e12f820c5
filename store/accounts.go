// Package store persists the tracked-streamer list and custom go-live messages
// as two independent, human-editable JSON documents. Every mutation is written
// to disk (atomically, via temp file + rename) before the in-memory state is
// updated, so a successful command is never lost to a crash and a failed write
// never leaves memory ahead of disk.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrAlreadyTracked = errors.New("streamer is already being monitored")
	ErrNotTracked     = errors.New("streamer is not being monitored")
)

// accountsDoc is the on-disk layout of streamers.json.
type accountsDoc struct {
	Streamers []string `json:"streamers"`
}

// AccountStore holds the ordered list of tracked streamers. Names are compared
// case-insensitively but stored in their originally-provided casing for display.
type AccountStore struct {
	path string

	mu    sync.Mutex
	names []string
}

// OpenAccounts loads streamers.json from path. A missing file is an empty
// list; the document is created on first mutation.
func OpenAccounts(path string) (*AccountStore, error) {
	s := &AccountStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *AccountStore) Path() string { return s.path }

// Reload re-reads the document from disk, replacing the in-memory list.
// Safe to call concurrently with mutations; used when the file is edited
// outside the process.
func (s *AccountStore) Reload() error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.names = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	var doc accountsDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.names = doc.Streamers
	s.mu.Unlock()
	return nil
}

// List returns the tracked streamers in insertion order, original casing.
func (s *AccountStore) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Contains reports case-insensitive membership.
func (s *AccountStore) Contains(name string) bool {
	key := strings.ToLower(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.names {
		if strings.ToLower(n) == key {
			return true
		}
	}
	return false
}

// Add appends a streamer, deduplicating case-insensitively. The new list is
// persisted before the in-memory commit; on write failure nothing changes.
func (s *AccountStore) Add(name string) error {
	key := strings.ToLower(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.names {
		if strings.ToLower(n) == key {
			return ErrAlreadyTracked
		}
	}
	next := make([]string, len(s.names), len(s.names)+1)
	copy(next, s.names)
	next = append(next, name)
	if err := writeJSON(s.path, accountsDoc{Streamers: next}); err != nil {
		return err
	}
	s.names = next
	return nil
}

// Remove deletes a streamer by case-insensitive match, persisting first.
func (s *AccountStore) Remove(name string) error {
	key := strings.ToLower(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]string, 0, len(s.names))
	found := false
	for _, n := range s.names {
		if strings.ToLower(n) == key {
			found = true
			continue
		}
		next = append(next, n)
	}
	if !found {
		return ErrNotTracked
	}
	if err := writeJSON(s.path, accountsDoc{Streamers: next}); err != nil {
		return err
	}
	s.names = next
	return nil
}

// writeJSON atomically replaces path with the indented JSON encoding of doc.
func writeJSON(path string, doc any) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("persist %s: %w", path, err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("persist %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("persist %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("persist %s: %w", path, err)
	}
	return nil
}

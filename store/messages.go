package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// messagesDoc is the on-disk layout of custom_messages.json. Keys are
// lowercased streamer logins.
type messagesDoc struct {
	CustomMessages map[string]string `json:"custom_messages"`
}

// MessageStore holds per-streamer custom go-live message overrides.
type MessageStore struct {
	path string

	mu       sync.Mutex
	messages map[string]string
}

// OpenMessages loads custom_messages.json from path. A missing file is an
// empty map; the document is created on first mutation.
func OpenMessages(path string) (*MessageStore, error) {
	s := &MessageStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *MessageStore) Path() string { return s.path }

// Reload re-reads the document from disk.
func (s *MessageStore) Reload() error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.messages = map[string]string{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	var doc messagesDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if doc.CustomMessages == nil {
		doc.CustomMessages = map[string]string{}
	}
	s.mu.Lock()
	s.messages = doc.CustomMessages
	s.mu.Unlock()
	return nil
}

// Get returns the override for a streamer, matched case-insensitively.
func (s *MessageStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[strings.ToLower(name)]
	return msg, ok
}

// Set stores an override under the lowercased login, persisting first.
func (s *MessageStore) Set(name, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]string, len(s.messages)+1)
	for k, v := range s.messages {
		next[k] = v
	}
	next[strings.ToLower(name)] = text
	if err := writeJSON(s.path, messagesDoc{CustomMessages: next}); err != nil {
		return err
	}
	s.messages = next
	return nil
}

// Delete removes an override if present. Deleting an absent key is a no-op
// so removal cascades never fail on streamers without an override.
func (s *MessageStore) Delete(name string) error {
	key := strings.ToLower(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[key]; !ok {
		return nil
	}
	next := make(map[string]string, len(s.messages))
	for k, v := range s.messages {
		if k == key {
			continue
		}
		next[k] = v
	}
	if err := writeJSON(s.path, messagesDoc{CustomMessages: next}); err != nil {
		return err
	}
	s.messages = next
	return nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
)

// PrefsStore defines persistence operations for the flat preference map.
type PrefsStore interface {
	Load() (map[string]any, error)
	Save(prefs map[string]any) error
	Erase() error
}

// JSONPrefsStore persists preferences in a single JSON file on disk. Writes
// are atomic and serialized across processes with a sidecar lock file.
type JSONPrefsStore struct {
	path string
	lock *flock.Flock
}

// NewJSONPrefsStore creates a JSON-backed preference store.
func NewJSONPrefsStore(path string) *JSONPrefsStore {
	return &JSONPrefsStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file location.
func (s *JSONPrefsStore) Path() string {
	return s.path
}

// Load reads saved keys and merges them over the defaults. A missing file
// yields the defaults; unknown saved keys are kept.
func (s *JSONPrefsStore) Load() (map[string]any, error) {
	prefs := DefaultPrefs()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("read prefs: %w", err)
	}

	var saved map[string]any
	if err := json.Unmarshal(data, &saved); err != nil {
		return prefs, fmt.Errorf("parse prefs %s: %w", s.path, err)
	}
	for key, value := range saved {
		prefs[key] = value
	}
	return prefs, nil
}

// Save writes prefs as indented JSON, creating parent directories.
func (s *JSONPrefsStore) Save(prefs map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create prefs directory: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock prefs: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Erase removes the saved file so the next Load returns defaults.
func (s *JSONPrefsStore) Erase() error {
	if err := s.lock.Lock(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("lock prefs: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove prefs: %w", err)
	}
	return nil
}

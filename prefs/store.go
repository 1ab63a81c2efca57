package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the state file written inside the data directory.
const FileName = "app_state.json"

// PersistError reports a failure to write preferences to disk. The in-memory
// state it refers to has already been updated.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to save preferences to %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// DefaultDir returns the platform config directory for chatoverlay.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, "chatoverlay")
}

// Load reads preferences from path. A missing or unreadable file yields Default().
func Load(path string) Preferences {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Default()
	}
	p.Locked = false
	p.FontScale = ClampFontScale(p.FontScale)
	return p
}

// Save writes p to path as indented JSON, replacing any existing file.
func Save(path string, p Preferences) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &PersistError{Path: path, Err: fmt.Errorf("create directory: %w", err)}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return &PersistError{Path: path, Err: fmt.Errorf("serialize: %w", err)}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &PersistError{Path: path, Err: err}
	}
	return nil
}

// Store is the single authoritative copy of Preferences for a process.
// Every read and write goes through mu.
type Store struct {
	mu    sync.Mutex
	path  string
	prefs Preferences
}

// Open loads the store from path, falling back to defaults.
func Open(path string) *Store {
	return &Store{path: path, prefs: Load(path)}
}

// NewStore returns a store seeded with p that persists to path.
func NewStore(path string, p Preferences) *Store {
	p = p.Clone()
	p.FontScale = ClampFontScale(p.FontScale)
	return &Store{path: path, prefs: p}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Get returns a snapshot of the current preferences.
func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Clone()
}

// Update applies fn under the lock, clamps the font scale and persists the
// result. When persisting fails the mutation is kept and a *PersistError is
// returned together with the new snapshot.
func (s *Store) Update(fn func(p *Preferences)) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.prefs)
	s.prefs.FontScale = ClampFontScale(s.prefs.FontScale)

	err := Save(s.path, s.prefs)
	return s.prefs.Clone(), err
}

// Package state persists small UI preferences between runs.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/marcus/notedeck/internal/note"
)

// allCategory is stored for the unfiltered category so it can be told
// apart from "never set".
const allCategory = "all"

// State holds persistent user preferences.
type State struct {
	LastCategory   string `json:"lastCategory,omitempty"` // tag name or "all"
	PreviewVisible *bool  `json:"previewVisible,omitempty"`
}

var (
	current *State
	mu      sync.RWMutex
	path    string
)

// Init loads state from the default location.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "notedeck"))
}

// InitWithDir loads state from a specified directory.
// This is primarily for testing to avoid reading real user state.
func InitWithDir(dir string) error {
	mu.Lock()
	path = filepath.Join(dir, "state.json")
	mu.Unlock()
	return Load()
}

// Load reads state from disk.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = &State{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no state file yet, use defaults
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, current)
}

// Save writes state to disk. Without a prior Init it is a no-op.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil || path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetLastCategory returns the category shown when the app last ran.
// ok is false when none was saved.
func GetLastCategory() (tag note.Tag, ok bool) {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil || current.LastCategory == "" {
		return "", false
	}
	return note.ParseCategory(current.LastCategory), true
}

// SetLastCategory saves the active category filter.
func SetLastCategory(tag note.Tag) error {
	value := string(tag)
	if tag == "" {
		value = allCategory
	}
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.LastCategory = value
	mu.Unlock()
	return Save()
}

// GetPreviewVisible returns the saved preview pane visibility, or def when
// none was saved.
func GetPreviewVisible(def bool) bool {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil || current.PreviewVisible == nil {
		return def
	}
	return *current.PreviewVisible
}

// SetPreviewVisible saves the preview pane visibility.
func SetPreviewVisible(visible bool) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.PreviewVisible = &visible
	mu.Unlock()
	return Save()
}

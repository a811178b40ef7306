package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	API     saveAPIConfig     `json:"api"`
	Query   saveQueryConfig   `json:"query"`
	Plugins savePluginsConfig `json:"plugins"`
	UI      UIConfig          `json:"ui"`
	Keymap  KeymapConfig      `json:"keymap"`
}

type saveAPIConfig struct {
	BaseURL string `json:"baseURL"`
	Token   string `json:"token,omitempty"`
	Timeout string `json:"timeout"`
	PerPage int    `json:"perPage"`
}

type saveQueryConfig struct {
	StaleTime string `json:"staleTime"`
	GCTime    string `json:"gcTime"`
	Retry     int    `json:"retry"`
}

type savePluginsConfig struct {
	Notes saveNotesConfig `json:"notes"`
}

type saveNotesConfig struct {
	SearchDebounce    string `json:"searchDebounce"`
	DefaultCategory   string `json:"defaultCategory"`
	ToastDuration     string `json:"toastDuration"`
	ShowPreview       bool   `json:"showPreview"`
	PrefetchNextPage  bool   `json:"prefetchNextPage"`
	ResetPageOnSearch bool   `json:"resetPageOnSearch"`
	RetainFormOnError bool   `json:"retainFormOnError"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	notes := cfg.Plugins.Notes
	return saveConfig{
		API: saveAPIConfig{
			BaseURL: cfg.API.BaseURL,
			Token:   cfg.API.Token,
			Timeout: cfg.API.Timeout.String(),
			PerPage: cfg.API.PerPage,
		},
		Query: saveQueryConfig{
			StaleTime: cfg.Query.StaleTime.String(),
			GCTime:    cfg.Query.GCTime.String(),
			Retry:     cfg.Query.Retry,
		},
		Plugins: savePluginsConfig{
			Notes: saveNotesConfig{
				SearchDebounce:    notes.SearchDebounce.String(),
				DefaultCategory:   notes.DefaultCategory,
				ToastDuration:     notes.ToastDuration.String(),
				ShowPreview:       notes.ShowPreview,
				PrefetchNextPage:  notes.PrefetchNextPage,
				ResetPageOnSearch: notes.ResetPageOnSearch,
				RetainFormOnError: notes.RetainFormOnError,
			},
		},
		UI:     cfg.UI,
		Keymap: cfg.Keymap,
	}
}

// Save writes the config to the default location.
func Save(cfg *Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the config to path, creating parent directories. Keys the
// config does not manage are preserved. The file is written to a temp file
// and renamed so the watcher never reads a partial write.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// Read existing file to preserve unknown keys
	existing := make(map[string]json.RawMessage)
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("parse existing config: %w", err)
		}
	}

	managed, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var managedKeys map[string]json.RawMessage
	if err := json.Unmarshal(managed, &managedKeys); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	for k, v := range managedKeys {
		existing[k] = v
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

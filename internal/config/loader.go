package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/notedeck"
	configFile = "config.json"

	// EnvAPIURL and EnvAPIToken override the file values when set.
	EnvAPIURL   = "NOTEDECK_API_URL"
	EnvAPIToken = "NOTEDECK_API_TOKEN"
)

// rawConfig is the JSON-unmarshaling intermediary.
type rawConfig struct {
	API     rawAPIConfig     `json:"api"`
	Query   rawQueryConfig   `json:"query"`
	Plugins rawPluginsConfig `json:"plugins"`
	UI      rawUIConfig      `json:"ui"`
	Keymap  KeymapConfig     `json:"keymap"`
}

type rawAPIConfig struct {
	BaseURL string `json:"baseURL"`
	Token   string `json:"token"`
	Timeout string `json:"timeout"`
	PerPage *int   `json:"perPage"`
}

type rawQueryConfig struct {
	StaleTime string `json:"staleTime"`
	GCTime    string `json:"gcTime"`
	Retry     *int   `json:"retry"`
}

type rawPluginsConfig struct {
	Notes rawNotesConfig `json:"notes"`
}

type rawNotesConfig struct {
	SearchDebounce    string `json:"searchDebounce"`
	DefaultCategory   string `json:"defaultCategory"`
	ToastDuration     string `json:"toastDuration"`
	ShowPreview       *bool  `json:"showPreview"`
	PrefetchNextPage  *bool  `json:"prefetchNextPage"`
	ResetPageOnSearch *bool  `json:"resetPageOnSearch"`
	RetainFormOnError *bool  `json:"retainFormOnError"`
}

type rawUIConfig struct {
	ShowFooter    *bool  `json:"showFooter"`
	MarkdownTheme string `json:"markdownTheme"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/notedeck/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file: defaults plus environment.
		case err != nil:
			return nil, err
		default:
			var raw rawConfig
			if err := json.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			mergeConfig(cfg, &raw)
		}
	}

	applyEnv(cfg)

	if _, err := url.Parse(cfg.API.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid api.baseURL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// API
	if raw.API.BaseURL != "" {
		cfg.API.BaseURL = raw.API.BaseURL
	}
	if raw.API.Token != "" {
		cfg.API.Token = raw.API.Token
	}
	mergeDuration(&cfg.API.Timeout, raw.API.Timeout, "api.timeout")
	if raw.API.PerPage != nil {
		cfg.API.PerPage = *raw.API.PerPage
	}

	// Query cache
	mergeDuration(&cfg.Query.StaleTime, raw.Query.StaleTime, "query.staleTime")
	mergeDuration(&cfg.Query.GCTime, raw.Query.GCTime, "query.gcTime")
	if raw.Query.Retry != nil {
		cfg.Query.Retry = *raw.Query.Retry
	}

	// Notes
	notes := &cfg.Plugins.Notes
	mergeDuration(&notes.SearchDebounce, raw.Plugins.Notes.SearchDebounce, "plugins.notes.searchDebounce")
	mergeDuration(&notes.ToastDuration, raw.Plugins.Notes.ToastDuration, "plugins.notes.toastDuration")
	if raw.Plugins.Notes.DefaultCategory != "" {
		notes.DefaultCategory = raw.Plugins.Notes.DefaultCategory
	}
	if raw.Plugins.Notes.ShowPreview != nil {
		notes.ShowPreview = *raw.Plugins.Notes.ShowPreview
	}
	if raw.Plugins.Notes.PrefetchNextPage != nil {
		notes.PrefetchNextPage = *raw.Plugins.Notes.PrefetchNextPage
	}
	if raw.Plugins.Notes.ResetPageOnSearch != nil {
		notes.ResetPageOnSearch = *raw.Plugins.Notes.ResetPageOnSearch
	}
	if raw.Plugins.Notes.RetainFormOnError != nil {
		notes.RetainFormOnError = *raw.Plugins.Notes.RetainFormOnError
	}

	// UI
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
	if raw.UI.MarkdownTheme != "" {
		cfg.UI.MarkdownTheme = raw.UI.MarkdownTheme
	}

	// Keymap
	for key, cmd := range raw.Keymap.Overrides {
		cfg.Keymap.Overrides[key] = cmd
	}
}

// mergeDuration parses s into dst, leaving dst untouched when s is empty
// or malformed.
func mergeDuration(dst *time.Duration, s, field string) {
	if s == "" {
		return
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("ignoring invalid duration", "field", field, "value", s, "err", err)
		return
	}
	*dst = d
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIToken)); v != "" {
		cfg.API.Token = v
	}
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// Dir returns the directory holding config, state and logs.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir)
}

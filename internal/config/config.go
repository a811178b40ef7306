package config

import "time"

// Config is the root configuration structure.
type Config struct {
	API     APIConfig     `json:"api"`
	Query   QueryConfig   `json:"query"`
	Plugins PluginsConfig `json:"plugins"`
	UI      UIConfig      `json:"ui"`
	Keymap  KeymapConfig  `json:"keymap"`
}

// APIConfig points the client at the remote notes API.
type APIConfig struct {
	BaseURL string        `json:"baseURL"`
	Token   string        `json:"token,omitempty"`
	Timeout time.Duration `json:"timeout"`
	PerPage int           `json:"perPage"`
}

// QueryConfig tunes the query cache.
type QueryConfig struct {
	StaleTime time.Duration `json:"staleTime"` // how long a result is served without refetching; 0 always refetches
	GCTime    time.Duration `json:"gcTime"`    // unread entries are evicted after this
	Retry     int           `json:"retry"`     // extra attempts after a failed fetch, -1 disables
}

// PluginsConfig holds per-plugin configuration.
type PluginsConfig struct {
	Notes NotesPluginConfig `json:"notes"`
}

// NotesPluginConfig configures the notes list.
type NotesPluginConfig struct {
	SearchDebounce  time.Duration `json:"searchDebounce"`
	DefaultCategory string        `json:"defaultCategory"` // "all" or a tag name
	ToastDuration   time.Duration `json:"toastDuration"`
	ShowPreview     bool          `json:"showPreview"`
	// PrefetchNextPage warms the cache with the following page after each load.
	PrefetchNextPage bool `json:"prefetchNextPage"`

	// ResetPageOnSearch jumps back to page 1 when the search text changes.
	ResetPageOnSearch bool `json:"resetPageOnSearch"`
	// RetainFormOnError restores the submitted values into the create form
	// when the create request fails. The form is always cleared on submit.
	RetainFormOnError bool `json:"retainFormOnError"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowFooter    bool   `json:"showFooter"`
	MarkdownTheme string `json:"markdownTheme"` // glamour standard style: dark, light, notty...
}

// KeymapConfig holds user key overrides, key -> command ID.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://notehub-public.goit.study/api",
			Timeout: 10 * time.Second,
			PerPage: 12,
		},
		Query: QueryConfig{
			StaleTime: 30 * time.Second,
			GCTime:    5 * time.Minute,
			Retry:     3,
		},
		Plugins: PluginsConfig{
			Notes: NotesPluginConfig{
				SearchDebounce:  300 * time.Millisecond,
				DefaultCategory: "all",
				ToastDuration:   3 * time.Second,
				ShowPreview:     true,

				PrefetchNextPage: true,
			},
		},
		UI: UIConfig{
			ShowFooter:    true,
			MarkdownTheme: "dark",
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.API.Timeout <= 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.API.PerPage <= 0 {
		c.API.PerPage = 12
	}
	if c.Query.StaleTime < 0 {
		c.Query.StaleTime = 30 * time.Second
	}
	if c.Query.GCTime <= 0 {
		c.Query.GCTime = 5 * time.Minute
	}
	if c.Plugins.Notes.SearchDebounce < 0 {
		c.Plugins.Notes.SearchDebounce = 300 * time.Millisecond
	}
	if c.Plugins.Notes.ToastDuration <= 0 {
		c.Plugins.Notes.ToastDuration = 3 * time.Second
	}
	if c.UI.MarkdownTheme == "" {
		c.UI.MarkdownTheme = "dark"
	}
	return nil
}

package app

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/notedeck/internal/api"
	"github.com/marcus/notedeck/internal/config"
	"github.com/marcus/notedeck/internal/keymap"
	"github.com/marcus/notedeck/internal/msg"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/query"
)

// APIFactory builds the notes API client for a configuration. It runs at
// startup and after every config reload.
type APIFactory func(cfg *config.Config, logger *slog.Logger) (api.NotesAPI, error)

// NewAPI is the default APIFactory.
func NewAPI(cfg *config.Config, logger *slog.Logger) (api.NotesAPI, error) {
	return api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.API.Timeout,
		PerPage: cfg.API.PerPage,
		Logger:  logger,
	})
}

// NewQuery creates the notes cache. A configured retry count or stale time
// of 0 means none here, while the cache treats 0 as "use the default".
func NewQuery(cfg *config.Config, logger *slog.Logger) *query.Client[note.ListResult] {
	retry := cfg.Query.Retry
	if retry <= 0 {
		retry = -1
	}
	staleTime := cfg.Query.StaleTime
	if staleTime == 0 {
		staleTime = -1
	}
	return query.NewClient[note.ListResult](query.Options{
		StaleTime:   staleTime,
		GCTime:      cfg.Query.GCTime,
		Retry:       retry,
		ShouldRetry: api.IsRetryable,
		Logger:      logger,
	})
}

// NewKeymap registers the default bindings plus the user's overrides.
// Overrides naming an unknown command are logged and skipped.
func NewKeymap(cfg *config.Config, logger *slog.Logger) *keymap.Registry {
	km := keymap.NewRegistry()
	keymap.RegisterDefaults(km)
	for key, cmdID := range cfg.Keymap.Overrides {
		if !km.SetUserOverride(key, cmdID) {
			logger.Warn("keymap: unknown command in override", "key", key, "command", cmdID)
		}
	}
	return km
}

// waitForReload blocks until the watcher delivers a reload.
func waitForReload(ch <-chan config.ReloadedMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		m, ok := <-ch
		if !ok {
			return nil
		}
		return m
	}
}

// expireToast clears toast seq after d.
func expireToast(seq uint64, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg.ToastExpiredMsg{Seq: seq}
	})
}

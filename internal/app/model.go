// Package app is the root Bubble Tea model. It hosts the notes plugin,
// draws the header and footer around it and owns app-wide state: toasts,
// the help overlay and config reloads.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/notedeck/internal/config"
	"github.com/marcus/notedeck/internal/keymap"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/plugin"
)

const (
	minWidth     = 40
	minHeight    = 10
	headerHeight = 2
	footerHeight = 1

	defaultToastDuration = 3 * time.Second
)

// Reloader is implemented by plugins that react to a new configuration.
type Reloader interface {
	Reload() tea.Cmd
}

// CategoryProvider is implemented by plugins with a category filter shown
// in the header.
type CategoryProvider interface {
	Category() note.Tag
}

// StatusProvider is implemented by plugins that report background work.
type StatusProvider interface {
	StatusLine() string
}

// Options configures a Model.
type Options struct {
	// Reloads delivers config changes; nil disables hot reload.
	Reloads <-chan config.ReloadedMsg
	// NewAPI rebuilds the API client after a reload. Defaults to NewAPI.
	NewAPI APIFactory
}

// Model is the root Bubble Tea model for notedeck.
type Model struct {
	cfg    *config.Config
	pctx   *plugin.Context
	plugin plugin.Plugin
	keymap *keymap.Registry

	reloads <-chan config.ReloadedMsg
	newAPI  APIFactory

	// UI state
	width, height int
	showHelp      bool
	showFooter    bool
	ready         bool

	// Toast
	toastMsg     string
	toastIsError bool
	toastSeq     uint64
}

// New creates the application model. p must already be initialized with
// pctx.
func New(p plugin.Plugin, pctx *plugin.Context, opts Options) Model {
	newAPI := opts.NewAPI
	if newAPI == nil {
		newAPI = NewAPI
	}
	return Model{
		cfg:        pctx.Config,
		pctx:       pctx,
		plugin:     p,
		keymap:     pctx.Keymap,
		reloads:    opts.Reloads,
		newAPI:     newAPI,
		showFooter: pctx.Config.UI.ShowFooter,
	}
}

// Init starts the plugin and the config watcher loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.plugin.Start(), waitForReload(m.reloads))
}

// ActivePlugin returns the hosted plugin.
func (m Model) ActivePlugin() plugin.Plugin {
	return m.plugin
}

// activeContext is the keymap context of whatever has focus.
func (m Model) activeContext() string {
	if m.showHelp {
		return keymap.ContextHelp
	}
	return m.plugin.FocusContext()
}

// consumesTextInput reports whether the plugin wants printable keys.
func (m Model) consumesTextInput() bool {
	if c, ok := m.plugin.(plugin.TextInputConsumer); ok {
		return c.ConsumesTextInput()
	}
	return false
}

// showToast displays message and returns the command that hides it.
func (m *Model) showToast(message string, d time.Duration, isError bool) tea.Cmd {
	if d <= 0 {
		d = m.cfg.Plugins.Notes.ToastDuration
	}
	if d <= 0 {
		d = defaultToastDuration
	}
	m.toastSeq++
	m.toastMsg = message
	m.toastIsError = isError
	return expireToast(m.toastSeq, d)
}

func (m *Model) clearToast(seq uint64) {
	if seq == m.toastSeq {
		m.toastMsg = ""
		m.toastIsError = false
	}
}

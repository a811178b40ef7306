// Package plugin defines the contract between the app shell and the
// views it hosts.
package plugin

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/notedeck/internal/api"
	"github.com/marcus/notedeck/internal/config"
	"github.com/marcus/notedeck/internal/keymap"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/query"
)

// Plugin defines the interface for views hosted by the app.
type Plugin interface {
	ID() string
	Name() string
	Init(ctx *Context) error
	Start() tea.Cmd
	Stop()
	Update(msg tea.Msg) (Plugin, tea.Cmd)
	View(width, height int) string
	Commands() []Command
	FocusContext() string
}

// TextInputConsumer is an optional capability for plugins that need
// alphanumeric key input to be forwarded as typed text instead of being
// intercepted by app-level shortcuts.
type TextInputConsumer interface {
	ConsumesTextInput() bool
}

// Context carries the shared services a plugin needs. On a config reload
// the app swaps Config, API, Query and Keymap in place and bumps Epoch, so
// plugins must read them through the Context rather than caching them.
type Context struct {
	Config *config.Config
	Logger *slog.Logger
	API    api.NotesAPI
	Query  *query.Client[note.ListResult]
	Keymap *keymap.Registry
	Epoch  uint64
}

// Category represents a logical grouping of commands in the help overlay.
type Category string

const (
	CategoryNavigation Category = "Navigation"
	CategoryActions    Category = "Actions"
	CategoryView       Category = "View"
	CategorySearch     Category = "Search"
	CategorySystem     Category = "System"
)

// Command represents a keybinding command exposed by a plugin.
type Command struct {
	ID          string   // Unique identifier (e.g., "create-note")
	Name        string   // Short name for footer (e.g., "New")
	Description string   // Full description for the help overlay
	Category    Category // Logical grouping for help display
	Context     string   // Activation context
	Priority    int      // Footer display priority: 1=highest, 0=default (treated as 99)
}

// EpochMessage is implemented by async messages that need staleness detection.
// Messages from async operations should embed an Epoch field and implement this interface.
type EpochMessage interface {
	GetEpoch() uint64
}

// IsStale returns true if the message's epoch doesn't match the current context epoch.
// Use this in Update() handlers to discard results fetched against a
// previous configuration:
//
//	if plugin.IsStale(p.ctx, msg) { return p, nil }
func IsStale(ctx *Context, msg EpochMessage) bool {
	return ctx != nil && msg.GetEpoch() != ctx.Epoch
}

// Package notes implements the notes list: debounced search, category
// filter, pagination over the query cache and the create-note modal.
package notes

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/notedeck/internal/keymap"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/plugin"
	"github.com/marcus/notedeck/internal/search"
	"github.com/marcus/notedeck/internal/state"
	"github.com/marcus/notedeck/internal/styles"
	"github.com/marcus/notedeck/internal/ui"
)

const (
	pluginID   = "notes"
	pluginName = "Notes"

	// Toast texts
	toastCreated     = "Note created!"
	toastCreateError = "Oops, something went wrong while creating the note."
	toastFetchError  = "Oops, something went wrong while getting the notes."
)

// Options configures a Plugin before Init.
type Options struct {
	// Category is the initial filter; the zero Tag shows all notes.
	Category note.Tag
}

// Plugin implements the notes list.
type Plugin struct {
	ctx  *plugin.Context
	opts Options

	machine *search.Machine
	pager   ui.Pagination

	// Search box
	searchInput   textinput.Model
	searchFocused bool

	// List state
	cursor    int
	scrollOff int

	// Preview pane
	showPreview   bool
	previewScroll int
	preview       previewRenderer

	// Create modal; nil when closed
	form     *createForm
	creating int // create requests in flight

	// View dimensions
	width  int
	height int

	// Root context for fetches, cancelled by Stop
	baseCtx     context.Context
	stopFetches context.CancelFunc

	now            func() time.Time
	writeClipboard func(string) error
}

// New creates a notes plugin.
func New(opts Options) *Plugin {
	return &Plugin{
		opts:           opts,
		now:            time.Now,
		writeClipboard: clipboard.WriteAll,
	}
}

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return pluginID }

// Name returns the plugin display name.
func (p *Plugin) Name() string { return pluginName }

// Init initializes the plugin with context.
func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	cfg := ctx.Config.Plugins.Notes

	p.machine = search.New(p.opts.Category, search.Options{
		ResetPageOnSearch: cfg.ResetPageOnSearch,
	})
	p.pager = ui.NewPagination()
	p.cursor = 0
	p.scrollOff = 0
	p.form = nil
	p.creating = 0

	ti := textinput.New()
	ti.Placeholder = "Search notes"
	ti.Prompt = "/ "
	ti.PromptStyle = styles.Muted
	ti.CharLimit = 100
	p.searchInput = ti
	p.searchFocused = false

	p.showPreview = state.GetPreviewVisible(cfg.ShowPreview)
	p.previewScroll = 0
	p.preview = previewRenderer{theme: ctx.Config.UI.MarkdownTheme}

	p.baseCtx, p.stopFetches = context.WithCancel(context.Background())
	return nil
}

// Start loads the first page.
func (p *Plugin) Start() tea.Cmd {
	return p.load(p.machine.Refetch())
}

// Stop cancels in-flight fetches.
func (p *Plugin) Stop() {
	if p.machine != nil {
		p.machine.Stop()
	}
	if p.stopFetches != nil {
		p.stopFetches()
	}
}

// Reload applies a new configuration. The app has already swapped the API
// client and cleared the cache, so the current key is fetched again.
func (p *Plugin) Reload() tea.Cmd {
	cfg := p.ctx.Config
	p.preview = previewRenderer{theme: cfg.UI.MarkdownTheme}
	p.machine.SetOptions(search.Options{ResetPageOnSearch: cfg.Plugins.Notes.ResetPageOnSearch})
	return p.load(p.machine.Refetch())
}

// Category returns the active category filter.
func (p *Plugin) Category() note.Tag { return p.machine.Tag() }

// Update handles messages.
func (p *Plugin) Update(msg tea.Msg) (plugin.Plugin, tea.Cmd) {
	switch msg := msg.(type) {
	case NotesLoadedMsg:
		return p, p.handleLoaded(msg)

	case NoteCreatedMsg:
		return p, p.handleCreated(msg)

	case searchDebounceMsg:
		if key, ok := p.machine.Expire(msg.Seq); ok {
			return p, p.load(key)
		}
		return p, nil

	case formSubmittedMsg:
		return p, p.handleFormDone()

	case formCancelledMsg:
		p.closeForm()
		return p, nil

	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
		return p, nil

	case tea.KeyMsg:
		if p.form != nil {
			return p, p.handleFormKey(msg)
		}
		if p.searchFocused {
			return p, p.handleSearchKey(msg)
		}
		return p, p.handleListKey(msg)
	}

	// Everything else (cursor blink and similar) belongs to the focused
	// input.
	if p.form != nil {
		return p, p.form.Update(msg)
	}
	if p.searchFocused {
		var cmd tea.Cmd
		p.searchInput, cmd = p.searchInput.Update(msg)
		return p, cmd
	}
	return p, nil
}

// View renders the plugin.
func (p *Plugin) View(width, height int) string {
	p.width = width
	p.height = height

	content := p.renderView()
	content = lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(content)

	if p.form != nil {
		return ui.OverlayModal(content, p.renderModal(), width, height)
	}
	return content
}

// Commands returns the available commands.
func (p *Plugin) Commands() []plugin.Command {
	if p.form != nil {
		return []plugin.Command{
			{ID: "cancel", Name: "Cancel", Description: "Close the form and discard it", Category: plugin.CategoryActions, Context: keymap.ContextNotesCreate, Priority: 1},
		}
	}
	if p.searchFocused {
		return []plugin.Command{
			{ID: "apply-search", Name: "Search", Description: "Search now", Category: plugin.CategorySearch, Context: keymap.ContextNotesSearch, Priority: 1},
			{ID: "blur-search", Name: "Done", Description: "Leave the search box", Category: plugin.CategorySearch, Context: keymap.ContextNotesSearch, Priority: 2},
		}
	}
	cmds := []plugin.Command{
		{ID: "create-note", Name: "New", Description: "Create a note", Category: plugin.CategoryActions, Context: keymap.ContextNotesList, Priority: 1},
		{ID: "focus-search", Name: "Search", Description: "Focus the search box", Category: plugin.CategorySearch, Context: keymap.ContextNotesList, Priority: 2},
		{ID: "next-category", Name: "Category", Description: "Next category", Category: plugin.CategoryNavigation, Context: keymap.ContextNotesList, Priority: 3},
		{ID: "prev-category", Name: "PrevCat", Description: "Previous category", Category: plugin.CategoryNavigation, Context: keymap.ContextNotesList, Priority: 20},
	}
	if p.pager.Visible() {
		cmds = append(cmds,
			plugin.Command{ID: "next-page", Name: "Next", Description: "Next page", Category: plugin.CategoryNavigation, Context: keymap.ContextNotesList, Priority: 4},
			plugin.Command{ID: "prev-page", Name: "Prev", Description: "Previous page", Category: plugin.CategoryNavigation, Context: keymap.ContextNotesList, Priority: 5},
		)
	}
	if p.machine.Search() != "" || p.machine.Input() != "" {
		cmds = append(cmds,
			plugin.Command{ID: "clear-search", Name: "Clear", Description: "Clear the search", Category: plugin.CategorySearch, Context: keymap.ContextNotesList, Priority: 6},
		)
	}
	cmds = append(cmds,
		plugin.Command{ID: "toggle-preview", Name: "Preview", Description: "Toggle the preview pane", Category: plugin.CategoryView, Context: keymap.ContextNotesList, Priority: 10},
		plugin.Command{ID: "cursor-down", Name: "Down", Description: "Move down", Category: plugin.CategoryNavigation, Context: keymap.ContextNotesList, Priority: 30},
		plugin.Command{ID: "cursor-up", Name: "Up", Description: "Move up", Category: plugin.CategoryNavigation, Context: keymap.ContextNotesList, Priority: 30},
		plugin.Command{ID: "cursor-top", Name: "Top", Description: "Jump to the first note", Category: plugin.CategoryNavigation, Context: keymap.ContextNotesList, Priority: 31},
		plugin.Command{ID: "cursor-bottom", Name: "Bottom", Description: "Jump to the last note", Category: plugin.CategoryNavigation, Context: keymap.ContextNotesList, Priority: 31},
		plugin.Command{ID: "preview-down", Name: "ScrollDn", Description: "Scroll the preview down", Category: plugin.CategoryView, Context: keymap.ContextNotesList, Priority: 32},
		plugin.Command{ID: "preview-up", Name: "ScrollUp", Description: "Scroll the preview up", Category: plugin.CategoryView, Context: keymap.ContextNotesList, Priority: 32},
		plugin.Command{ID: "yank-content", Name: "Yank", Description: "Copy note content", Category: plugin.CategoryActions, Context: keymap.ContextNotesList, Priority: 13},
		plugin.Command{ID: "yank-title", Name: "YankTitle", Description: "Copy note title", Category: plugin.CategoryActions, Context: keymap.ContextNotesList, Priority: 14},
		plugin.Command{ID: "refresh", Name: "Refresh", Description: "Reload notes", Category: plugin.CategoryActions, Context: keymap.ContextNotesList, Priority: 15},
	)
	return cmds
}

// FocusContext returns the current focus context.
func (p *Plugin) FocusContext() string {
	if p.form != nil {
		return keymap.ContextNotesCreate
	}
	if p.searchFocused {
		return keymap.ContextNotesSearch
	}
	return keymap.ContextNotesList
}

// ConsumesTextInput reports whether printable keys should reach the
// search box or the form instead of app shortcuts.
func (p *Plugin) ConsumesTextInput() bool {
	return p.form != nil || p.searchFocused
}

// StatusLine summarizes the list state for the app header.
func (p *Plugin) StatusLine() string {
	switch {
	case p.machine.Loading():
		return "loading…"
	case p.creating > 0:
		return "saving…"
	case p.machine.Fetching():
		return "refreshing…"
	}
	return ""
}

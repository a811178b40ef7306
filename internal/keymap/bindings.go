package keymap

// Contexts used by the notes UI.
const (
	ContextGlobal      = "global"
	ContextNotesList   = "notes-list"
	ContextNotesSearch = "notes-search"
	ContextNotesCreate = "notes-create"
	ContextHelp        = "help"
)

// DefaultBindings returns the default key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Global bindings
		{Key: "q", Command: "quit", Context: ContextGlobal},
		{Key: "ctrl+c", Command: "quit", Context: ContextGlobal},
		{Key: "?", Command: "toggle-help", Context: ContextGlobal},
		{Key: "ctrl+h", Command: "toggle-footer", Context: ContextGlobal},

		// Notes list
		{Key: "j", Command: "cursor-down", Context: ContextNotesList},
		{Key: "down", Command: "cursor-down", Context: ContextNotesList},
		{Key: "k", Command: "cursor-up", Context: ContextNotesList},
		{Key: "up", Command: "cursor-up", Context: ContextNotesList},
		{Key: "g", Command: "cursor-top", Context: ContextNotesList},
		{Key: "G", Command: "cursor-bottom", Context: ContextNotesList},
		{Key: "/", Command: "focus-search", Context: ContextNotesList},
		{Key: "esc", Command: "clear-search", Context: ContextNotesList},
		{Key: "tab", Command: "next-category", Context: ContextNotesList},
		{Key: "shift+tab", Command: "prev-category", Context: ContextNotesList},
		{Key: "]", Command: "next-page", Context: ContextNotesList},
		{Key: "right", Command: "next-page", Context: ContextNotesList},
		{Key: "l", Command: "next-page", Context: ContextNotesList},
		{Key: "[", Command: "prev-page", Context: ContextNotesList},
		{Key: "left", Command: "prev-page", Context: ContextNotesList},
		{Key: "h", Command: "prev-page", Context: ContextNotesList},
		{Key: "n", Command: "create-note", Context: ContextNotesList},
		{Key: "y", Command: "yank-content", Context: ContextNotesList},
		{Key: "Y", Command: "yank-title", Context: ContextNotesList},
		{Key: "r", Command: "refresh", Context: ContextNotesList},
		{Key: "p", Command: "toggle-preview", Context: ContextNotesList},
		{Key: "ctrl+d", Command: "preview-down", Context: ContextNotesList},
		{Key: "ctrl+u", Command: "preview-up", Context: ContextNotesList},

		// Search box focused; other keys go to the text input
		{Key: "esc", Command: "blur-search", Context: ContextNotesSearch},
		{Key: "enter", Command: "apply-search", Context: ContextNotesSearch},
		{Key: "down", Command: "blur-search", Context: ContextNotesSearch},

		// Create-note modal; huh handles navigation and submit
		{Key: "esc", Command: "cancel", Context: ContextNotesCreate},

		// Help overlay
		{Key: "esc", Command: "close-help", Context: ContextHelp},
		{Key: "?", Command: "close-help", Context: ContextHelp},
	}
}

// RegisterDefaults registers all default bindings with the registry.
func RegisterDefaults(r *Registry) {
	for _, b := range DefaultBindings() {
		r.RegisterBinding(b)
	}
}

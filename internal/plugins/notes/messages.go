package notes

import (
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/query"
)

// NotesLoadedMsg carries the result of a list fetch for Key.
type NotesLoadedMsg struct {
	Key    query.Key
	Result note.ListResult
	Err    error
	Epoch  uint64
}

// GetEpoch implements plugin.EpochMessage.
func (m NotesLoadedMsg) GetEpoch() uint64 { return m.Epoch }

// NoteCreatedMsg reports the outcome of a create request. Values are the
// submitted form values, kept so they can be restored on failure.
type NoteCreatedMsg struct {
	Note   note.Note
	Values note.Values
	Err    error
	Epoch  uint64
}

// GetEpoch implements plugin.EpochMessage.
func (m NoteCreatedMsg) GetEpoch() uint64 { return m.Epoch }

// searchDebounceMsg fires when the search box has been quiet for the
// debounce window. Only the latest Seq is acted on.
type searchDebounceMsg struct {
	Seq uint64
}

// formSubmittedMsg and formCancelledMsg are emitted by the create form.
type (
	formSubmittedMsg struct{}
	formCancelledMsg struct{}
)

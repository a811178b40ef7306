// Package search drives the note list's search box, paging and category
// filter as an explicit state machine: keystrokes are debounced, every key
// change starts a fetch that cancels the superseded one, and responses for
// anything but the current key are discarded.
package search

import (
	"context"

	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/query"
)

// State is the machine's phase.
type State int

const (
	Idle State = iota
	Debouncing
	Fetching
	Settled
	Errored
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Fetching:
		return "fetching"
	case Settled:
		return "settled"
	case Errored:
		return "errored"
	default:
		return "idle"
	}
}

// Options tweaks behaviours that are deliberately off by default.
type Options struct {
	// ResetPageOnSearch moves back to page 1 when the debounced search text
	// changes. Off by default: the page number carries over to the new
	// search, which may then ask for a page past the end.
	ResetPageOnSearch bool
}

// Machine owns the list's query inputs and the data currently displayed.
// It is not safe for concurrent use; the TUI drives it from Update.
type Machine struct {
	opts    Options
	phase   State // fetch phase: Idle, Fetching, Settled or Errored
	pending bool  // a debounce timer is outstanding

	input  string // raw search box text
	search string // debounced text used in the key
	page   int
	tag    note.Tag
	seq    uint64

	current query.Key
	cancel  context.CancelFunc

	data    note.ListResult
	hasData bool
	err     error
}

// New starts on page 1 of the given category with an empty search.
func New(tag note.Tag, opts Options) *Machine {
	m := &Machine{opts: opts, page: 1, tag: tag}
	m.current = m.key()
	return m
}

// SetOptions replaces the options. It affects later transitions only.
func (m *Machine) SetOptions(opts Options) { m.opts = opts }

func (m *Machine) key() query.Key {
	return query.NotesKey(m.search, m.page, m.tag)
}

// Type records a keystroke and returns the sequence number the debounce
// timer must carry. Only the latest sequence is honoured by Expire.
func (m *Machine) Type(text string) uint64 {
	m.input = text
	m.seq++
	m.pending = true
	return m.seq
}

// Expire handles a debounce timer. It returns the key to fetch and true when
// seq is the latest keystroke and the debounced text changed the key.
func (m *Machine) Expire(seq uint64) (query.Key, bool) {
	if seq != m.seq || !m.pending {
		return query.Key{}, false
	}
	m.pending = false
	if m.input == m.search {
		return query.Key{}, false
	}
	m.search = m.input
	if m.opts.ResetPageOnSearch {
		m.page = 1
	}
	return m.changed()
}

// Flush applies the pending search text now instead of waiting for the
// debounce timer.
func (m *Machine) Flush() (query.Key, bool) {
	return m.Expire(m.seq)
}

// SetPage moves to page p (1-based).
func (m *Machine) SetPage(p int) (query.Key, bool) {
	if p < 1 {
		p = 1
	}
	if p == m.page {
		return query.Key{}, false
	}
	m.page = p
	return m.changed()
}

// SetTag switches the category filter and goes back to page 1. The search
// text is kept.
func (m *Machine) SetTag(tag note.Tag) (query.Key, bool) {
	if string(tag) == note.AllLabel {
		tag = ""
	}
	if tag == m.tag {
		return query.Key{}, false
	}
	m.tag = tag
	m.page = 1
	return m.changed()
}

// Refetch restarts the fetch for the current key, e.g. after invalidation.
func (m *Machine) Refetch() query.Key {
	key, _ := m.changedForce()
	return key
}

func (m *Machine) changed() (query.Key, bool) {
	key := m.key()
	if key == m.current && m.phase == Settled {
		return query.Key{}, false
	}
	return m.changedForce()
}

func (m *Machine) changedForce() (query.Key, bool) {
	m.current = m.key()
	m.phase = Fetching
	return m.current, true
}

// Begin derives the context for the fetch of the current key from parent,
// cancelling whatever fetch it supersedes.
func (m *Machine) Begin(parent context.Context) context.Context {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	return ctx
}

// Resolve applies a successful result. Results for keys other than the
// current one are dropped and false is returned.
func (m *Machine) Resolve(key query.Key, data note.ListResult) bool {
	if key != m.current {
		return false
	}
	m.release()
	m.data = data
	m.hasData = true
	m.err = nil
	m.phase = Settled
	return true
}

// Fail records a failed fetch of the current key. The previously displayed
// data is kept. Failures for superseded keys are dropped.
func (m *Machine) Fail(key query.Key, err error) bool {
	if key != m.current {
		return false
	}
	m.release()
	m.err = err
	m.phase = Errored
	return true
}

func (m *Machine) release() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Stop cancels any in-flight fetch.
func (m *Machine) Stop() { m.release() }

// State returns the current phase. An outstanding debounce timer takes
// precedence over the fetch phase.
func (m *Machine) State() State {
	if m.pending {
		return Debouncing
	}
	return m.phase
}

// Key returns the key of the in-flight or last applied fetch.
func (m *Machine) Key() query.Key { return m.current }

// Input returns the raw search box text.
func (m *Machine) Input() string { return m.input }

// Search returns the debounced search text.
func (m *Machine) Search() string { return m.search }

// Page returns the current 1-based page.
func (m *Machine) Page() int { return m.page }

// Tag returns the category filter; the zero Tag means all.
func (m *Machine) Tag() note.Tag { return m.tag }

// Data returns the displayed result, which may belong to a previous key
// while a fetch is in flight.
func (m *Machine) Data() (note.ListResult, bool) { return m.data, m.hasData }

// Notes returns the displayed notes.
func (m *Machine) Notes() []note.Note { return m.data.Notes }

// TotalPages returns the page count of the displayed data, 1 when unknown.
func (m *Machine) TotalPages() int {
	if !m.hasData || m.data.TotalPages < 1 {
		return 1
	}
	return m.data.TotalPages
}

// Err returns the error of the last failed fetch of the current key.
func (m *Machine) Err() error { return m.err }

// Loading reports whether a fetch is in flight and nothing is displayed yet.
func (m *Machine) Loading() bool { return m.phase == Fetching && !m.hasData }

// Fetching reports whether a fetch for the current key is in flight.
func (m *Machine) Fetching() bool { return m.phase == Fetching }

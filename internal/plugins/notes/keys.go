package notes

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/notedeck/internal/msg"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/query"
	"github.com/marcus/notedeck/internal/state"
)

func (p *Plugin) command(k tea.KeyMsg) string {
	if p.ctx.Keymap == nil {
		return ""
	}
	cmd, _ := p.ctx.Keymap.Lookup(k.String(), p.FocusContext())
	return cmd
}

func (p *Plugin) handleListKey(k tea.KeyMsg) tea.Cmd {
	notes := p.machine.Notes()

	switch p.command(k) {
	case "cursor-down":
		if p.cursor < len(notes)-1 {
			p.cursor++
			p.previewScroll = 0
		}
	case "cursor-up":
		if p.cursor > 0 {
			p.cursor--
			p.previewScroll = 0
		}
	case "cursor-top":
		p.cursor = 0
		p.previewScroll = 0
	case "cursor-bottom":
		p.cursor = max(0, len(notes)-1)
		p.previewScroll = 0

	case "focus-search":
		p.searchFocused = true
		return p.searchInput.Focus()
	case "clear-search":
		if p.searchInput.Value() == "" && p.machine.Search() == "" {
			return nil
		}
		p.searchInput.SetValue("")
		p.machine.Type("")
		if key, ok := p.machine.Flush(); ok {
			return p.load(key)
		}

	case "next-category":
		return p.setCategory(note.NextCategory(p.machine.Tag(), 1))
	case "prev-category":
		return p.setCategory(note.NextCategory(p.machine.Tag(), -1))

	case "next-page":
		p.pager.Sync(p.machine.Page(), p.machine.TotalPages())
		if n, changed := p.pager.Next(); changed {
			return p.setPage(n)
		}
	case "prev-page":
		p.pager.Sync(p.machine.Page(), p.machine.TotalPages())
		if n, changed := p.pager.Prev(); changed {
			return p.setPage(n)
		}

	case "create-note":
		return p.openForm()

	case "toggle-preview":
		p.showPreview = !p.showPreview
		if err := state.SetPreviewVisible(p.showPreview); err != nil {
			p.ctx.Logger.Warn("notes: save preview state", "err", err)
		}
	case "preview-down":
		p.previewScroll += max(1, p.height/2)
	case "preview-up":
		p.previewScroll = max(0, p.previewScroll-max(1, p.height/2))

	case "yank-content":
		return p.yankContent()
	case "yank-title":
		return p.yankTitle()
	case "refresh":
		return p.refresh()
	}
	return nil
}

func (p *Plugin) handleSearchKey(k tea.KeyMsg) tea.Cmd {
	switch p.command(k) {
	case "blur-search":
		p.searchFocused = false
		p.searchInput.Blur()
		return nil
	case "apply-search":
		p.searchFocused = false
		p.searchInput.Blur()
		if key, ok := p.machine.Flush(); ok {
			return p.load(key)
		}
		return nil
	}

	before := p.searchInput.Value()
	var cmd tea.Cmd
	p.searchInput, cmd = p.searchInput.Update(k)
	if p.searchInput.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, p.debounce(p.searchInput.Value()))
}

// debounce records text and schedules the timer that may turn it into a
// fetch.
func (p *Plugin) debounce(text string) tea.Cmd {
	seq := p.machine.Type(text)
	d := p.ctx.Config.Plugins.Notes.SearchDebounce
	if d <= 0 {
		return func() tea.Msg { return searchDebounceMsg{Seq: seq} }
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return searchDebounceMsg{Seq: seq}
	})
}

func (p *Plugin) setCategory(tag note.Tag) tea.Cmd {
	key, ok := p.machine.SetTag(tag)
	if !ok {
		return nil
	}
	p.cursor = 0
	p.scrollOff = 0
	p.previewScroll = 0
	if err := state.SetLastCategory(tag); err != nil {
		p.ctx.Logger.Warn("notes: save category state", "err", err)
	}
	return p.load(key)
}

func (p *Plugin) setPage(n int) tea.Cmd {
	key, ok := p.machine.SetPage(n)
	if !ok {
		return nil
	}
	p.cursor = 0
	p.scrollOff = 0
	p.previewScroll = 0
	return p.load(key)
}

// SetCategory switches the filter, as the tab keys do.
func (p *Plugin) SetCategory(tag note.Tag) tea.Cmd { return p.setCategory(tag) }

// CurrentKey returns the cache key of the list on screen.
func (p *Plugin) CurrentKey() query.Key { return p.machine.Key() }

func (p *Plugin) openForm() tea.Cmd {
	p.form = newCreateForm(note.Values{})
	return p.form.Init()
}

// closeForm discards the form and whatever was typed into it.
func (p *Plugin) closeForm() {
	p.form = nil
}

func (p *Plugin) handleFormKey(k tea.KeyMsg) tea.Cmd {
	if p.command(k) == "cancel" {
		p.closeForm()
		return nil
	}
	cmd := p.form.Update(k)
	if p.form.Completed() {
		return tea.Batch(cmd, p.handleFormDone())
	}
	return cmd
}

// handleFormDone runs once huh reports completion. The submit message may
// also arrive after the form was already handled, in which case the form is
// a fresh one and not completed.
func (p *Plugin) handleFormDone() tea.Cmd {
	if p.form == nil || !p.form.Completed() {
		return nil
	}
	if !p.form.Confirmed() {
		p.closeForm()
		return nil
	}
	return p.submit(p.form.Values())
}

func (p *Plugin) selectedNote() *note.Note {
	notes := p.machine.Notes()
	if p.cursor < 0 || p.cursor >= len(notes) {
		return nil
	}
	return &notes[p.cursor]
}

func (p *Plugin) clampCursor() {
	n := len(p.machine.Notes())
	if p.cursor >= n {
		p.cursor = max(0, n-1)
	}
}

// yankContent copies the selected note's content to the clipboard.
func (p *Plugin) yankContent() tea.Cmd {
	n := p.selectedNote()
	if n == nil {
		return nil
	}
	if n.Content == "" {
		return msg.ShowToast("No content to copy", 2*time.Second)
	}
	if err := p.writeClipboard(n.Content); err != nil {
		return msg.ShowErrorToast("Copy failed: "+err.Error(), 2*time.Second)
	}
	return msg.ShowToast("Copied note content", 2*time.Second)
}

// yankTitle copies the selected note's title to the clipboard.
func (p *Plugin) yankTitle() tea.Cmd {
	n := p.selectedNote()
	if n == nil {
		return nil
	}
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return msg.ShowToast("No title to copy", 2*time.Second)
	}
	if err := p.writeClipboard(title); err != nil {
		return msg.ShowErrorToast("Copy failed: "+err.Error(), 2*time.Second)
	}
	return msg.ShowToast("Copied: "+title, 2*time.Second)
}

func (p *Plugin) toastDuration() time.Duration {
	return p.ctx.Config.Plugins.Notes.ToastDuration
}

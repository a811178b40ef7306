package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/notedeck/internal/config"
	"github.com/marcus/notedeck/internal/keymap"
	"github.com/marcus/notedeck/internal/msg"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/plugin"
	"github.com/marcus/notedeck/internal/query"
)

const testPerPage = 2

// fakeAPI serves notes from memory and records every call.
type fakeAPI struct {
	mu        sync.Mutex
	notes     []note.Note
	fetches   []query.Key
	creates   []note.Values
	fetchErr  error
	createErr error
}

func (f *fakeAPI) FetchNotes(ctx context.Context, search string, page int, tag note.Tag) (note.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, query.NotesKey(search, page, tag))
	if f.fetchErr != nil {
		return note.ListResult{}, f.fetchErr
	}

	var matched []note.Note
	for _, n := range f.notes {
		if tag != "" && n.Tag != tag {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(n.Title+" "+n.Content), strings.ToLower(search)) {
			continue
		}
		matched = append(matched, n)
	}
	total := max(1, (len(matched)+testPerPage-1)/testPerPage)
	start := min(len(matched), (page-1)*testPerPage)
	end := min(len(matched), start+testPerPage)
	return note.ListResult{Notes: matched[start:end], TotalPages: total}, nil
}

func (f *fakeAPI) CreateNote(ctx context.Context, v note.Values) (note.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, v)
	if f.createErr != nil {
		return note.Note{}, f.createErr
	}
	n := note.Note{ID: "new-" + v.Title, Title: v.Title, Content: v.Content, Tag: v.Tag}
	f.notes = append([]note.Note{n}, f.notes...)
	return n, nil
}

func (f *fakeAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func (f *fakeAPI) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func seedNotes() []note.Note {
	return []note.Note{
		{ID: "1", Title: "Buy milk", Content: "2 litres", Tag: note.TagShopping},
		{ID: "2", Title: "Standup", Content: "Daily at 10", Tag: note.TagMeeting},
		{ID: "3", Title: "Ship release", Content: "v1.2", Tag: note.TagWork},
		{ID: "4", Title: "Call mum", Tag: note.TagPersonal},
		{ID: "5", Title: "Fix bug", Content: "**urgent**", Tag: note.TagWork},
	}
}

func newTestPlugin(t *testing.T, api *fakeAPI, mutate ...func(*config.Config)) *Plugin {
	t.Helper()
	cfg := config.Default()
	cfg.Plugins.Notes.SearchDebounce = 0
	cfg.Plugins.Notes.PrefetchNextPage = false
	for _, fn := range mutate {
		fn(cfg)
	}

	km := keymap.NewRegistry()
	keymap.RegisterDefaults(km)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := &plugin.Context{
		Config: cfg,
		Logger: logger,
		API:    api,
		Query:  query.NewClient[note.ListResult](query.Options{Retry: -1, Logger: logger}),
		Keymap: km,
		Epoch:  1,
	}
	p := New(Options{})
	p.writeClipboard = func(string) error { return nil }
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

// drain runs cmd and everything it produces, feeding the plugin's own
// messages back into Update. Other messages are returned. Commands that
// do not finish promptly (cursor blink ticks) are dropped.
func drain(t *testing.T, p *Plugin, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch m := runCmd(c).(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, m...)
		case NotesLoadedMsg, NoteCreatedMsg, searchDebounceMsg, formSubmittedMsg, formCancelledMsg:
			_, next := p.Update(m)
			queue = append(queue, next)
		default:
			out = append(out, m)
		}
	}
	return out
}

func runCmd(c tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case m := <-ch:
		return m
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func toasts(msgs []tea.Msg) []msg.ToastMsg {
	var out []msg.ToastMsg
	for _, m := range msgs {
		if t, ok := m.(msg.ToastMsg); ok {
			out = append(out, t)
		}
	}
	return out
}

func titles(p *Plugin) []string {
	var out []string
	for _, n := range p.machine.Notes() {
		out = append(out, n.Title)
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, p *Plugin, k tea.KeyMsg) []tea.Msg {
	t.Helper()
	_, cmd := p.Update(k)
	return drain(t, p, cmd)
}

func started(t *testing.T, api *fakeAPI, mutate ...func(*config.Config)) *Plugin {
	t.Helper()
	p := newTestPlugin(t, api, mutate...)
	drain(t, p, p.Start())
	return p
}

func TestStart_LoadsFirstPage(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	if got := titles(p); len(got) != testPerPage || got[0] != "Buy milk" {
		t.Errorf("titles = %v, want first page", got)
	}
	if p.machine.TotalPages() != 3 {
		t.Errorf("TotalPages = %d, want 3", p.machine.TotalPages())
	}
	if api.fetchCount() != 1 {
		t.Errorf("fetches = %d, want 1", api.fetchCount())
	}
}

func TestSearch_BurstCollapsesToOneFetch(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)
	before := api.fetchCount()

	_, _ = p.Update(keyRunes("/"))
	if !p.searchFocused {
		t.Fatal("search box should be focused")
	}

	// Collect the debounce timers without running them.
	var timers []tea.Cmd
	for _, r := range "milk" {
		_, cmd := p.Update(keyRunes(string(r)))
		timers = append(timers, cmd)
	}
	if api.fetchCount() != before {
		t.Fatalf("fetched before the debounce window passed")
	}

	for _, c := range timers {
		drain(t, p, c)
	}
	if got := api.fetchCount() - before; got != 1 {
		t.Fatalf("fetches after burst = %d, want 1", got)
	}
	api.mu.Lock()
	last := api.fetches[len(api.fetches)-1]
	api.mu.Unlock()
	if last.Search != "milk" {
		t.Errorf("fetched search = %q, want milk", last.Search)
	}
	if got := titles(p); len(got) != 1 || got[0] != "Buy milk" {
		t.Errorf("titles = %v, want [Buy milk]", got)
	}
}

func TestSearch_EnterAppliesImmediately(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	press(t, p, keyRunes("/"))
	_, _ = p.Update(keyRunes("s")) // timer dropped
	press(t, p, tea.KeyMsg{Type: tea.KeyEnter})

	if p.searchFocused {
		t.Error("enter should leave the search box")
	}
	if p.machine.Search() != "s" {
		t.Errorf("search = %q, want s", p.machine.Search())
	}
}

func TestRevisitFreshKey_NoNetworkCall(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	press(t, p, keyRunes("]"))
	if p.machine.Page() != 2 {
		t.Fatalf("page = %d, want 2", p.machine.Page())
	}
	afterPage2 := api.fetchCount()

	msgs := press(t, p, keyRunes("["))
	if p.machine.Page() != 1 {
		t.Fatalf("page = %d, want 1", p.machine.Page())
	}
	if api.fetchCount() != afterPage2 {
		t.Errorf("revisiting page 1 fetched again (%d -> %d)", afterPage2, api.fetchCount())
	}
	if len(msgs) != 0 {
		t.Errorf("unexpected messages: %v", msgs)
	}
	if got := titles(p); len(got) == 0 || got[0] != "Buy milk" {
		t.Errorf("titles = %v, want page 1 from cache", got)
	}
}

func TestCategorySwitch_DiscardsSupersededResult(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	workCmd := p.SetCategory(note.TagWork)
	if workCmd == nil {
		t.Fatal("switching category should fetch")
	}
	workKey := p.CurrentKey()
	_ = p.SetCategory(note.TagPersonal) // supersedes Work, not run yet

	// The Work response arrives late.
	stale := NotesLoadedMsg{
		Key:    workKey,
		Result: note.ListResult{Notes: []note.Note{{ID: "3", Title: "Ship release", Tag: note.TagWork}}, TotalPages: 1},
		Epoch:  1,
	}
	_, cmd := p.Update(stale)
	if cmd != nil {
		t.Error("stale result should produce no command")
	}
	for _, title := range titles(p) {
		if title == "Ship release" {
			t.Fatal("stale Work result was applied")
		}
	}
	if p.CurrentKey().Tag != note.TagPersonal {
		t.Errorf("current tag = %q, want Personal", p.CurrentKey().Tag)
	}
	// A cancelled fetch reports context.Canceled and is dropped silently.
	msgs := drain(t, p, workCmd)
	if len(toasts(msgs)) != 0 {
		t.Errorf("superseded fetch produced toasts: %v", msgs)
	}
}

func TestCategoryCycle(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	press(t, p, tea.KeyMsg{Type: tea.KeyTab})
	if p.Category() != note.TagTodo {
		t.Errorf("after tab category = %q, want Todo", p.Category())
	}
	press(t, p, tea.KeyMsg{Type: tea.KeyShiftTab})
	press(t, p, tea.KeyMsg{Type: tea.KeyShiftTab})
	if p.Category() != note.TagShopping {
		t.Errorf("after two shift+tab category = %q, want Shopping", p.Category())
	}
	if got := titles(p); len(got) != 1 || got[0] != "Buy milk" {
		t.Errorf("titles = %v, want shopping notes", got)
	}
}

func TestCategorySwitch_ReturnsToFirstPage(t *testing.T) {
	var notes []note.Note
	for i := 0; i < 10; i++ {
		notes = append(notes, note.Note{ID: fmt.Sprint("w", i), Title: fmt.Sprint("Task ", i), Tag: note.TagWork})
	}
	notes = append(notes, note.Note{ID: "s1", Title: "Buy milk", Tag: note.TagShopping})
	api := &fakeAPI{notes: notes}
	p := started(t, api)

	drain(t, p, p.SetCategory(note.TagWork))
	drain(t, p, p.setPage(4))
	if got := titles(p); len(got) != testPerPage || got[0] != "Task 6" {
		t.Fatalf("titles = %v, want page 4 of Work", got)
	}

	drain(t, p, p.SetCategory(note.TagShopping))
	if key := p.CurrentKey(); key.Page != 1 || key.Tag != note.TagShopping {
		t.Errorf("key = %v, want page 1 of Shopping", key)
	}
	if got := titles(p); len(got) != 1 || got[0] != "Buy milk" {
		t.Errorf("titles = %v, want the shopping note", got)
	}
	if p.pager.Visible() {
		t.Error("pager shown for a single page")
	}
}

func TestFetchError_ToastOnceAndKeepData(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)
	shown := titles(p)

	api.mu.Lock()
	api.fetchErr = errors.New("boom")
	api.mu.Unlock()

	msgs := press(t, p, keyRunes("]"))
	got := toasts(msgs)
	if len(got) != 1 {
		t.Fatalf("toasts = %v, want exactly one", got)
	}
	if !got[0].IsError || got[0].Message != toastFetchError {
		t.Errorf("toast = %+v, want fetch error toast", got[0])
	}
	if p.machine.Err() == nil {
		t.Error("machine should record the error")
	}
	if now := titles(p); strings.Join(now, ",") != strings.Join(shown, ",") {
		t.Errorf("titles = %v, want last good data %v", now, shown)
	}
}

func TestRefresh_InvalidatesAndRefetches(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)
	before := api.fetchCount()

	press(t, p, keyRunes("r"))
	if api.fetchCount() != before+1 {
		t.Errorf("fetches = %d, want %d", api.fetchCount(), before+1)
	}
}

func TestPrefetchNextPage(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api, func(c *config.Config) { c.Plugins.Notes.PrefetchNextPage = true })

	if _, ok, fresh := p.ctx.Query.Peek(query.NotesKey("", 2, "")); !ok || !fresh {
		t.Fatal("page 2 should be prefetched")
	}
	before := api.fetchCount()
	press(t, p, keyRunes("]"))
	// page 2 comes from the cache, page 3 is prefetched
	if got := api.fetchCount() - before; got != 1 {
		t.Errorf("fetches after next page = %d, want 1 (prefetch of page 3)", got)
	}
}

func TestPagination_HiddenForSinglePage(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()[:2]}
	p := started(t, api)

	if p.pager.Visible() {
		t.Error("pagination should be hidden with one page")
	}
	view := ansi.Strip(p.View(100, 20))
	if strings.Contains(view, "‹") {
		t.Errorf("view shows pagination for a single page:\n%s", view)
	}
	for _, c := range p.Commands() {
		if c.ID == "next-page" {
			t.Error("next-page hint should be hidden with one page")
		}
	}
}

func TestPagination_ShownWithPageCount(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	if !p.pager.Visible() || p.pager.Total() != 3 {
		t.Fatalf("pager visible=%v total=%d, want visible with 3", p.pager.Visible(), p.pager.Total())
	}
	p.width = 100
	toolbar := ansi.Strip(p.renderToolbar())
	for _, want := range []string{"‹", "1", "2", "3", "›"} {
		if !strings.Contains(toolbar, want) {
			t.Errorf("toolbar missing %q: %s", want, toolbar)
		}
	}
	if strings.Contains(toolbar, "4") {
		t.Errorf("toolbar shows a page that does not exist: %s", toolbar)
	}
}

func TestView_ListAndPreview(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	view := ansi.Strip(p.View(120, 30))
	for _, want := range []string{"Buy milk", "Standup", "Create note +", "All", "Shopping", "2 litres"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	press(t, p, keyRunes("p"))
	view = ansi.Strip(p.View(120, 30))
	if strings.Count(view, "Buy milk") != 1 {
		t.Errorf("with preview hidden the title should appear once:\n%s", view)
	}
}

func TestView_EmptySearch(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	press(t, p, keyRunes("/"))
	for _, r := range "zzz" {
		_, _ = p.Update(keyRunes(string(r)))
	}
	press(t, p, tea.KeyMsg{Type: tea.KeyEnter})

	view := ansi.Strip(p.View(100, 20))
	if !strings.Contains(view, `No notes match "zzz"`) {
		t.Errorf("view missing empty state:\n%s", view)
	}

	press(t, p, tea.KeyMsg{Type: tea.KeyEsc})
	if p.machine.Search() != "" {
		t.Errorf("esc should clear the search, got %q", p.machine.Search())
	}
}

func TestYank(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)

	var copied string
	p.writeClipboard = func(s string) error { copied = s; return nil }

	msgs := press(t, p, keyRunes("y"))
	if copied != "2 litres" {
		t.Errorf("copied %q, want content", copied)
	}
	if got := toasts(msgs); len(got) != 1 || got[0].IsError {
		t.Errorf("toasts = %v, want one success toast", got)
	}

	press(t, p, keyRunes("j"))
	press(t, p, keyRunes("Y"))
	if copied != "Standup" {
		t.Errorf("copied %q, want title of second note", copied)
	}

	p.writeClipboard = func(string) error { return errors.New("no clipboard") }
	msgs = press(t, p, keyRunes("y"))
	if got := toasts(msgs); len(got) != 1 || !got[0].IsError {
		t.Errorf("toasts = %v, want one error toast", got)
	}
}

func TestStaleEpochDropped(t *testing.T) {
	api := &fakeAPI{notes: seedNotes()}
	p := started(t, api)
	shown := titles(p)

	p.ctx.Epoch = 2
	_, cmd := p.Update(NotesLoadedMsg{Key: p.CurrentKey(), Result: note.ListResult{TotalPages: 1}, Epoch: 1})
	if cmd != nil {
		t.Error("stale epoch message should be ignored")
	}
	if strings.Join(titles(p), ",") != strings.Join(shown, ",") {
		t.Error("stale epoch message changed the list")
	}
}

package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/notedeck/internal/api"
	"github.com/marcus/notedeck/internal/config"
	"github.com/marcus/notedeck/internal/keymap"
	"github.com/marcus/notedeck/internal/msg"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/plugin"
	"github.com/marcus/notedeck/internal/query"
)

const stubContext = "stub"

// stubPlugin records what the app hands it.
type stubPlugin struct {
	received []tea.Msg
	typing   bool
	stopped  bool
	reloads  int
	category note.Tag
	status   string
}

func (s *stubPlugin) ID() string                    { return "stub" }
func (s *stubPlugin) Name() string                  { return "Stub" }
func (s *stubPlugin) Init(*plugin.Context) error    { return nil }
func (s *stubPlugin) Start() tea.Cmd                { return nil }
func (s *stubPlugin) Stop()                         { s.stopped = true }
func (s *stubPlugin) View(width, height int) string { return "stub body" }
func (s *stubPlugin) FocusContext() string          { return stubContext }
func (s *stubPlugin) ConsumesTextInput() bool       { return s.typing }
func (s *stubPlugin) Category() note.Tag            { return s.category }
func (s *stubPlugin) StatusLine() string            { return s.status }

func (s *stubPlugin) Update(m tea.Msg) (plugin.Plugin, tea.Cmd) {
	s.received = append(s.received, m)
	return s, nil
}

func (s *stubPlugin) Commands() []plugin.Command {
	return []plugin.Command{
		{ID: "stub-action", Name: "Act", Description: "Do the stub thing", Category: plugin.CategoryActions, Context: stubContext, Priority: 1},
		{ID: "stub-hidden", Name: "Hidden", Context: "elsewhere"},
	}
}

func (s *stubPlugin) Reload() tea.Cmd {
	s.reloads++
	return nil
}

type nopAPI struct{}

func (nopAPI) FetchNotes(context.Context, string, int, note.Tag) (note.ListResult, error) {
	return note.ListResult{}, nil
}

func (nopAPI) CreateNote(context.Context, note.Values) (note.Note, error) {
	return note.Note{}, nil
}

func newTestModel(t *testing.T, opts Options) (Model, *stubPlugin) {
	t.Helper()
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	km := NewKeymap(cfg, logger)
	km.RegisterBinding(keymap.Binding{Key: "a", Command: "stub-action", Context: stubContext})

	pctx := &plugin.Context{
		Config: cfg,
		Logger: logger,
		API:    nopAPI{},
		Query:  NewQuery(cfg, logger),
		Keymap: km,
		Epoch:  1,
	}
	if opts.NewAPI == nil {
		opts.NewAPI = func(*config.Config, *slog.Logger) (api.NotesAPI, error) { return nopAPI{}, nil }
	}
	p := &stubPlugin{}
	m := New(p, pctx, opts)
	m.width, m.height, m.ready = 100, 30, true
	return m, p
}

func update(t *testing.T, m Model, message tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(message)
	return next.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestKeyRouting(t *testing.T) {
	tests := []struct {
		name      string
		typing    bool
		key       tea.KeyMsg
		wantQuit  bool
		forwarded bool
	}{
		{"q quits in list", false, keyRunes("q"), true, false},
		{"ctrl+c quits in list", false, tea.KeyMsg{Type: tea.KeyCtrlC}, true, false},
		{"plugin key forwarded", false, keyRunes("a"), false, true},
		{"unbound key forwarded", false, keyRunes("z"), false, true},
		{"q typed into input", true, keyRunes("q"), false, true},
		{"? typed into input", true, keyRunes("?"), false, true},
		{"ctrl+c quits while typing", true, tea.KeyMsg{Type: tea.KeyCtrlC}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, p := newTestModel(t, Options{})
			p.typing = tt.typing
			_, cmd := update(t, m, tt.key)
			if got := isQuit(cmd); got != tt.wantQuit {
				t.Errorf("quit = %v, want %v", got, tt.wantQuit)
			}
			if tt.wantQuit && !p.stopped {
				t.Error("plugin not stopped on quit")
			}
			if got := len(p.received) == 1; got != tt.forwarded {
				t.Errorf("forwarded = %v, want %v (received %v)", got, tt.forwarded, p.received)
			}
		})
	}
}

func TestPluginBindingShadowsGlobal(t *testing.T) {
	m, p := newTestModel(t, Options{})
	m.keymap.RegisterBinding(keymap.Binding{Key: "q", Command: "stub-action", Context: stubContext})

	_, cmd := update(t, m, keyRunes("q"))
	if isQuit(cmd) {
		t.Fatal("q quit although the plugin context binds it")
	}
	if len(p.received) != 1 {
		t.Fatalf("plugin received %d messages, want 1", len(p.received))
	}
}

func TestHelpOverlay(t *testing.T) {
	m, p := newTestModel(t, Options{})

	m, _ = update(t, m, keyRunes("?"))
	if !m.showHelp {
		t.Fatal("? did not open help")
	}
	if !strings.Contains(ansi.Strip(m.View()), "Keyboard Shortcuts") {
		t.Error("help overlay not rendered")
	}
	if !strings.Contains(ansi.Strip(m.View()), "Do the stub thing") {
		t.Error("plugin command missing from help")
	}

	m, _ = update(t, m, keyRunes("a"))
	if len(p.received) != 0 {
		t.Error("keys reached the plugin while help was open")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc did not close help")
	}

	m, _ = update(t, m, keyRunes("?"))
	m, _ = update(t, m, keyRunes("?"))
	if m.showHelp {
		t.Error("? did not toggle help closed")
	}
}

func TestToggleFooter(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	if !m.showFooter {
		t.Fatal("footer hidden by default")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlH})
	if m.showFooter {
		t.Error("ctrl+h did not hide the footer")
	}
}

func TestToastExpiry(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	m, cmd := update(t, m, msg.ToastMsg{Message: "first", Duration: time.Second})
	if cmd == nil {
		t.Fatal("toast scheduled no expiry")
	}
	firstSeq := m.toastSeq
	m, _ = update(t, m, msg.ToastMsg{Message: "second", Duration: time.Second, IsError: true})

	// The first toast's timer must not hide the second one.
	m, _ = update(t, m, msg.ToastExpiredMsg{Seq: firstSeq})
	if m.toastMsg != "second" || !m.toastIsError {
		t.Fatalf("toast = %q (error %v), want second error toast", m.toastMsg, m.toastIsError)
	}
	if !strings.Contains(ansi.Strip(m.View()), "second") {
		t.Error("toast missing from footer")
	}

	m, _ = update(t, m, msg.ToastExpiredMsg{Seq: m.toastSeq})
	if m.toastMsg != "" {
		t.Errorf("toast = %q after expiry, want empty", m.toastMsg)
	}
}

func TestReload(t *testing.T) {
	var built int
	m, p := newTestModel(t, Options{
		NewAPI: func(*config.Config, *slog.Logger) (api.NotesAPI, error) {
			built++
			return nopAPI{}, nil
		},
	})
	oldCache := m.pctx.Query
	oldCache.Set(query.NotesKey("", 1, ""), note.ListResult{TotalPages: 1})

	cfg := config.Default()
	cfg.UI.ShowFooter = false
	m, cmd := update(t, m, config.ReloadedMsg{Config: cfg})
	if cmd == nil {
		t.Fatal("reload returned no command")
	}

	if built != 1 {
		t.Errorf("api built %d times, want 1", built)
	}
	if m.pctx.Epoch != 2 {
		t.Errorf("epoch = %d, want 2", m.pctx.Epoch)
	}
	if m.pctx.Config != cfg || m.cfg != cfg {
		t.Error("config not swapped")
	}
	if m.pctx.Query == oldCache {
		t.Error("cache not replaced")
	}
	if n := oldCache.Stats().Entries; n != 0 {
		t.Errorf("old cache has %d entries, want 0", n)
	}
	if p.reloads != 1 {
		t.Errorf("plugin reloaded %d times, want 1", p.reloads)
	}
	if m.showFooter {
		t.Error("footer setting not applied")
	}
	if m.toastIsError {
		t.Errorf("toast = %q, want success", m.toastMsg)
	}
}

func TestReload_Failures(t *testing.T) {
	tests := []struct {
		name   string
		msg    config.ReloadedMsg
		apiErr error
	}{
		{"invalid file", config.ReloadedMsg{Err: errors.New("bad json")}, nil},
		{"bad api config", config.ReloadedMsg{Config: config.Default()}, errors.New("unsupported scheme")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, p := newTestModel(t, Options{
				NewAPI: func(*config.Config, *slog.Logger) (api.NotesAPI, error) {
					if tt.apiErr != nil {
						return nil, tt.apiErr
					}
					return nopAPI{}, nil
				},
			})
			oldCfg := m.cfg

			m, _ = update(t, m, tt.msg)
			if m.pctx.Epoch != 1 {
				t.Errorf("epoch = %d, want 1", m.pctx.Epoch)
			}
			if m.cfg != oldCfg {
				t.Error("config replaced after a failed reload")
			}
			if p.reloads != 0 {
				t.Error("plugin reloaded after a failed reload")
			}
			if !m.toastIsError || m.toastMsg == "" {
				t.Errorf("toast = %q (error %v), want error toast", m.toastMsg, m.toastIsError)
			}
		})
	}
}

func TestWaitForReload(t *testing.T) {
	if waitForReload(nil) != nil {
		t.Error("nil channel should produce no command")
	}

	ch := make(chan config.ReloadedMsg, 1)
	cfg := config.Default()
	ch <- config.ReloadedMsg{Config: cfg}
	got, ok := waitForReload(ch)().(config.ReloadedMsg)
	if !ok || got.Config != cfg {
		t.Errorf("got %#v, want the queued reload", got)
	}

	close(ch)
	if m := waitForReload(ch)(); m != nil {
		t.Errorf("closed channel produced %#v", m)
	}
}

func TestNewKeymap_Overrides(t *testing.T) {
	cfg := config.Default()
	cfg.Keymap.Overrides = map[string]string{
		"x":      "create-note",
		"ctrl+z": "no-such-command",
	}
	km := NewKeymap(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if cmd, _ := km.Lookup("x", keymap.ContextNotesList); cmd != "create-note" {
		t.Errorf("x = %q, want create-note", cmd)
	}
	if cmd, ok := km.Lookup("ctrl+z", keymap.ContextNotesList); ok {
		t.Errorf("ctrl+z bound to %q", cmd)
	}
	if cmd, _ := km.Lookup("n", keymap.ContextNotesList); cmd != "create-note" {
		t.Errorf("default binding lost: n = %q", cmd)
	}
}

func TestNewQuery_ZeroStaleTimeAlwaysRefetches(t *testing.T) {
	cfg := config.Default()
	cfg.Query.StaleTime = 0
	cache := NewQuery(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	calls := 0
	fetch := func(context.Context) (note.ListResult, error) {
		calls++
		return note.ListResult{TotalPages: 1}, nil
	}
	key := query.NotesKey("", 1, "")
	for i := 0; i < 2; i++ {
		if _, err := cache.Fetch(context.Background(), key, fetch); err != nil {
			t.Fatalf("Fetch #%d: %v", i+1, err)
		}
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 with no freshness window", calls)
	}
	if _, ok, fresh := cache.Peek(key); !ok || fresh {
		t.Errorf("Peek ok=%v fresh=%v, want stored but stale", ok, fresh)
	}
}

func TestView(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})
		m.ready = false
		if got := m.View(); got != "Loading..." {
			t.Errorf("View() = %q", got)
		}
	})

	t.Run("too small", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})
		m.width, m.height = 20, 5
		if !strings.Contains(ansi.Strip(m.View()), "Terminal too small") {
			t.Error("missing size warning")
		}
	})

	t.Run("layout", func(t *testing.T) {
		m, p := newTestModel(t, Options{})
		p.category = note.TagWork
		p.status = "loading…"
		out := ansi.Strip(m.View())
		for _, want := range []string{"notedeck", "Stub", "Work", "loading…", "stub body", "Act", "help", "quit"} {
			if !strings.Contains(out, want) {
				t.Errorf("view missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Hidden") {
			t.Error("command from another context shown in the footer")
		}
	})

	t.Run("all category label", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})
		if !strings.Contains(ansi.Strip(m.renderHeader()), note.AllLabel) {
			t.Error("header missing All label")
		}
	})
}

func TestRenderHintLineTruncated(t *testing.T) {
	hints := []footerHint{{"n", "New"}, {"/", "Search"}, {"q", "quit"}}
	full := ansi.Strip(renderHintLineTruncated(hints, 200))
	for _, want := range []string{"New", "Search", "quit"} {
		if !strings.Contains(full, want) {
			t.Errorf("missing %q in %q", want, full)
		}
	}
	short := ansi.Strip(renderHintLineTruncated(hints, 10))
	if strings.Contains(short, "quit") {
		t.Errorf("hints not truncated: %q", short)
	}
	if got := renderHintLineTruncated(hints, 0); got != "" {
		t.Errorf("zero width = %q, want empty", got)
	}
}

func TestFormatBindingKeys(t *testing.T) {
	tests := []struct {
		keys []string
		want string
	}{
		{nil, ""},
		{[]string{"q"}, "q"},
		{[]string{"j", "down"}, "j, down"},
		{[]string{"]", "right", "l"}, "], right"},
	}
	for _, tt := range tests {
		if got := formatBindingKeys(tt.keys); got != tt.want {
			t.Errorf("formatBindingKeys(%v) = %q, want %q", tt.keys, got, tt.want)
		}
	}
}

package notes

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/notedeck/internal/api"
	"github.com/marcus/notedeck/internal/msg"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/plugin"
	"github.com/marcus/notedeck/internal/query"
)

// load shows key. A fresh cache entry is applied immediately; otherwise a
// fetch is started and the previous page stays on screen until it lands.
func (p *Plugin) load(key query.Key) tea.Cmd {
	if data, ok, fresh := p.ctx.Query.Peek(key); ok && fresh {
		p.applyResult(key, data)
		return p.prefetchNext()
	}

	ctx := p.machine.Begin(p.baseCtx)
	client := p.ctx.API
	cache := p.ctx.Query
	epoch := p.ctx.Epoch

	return func() tea.Msg {
		res, err := cache.Fetch(ctx, key, notesFetcher(client, key))
		return NotesLoadedMsg{Key: key, Result: res, Err: err, Epoch: epoch}
	}
}

func notesFetcher(client api.NotesAPI, key query.Key) query.FetchFunc[note.ListResult] {
	return func(ctx context.Context) (note.ListResult, error) {
		return client.FetchNotes(ctx, key.Search, key.Page, key.Tag)
	}
}

func (p *Plugin) handleLoaded(m NotesLoadedMsg) tea.Cmd {
	if plugin.IsStale(p.ctx, m) {
		return nil
	}
	if m.Err != nil {
		// Superseded fetches are cancelled on purpose.
		if errors.Is(m.Err, context.Canceled) {
			return nil
		}
		if !p.machine.Fail(m.Key, m.Err) {
			return nil
		}
		p.ctx.Logger.Error("notes: fetch failed", "key", m.Key.String(), "err", m.Err)
		return msg.ShowErrorToast(toastFetchError, p.toastDuration())
	}
	if !p.applyResult(m.Key, m.Result) {
		return nil
	}
	return p.prefetchNext()
}

// applyResult shows data for key if key is still the one on screen.
func (p *Plugin) applyResult(key query.Key, data note.ListResult) bool {
	if !p.machine.Resolve(key, data) {
		return false
	}
	p.pager.Sync(p.machine.Page(), p.machine.TotalPages())
	p.clampCursor()
	return true
}

// prefetchNext warms the cache with the page after the current one.
func (p *Plugin) prefetchNext() tea.Cmd {
	if !p.ctx.Config.Plugins.Notes.PrefetchNextPage {
		return nil
	}
	cur := p.machine.Key()
	if cur.Page >= p.machine.TotalPages() {
		return nil
	}
	next := query.NotesKey(cur.Search, cur.Page+1, cur.Tag)
	if _, ok, fresh := p.ctx.Query.Peek(next); ok && fresh {
		return nil
	}
	ctx := p.baseCtx
	client := p.ctx.API
	cache := p.ctx.Query
	logger := p.ctx.Logger
	return func() tea.Msg {
		if err := cache.Prefetch(ctx, next, notesFetcher(client, next)); err != nil && !errors.Is(err, context.Canceled) {
			logger.Debug("notes: prefetch failed", "key", next.String(), "err", err)
		}
		return nil
	}
}

// refresh invalidates every notes page and refetches the visible one.
func (p *Plugin) refresh() tea.Cmd {
	n := p.ctx.Query.Invalidate(query.NotesNamespace)
	p.ctx.Logger.Debug("notes: invalidated", "entries", n)
	return p.load(p.machine.Refetch())
}

// submit sends a create request for v. Invalid values never reach the
// API. The form is cleared as soon as the request is sent.
func (p *Plugin) submit(v note.Values) tea.Cmd {
	if err := note.Validate(v); err != nil {
		var verrs note.ValidationErrors
		if errors.As(err, &verrs) {
			if m, ok := verrs[note.FieldTitle]; ok {
				return msg.ShowErrorToast(m, p.toastDuration())
			}
		}
		return msg.ShowErrorToast(err.Error(), p.toastDuration())
	}

	var initCmd tea.Cmd
	if p.form != nil {
		p.form = newCreateForm(note.Values{})
		initCmd = p.form.Init()
	}
	p.creating++

	client := p.ctx.API
	epoch := p.ctx.Epoch
	ctx := p.baseCtx
	create := func() tea.Msg {
		created, err := client.CreateNote(ctx, v)
		return NoteCreatedMsg{Note: created, Values: v, Err: err, Epoch: epoch}
	}
	return tea.Batch(initCmd, create)
}

func (p *Plugin) handleCreated(m NoteCreatedMsg) tea.Cmd {
	if p.creating > 0 {
		p.creating--
	}
	if m.Err != nil {
		p.ctx.Logger.Error("notes: create failed", "title", m.Values.Title, "err", m.Err)
		if p.ctx.Config.Plugins.Notes.RetainFormOnError && p.form != nil && p.form.Pristine() {
			p.form = newCreateForm(m.Values)
			return tea.Batch(p.form.Init(), msg.ShowErrorToast(toastCreateError, p.toastDuration()))
		}
		return msg.ShowErrorToast(toastCreateError, p.toastDuration())
	}

	p.ctx.Logger.Info("notes: created", "id", m.Note.ID, "tag", string(m.Note.Tag))
	// The note exists whatever the epoch; a reload has already cleared the
	// cache, so only the refetch is skipped.
	if plugin.IsStale(p.ctx, m) {
		return msg.ShowToast(toastCreated, p.toastDuration())
	}
	return tea.Batch(
		msg.ShowToast(toastCreated, p.toastDuration()),
		p.refresh(),
	)
}

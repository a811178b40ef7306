package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/notedeck/internal/config"
	"github.com/marcus/notedeck/internal/keymap"
	"github.com/marcus/notedeck/internal/msg"
)

// Update handles all messages and routes them appropriately.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		return m, nil

	case msg.ToastMsg:
		cmd := m.showToast(message.Message, message.Duration, message.IsError)
		return m, cmd

	case msg.ToastExpiredMsg:
		m.clearToast(message.Seq)
		return m, nil

	case config.ReloadedMsg:
		cmd := m.handleReload(message)
		return m, tea.Batch(cmd, waitForReload(m.reloads))
	}

	return m.forward(message)
}

// forward hands a message to the plugin.
func (m Model) forward(message tea.Msg) (tea.Model, tea.Cmd) {
	p, cmd := m.plugin.Update(message)
	m.plugin = p
	return m, cmd
}

func (m Model) handleKeyMsg(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := k.String()

	if m.showHelp {
		cmd, _ := m.keymap.Lookup(key, keymap.ContextHelp)
		switch cmd {
		case "close-help", "toggle-help":
			m.showHelp = false
		case "quit":
			return m.quit()
		}
		return m, nil
	}

	// Text input contexts: forward all keys to the plugin except ctrl+c
	if m.consumesTextInput() {
		if key == "ctrl+c" {
			return m.quit()
		}
		return m.forward(k)
	}

	// Plugin bindings shadow global ones with the same key.
	cmd, _ := m.keymap.Lookup(key, m.activeContext())
	switch cmd {
	case "quit":
		return m.quit()
	case "toggle-help":
		m.showHelp = true
		return m, nil
	case "toggle-footer":
		m.showFooter = !m.showFooter
		return m, nil
	}

	return m.forward(k)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.plugin.Stop()
	return m, tea.Quit
}

// handleReload swaps in services built from the new configuration. Results
// of fetches started before the swap carry the old epoch and are dropped.
func (m *Model) handleReload(r config.ReloadedMsg) tea.Cmd {
	logger := m.pctx.Logger
	if r.Err != nil || r.Config == nil {
		logger.Warn("config reload rejected", "err", r.Err)
		return m.showToast("Config reload failed; keeping the previous settings.", 0, true)
	}

	client, err := m.newAPI(r.Config, logger)
	if err != nil {
		logger.Error("config reload: api client", "err", err)
		return m.showToast("Config reload failed: "+err.Error(), 0, true)
	}

	if m.pctx.Query != nil {
		m.pctx.Query.Clear()
	}
	m.cfg = r.Config
	m.keymap = NewKeymap(r.Config, logger)
	m.showFooter = r.Config.UI.ShowFooter

	m.pctx.Config = r.Config
	m.pctx.API = client
	m.pctx.Query = NewQuery(r.Config, logger)
	m.pctx.Keymap = m.keymap
	m.pctx.Epoch++
	logger.Info("config reloaded", "epoch", m.pctx.Epoch)

	var cmds []tea.Cmd
	if rl, ok := m.plugin.(Reloader); ok {
		cmds = append(cmds, rl.Reload())
	}
	cmds = append(cmds, m.showToast("Config reloaded", 0, false))
	return tea.Batch(cmds...)
}

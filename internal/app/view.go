package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/notedeck/internal/keymap"
	"github.com/marcus/notedeck/internal/plugin"
	"github.com/marcus/notedeck/internal/styles"
	"github.com/marcus/notedeck/internal/ui"
)

// View renders the entire application UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		msg := fmt.Sprintf("Terminal too small (%dx%d)\nMinimum: %dx%d",
			m.width, m.height, minWidth, minHeight)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.ErrorText.Render(msg))
	}

	contentHeight := m.height - headerHeight
	if m.showFooter {
		contentHeight -= footerHeight
	}
	if contentHeight < 0 {
		contentHeight = 0
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderContent(m.width, contentHeight))
	if m.showFooter {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	bg := b.String()
	if m.showHelp {
		return m.renderHelpOverlay(bg)
	}
	return bg
}

// renderHeader renders the top bar: app name, plugin, category and status.
func (m Model) renderHeader() string {
	title := styles.Logo.Render(" notedeck") + styles.BarText.Render(" / "+m.plugin.Name()) + " "

	var category string
	if cp, ok := m.plugin.(CategoryProvider); ok {
		category = styles.BarChipActive.Render(cp.Category().Label())
	}

	var status string
	if sp, ok := m.plugin.(StatusProvider); ok {
		if s := sp.StatusLine(); s != "" {
			status = styles.BarText.Render(s + " ")
		}
	}

	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(category) - lipgloss.Width(status)
	if spacing < 0 {
		spacing = 0
	}
	header := title + category + strings.Repeat(" ", spacing) + status
	return lipgloss.NewStyle().Width(m.width).MaxWidth(m.width).Render(header)
}

func (m Model) renderContent(width, height int) string {
	if height == 0 {
		return ""
	}
	content := m.plugin.View(width, height)
	// MaxHeight truncates tall content so the header stays on screen.
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(content)
}

// renderFooter renders the bottom bar with key hints and the toast.
func (m Model) renderFooter() string {
	var status string
	if m.toastMsg != "" {
		toastStyle := styles.ToastSuccess
		if m.toastIsError {
			toastStyle = styles.ToastError
		}
		status = toastStyle.Render(m.toastMsg)
	}

	statusWidth := lipgloss.Width(status)
	minSpacing := 2
	hintsStr := renderHintLineTruncated(m.footerHints(), m.width-statusWidth-minSpacing)

	spacing := m.width - lipgloss.Width(hintsStr) - statusWidth
	if spacing < 0 {
		spacing = 0
	}
	footer := hintsStr + strings.Repeat(" ", spacing) + status

	// MaxWidth keeps the footer on one line.
	return lipgloss.NewStyle().Width(m.width).MaxWidth(m.width).Render(footer)
}

type footerHint struct {
	keys  string
	label string
}

func (m Model) footerHints() []footerHint {
	// Plugin hints first; they are more contextually relevant
	hints := m.pluginFooterHints()
	return append(hints, m.globalFooterHints()...)
}

func (m Model) pluginFooterHints() []footerHint {
	ctx := m.plugin.FocusContext()
	var cmds []plugin.Command
	for _, c := range m.plugin.Commands() {
		if c.Context == ctx {
			cmds = append(cmds, c)
		}
	}
	sort.SliceStable(cmds, func(i, j int) bool {
		return priority(cmds[i]) < priority(cmds[j])
	})

	var hints []footerHint
	for _, c := range cmds {
		keys := m.keymap.KeysFor(ctx, c.ID)
		if len(keys) == 0 {
			continue
		}
		hints = append(hints, footerHint{keys: keys[0], label: c.Name})
	}
	return hints
}

func priority(c plugin.Command) int {
	if c.Priority <= 0 {
		return 99
	}
	return c.Priority
}

func (m Model) globalFooterHints() []footerHint {
	// Typing contexts route q to the input, so only ctrl+c quits there.
	if m.consumesTextInput() {
		return []footerHint{{keys: "ctrl+c", label: "quit"}}
	}
	specs := []struct {
		id    string
		label string
	}{
		{id: "toggle-help", label: "help"},
		{id: "quit", label: "quit"},
	}
	var hints []footerHint
	for _, s := range specs {
		keys := m.keymap.KeysFor(keymap.ContextGlobal, s.id)
		if len(keys) == 0 {
			continue
		}
		hints = append(hints, footerHint{keys: keys[0], label: s.label})
	}
	return hints
}

func renderHint(h footerHint) string {
	return styles.KeyHint.Render(h.keys) + " " + styles.Muted.Render(h.label)
}

// renderHintLineTruncated joins hints, dropping the tail when they do not
// fit in maxWidth.
func renderHintLineTruncated(hints []footerHint, maxWidth int) string {
	var parts []string
	width := 0
	for _, h := range hints {
		s := renderHint(h)
		w := lipgloss.Width(s)
		if len(parts) > 0 {
			w += 2
		}
		if width+w > maxWidth {
			break
		}
		parts = append(parts, s)
		width += w
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderHelpOverlay(content string) string {
	modal := styles.ModalBox.Render(m.buildHelpContent())
	return ui.OverlayModal(content, modal, m.width, m.height)
}

// buildHelpContent lists the global bindings and every command of the
// plugin's focused context, grouped by category.
func (m Model) buildHelpContent() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	b.WriteString(styles.Title.Render("Global"))
	b.WriteString("\n")
	m.renderBindingSection(&b, keymap.ContextGlobal)
	b.WriteString("\n")

	ctx := m.plugin.FocusContext()
	groups := make(map[plugin.Category][]plugin.Command)
	var order []plugin.Category
	for _, c := range m.plugin.Commands() {
		if c.Context != ctx {
			continue
		}
		if _, ok := groups[c.Category]; !ok {
			order = append(order, c.Category)
		}
		groups[c.Category] = append(groups[c.Category], c)
	}
	for _, cat := range order {
		b.WriteString(styles.Title.Render(m.plugin.Name() + ": " + string(cat)))
		b.WriteString("\n")
		for _, c := range groups[cat] {
			keyStr := formatBindingKeys(m.keymap.KeysFor(ctx, c.ID))
			b.WriteString(fmt.Sprintf("  %s %s\n", styles.Muted.Render(fmt.Sprintf("%-11s", keyStr)), c.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.Subtle.Render("Press ? or esc to close"))
	return b.String()
}

// renderBindingSection renders bindings for a context.
func (m Model) renderBindingSection(b *strings.Builder, context string) {
	bindings := m.keymap.BindingsForContext(context)

	seen := make(map[string]bool)
	for _, binding := range bindings {
		if seen[binding.Command] {
			continue
		}
		seen[binding.Command] = true

		keyStr := formatBindingKeys(m.keymap.KeysFor(context, binding.Command))
		padded := fmt.Sprintf("%-11s", keyStr)
		b.WriteString(fmt.Sprintf("  %s %s\n", styles.Muted.Render(padded), formatCommandName(binding.Command)))
	}
}

// formatBindingKeys formats multiple keys into a display string.
func formatBindingKeys(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	// Show up to 2 keys
	if len(keys) > 2 {
		keys = keys[:2]
	}
	return strings.Join(keys, ", ")
}

// formatCommandName converts a command ID to a display name.
func formatCommandName(cmd string) string {
	return strings.ReplaceAll(cmd, "-", " ")
}

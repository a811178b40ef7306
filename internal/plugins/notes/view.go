package notes

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/styles"
)

const (
	minPreviewWidth = 80 // below this the preview pane is hidden
	rowHeight       = 2  // title line + excerpt line
)

func (p *Plugin) renderView() string {
	var b strings.Builder
	b.WriteString(p.renderToolbar())
	b.WriteString("\n")
	b.WriteString(p.renderCategories())
	b.WriteString("\n\n")

	bodyHeight := max(1, p.height-3)
	listWidth := p.width
	showPreview := p.showPreview && p.width >= minPreviewWidth
	if showPreview {
		listWidth = p.width * 2 / 5
	}

	list := p.renderList(listWidth, bodyHeight)
	if !showPreview {
		b.WriteString(list)
		return b.String()
	}

	previewWidth := p.width - listWidth - 1
	divider := styles.Subtle.Render(strings.TrimSuffix(strings.Repeat("│\n", bodyHeight), "\n"))
	listPane := lipgloss.NewStyle().Width(listWidth).Height(bodyHeight).MaxHeight(bodyHeight).Render(list)
	previewPane := lipgloss.NewStyle().Width(previewWidth).Height(bodyHeight).MaxHeight(bodyHeight).
		Render(p.renderPreview(previewWidth, bodyHeight))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listPane, divider, previewPane))
	return b.String()
}

// renderToolbar draws the search box, the pagination and the create hint
// on one line.
func (p *Plugin) renderToolbar() string {
	searchBox := p.searchInput.View()
	if !p.searchFocused && p.searchInput.Value() == "" {
		searchBox = styles.Muted.Render("/ Search notes")
	}

	right := styles.KeyHint.Render("n") + " " + styles.Body.Render("Create note +")
	if pages := p.pager.View(); pages != "" {
		right = pages + "   " + right
	}

	gap := p.width - lipgloss.Width(searchBox) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(searchBox+" "+right, p.width, "…")
	}
	return searchBox + strings.Repeat(" ", gap) + right
}

func (p *Plugin) renderCategories() string {
	cur := p.machine.Tag()
	parts := make([]string, 0, len(note.Tags)+1)
	for _, c := range note.Categories() {
		if c == cur {
			parts = append(parts, styles.BarChipActive.Render(c.Label()))
		} else {
			parts = append(parts, styles.BarChip.Render(c.Label()))
		}
	}
	return strings.Join(parts, " ")
}

func (p *Plugin) renderList(width, height int) string {
	notes := p.machine.Notes()

	if len(notes) == 0 {
		switch {
		case p.machine.Loading():
			return styles.Muted.Render("Loading notes…")
		case p.machine.Err() != nil:
			return styles.ErrorText.Render("Could not load notes: " + p.machine.Err().Error())
		case p.machine.Fetching():
			return styles.Muted.Render("Loading notes…")
		}
		if p.machine.Search() != "" {
			return styles.Muted.Render(fmt.Sprintf("No notes match %q.", p.machine.Search()))
		}
		return styles.Muted.Render("No notes yet. Press n to create one.")
	}

	visible := max(1, height/rowHeight)
	p.ensureCursorVisible(visible)

	var b strings.Builder
	end := min(len(notes), p.scrollOff+visible)
	for i := p.scrollOff; i < end; i++ {
		if i > p.scrollOff {
			b.WriteString("\n")
		}
		b.WriteString(p.renderRow(notes[i], i == p.cursor, width))
	}
	return b.String()
}

func (p *Plugin) ensureCursorVisible(visible int) {
	if p.cursor < p.scrollOff {
		p.scrollOff = p.cursor
	}
	if p.cursor >= p.scrollOff+visible {
		p.scrollOff = p.cursor - visible + 1
	}
}

// renderRow draws one note: cursor, tag badge, title and age, then an
// indented excerpt.
func (p *Plugin) renderRow(n note.Note, selected bool, width int) string {
	cursor := "  "
	titleStyle := styles.ListItemNormal
	if selected {
		cursor = styles.ListCursor.Render("> ")
		titleStyle = styles.ListItemSelected
	}

	badge := styles.TagBadge(n.Tag)
	age := ""
	if !n.CreatedAt.IsZero() {
		age = styles.Subtle.Render(humanize.RelTime(n.CreatedAt, p.now(), "ago", "from now"))
	}

	titleWidth := width - lipgloss.Width(cursor) - lipgloss.Width(badge) - lipgloss.Width(age) - 2
	title := ansi.Truncate(n.Title, max(1, titleWidth), "…")
	line := cursor + badge + " " + titleStyle.Render(title)
	if age != "" {
		if gap := width - lipgloss.Width(line) - lipgloss.Width(age); gap > 0 {
			line += strings.Repeat(" ", gap) + age
		}
	}

	excerpt := note.Excerpt(n.Content, max(1, width-4))
	return line + "\n    " + styles.Muted.Render(excerpt)
}

func (p *Plugin) renderPreview(width, height int) string {
	n := p.selectedNote()
	if n == nil {
		return ""
	}
	header := styles.Title.Render(n.Title) + "\n" + styles.TagBadge(n.Tag)
	if !n.CreatedAt.IsZero() {
		header += " " + styles.Subtle.Render(n.CreatedAt.Format("2006-01-02 15:04"))
	}

	body := p.preview.Render(*n, width)
	lines := strings.Split(body, "\n")
	maxScroll := max(0, len(lines)-(height-3))
	p.previewScroll = min(p.previewScroll, maxScroll)
	lines = lines[p.previewScroll:]
	return header + "\n\n" + strings.Join(lines, "\n")
}

func (p *Plugin) renderModal() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("New note"))
	b.WriteString("\n\n")
	b.WriteString(p.form.View())
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("enter next · esc cancel"))
	return styles.ModalBox.Render(b.String())
}

// previewRenderer renders note content as markdown, caching the output for
// the last note and width.
type previewRenderer struct {
	theme string

	renderer *glamour.TermRenderer
	width    int

	cacheKey string
	cached   string
}

func (r *previewRenderer) Render(n note.Note, width int) string {
	if n.Content == "" {
		return styles.Muted.Render("(no content)")
	}
	key := fmt.Sprintf("%s|%d|%d|%s", n.ID, n.UpdatedAt.UnixNano(), width, n.Content)
	if key == r.cacheKey {
		return r.cached
	}

	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.theme),
			glamour.WithWordWrap(max(10, width-2)),
		)
		if err != nil {
			return n.Content
		}
		r.renderer = tr
		r.width = width
	}

	out, err := r.renderer.Render(n.Content)
	if err != nil {
		return n.Content
	}
	r.cacheKey = key
	r.cached = strings.Trim(out, "\n")
	return r.cached
}

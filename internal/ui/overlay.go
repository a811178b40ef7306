// Package ui provides shared UI components for the TUI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DimStyle greys out content behind a modal. Colors are stripped first
// because faint does not combine reliably with existing color codes.
var DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

func dim(s string) string {
	if s == "" {
		return ""
	}
	return DimStyle.Render(s)
}

// OverlayModal centers modal over a dimmed copy of background, producing
// exactly height lines.
func OverlayModal(background, modal string, width, height int) string {
	if height <= 0 {
		return ""
	}
	bg := strings.Split(background, "\n")
	fg := strings.Split(modal, "\n")

	mw := 0
	for _, l := range fg {
		mw = max(mw, ansi.StringWidth(l))
	}
	x := max(0, (width-mw)/2)
	y := max(0, (height-len(fg))/2)

	out := make([]string, height)
	for row := range out {
		var line string
		if row < len(bg) {
			line = ansi.Strip(bg[row])
		}
		if i := row - y; i >= 0 && i < len(fg) {
			out[row] = spliceRow(line, fg[i], x, mw)
			continue
		}
		out[row] = dim(line)
	}
	return strings.Join(out, "\n")
}

// spliceRow replaces the cells [x, x+w) of a plain background line with
// the modal line, padding the left side when the background is short.
func spliceRow(bg, fg string, x, w int) string {
	var b strings.Builder
	left := ansi.Truncate(bg, x, "")
	b.WriteString(dim(left))
	if pad := x - ansi.StringWidth(left); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(fg)
	if bw := ansi.StringWidth(bg); bw > x+w {
		b.WriteString(dim(ansi.Cut(bg, x+w, bw)))
	}
	return b.String()
}

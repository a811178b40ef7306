package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"

	"github.com/marcus/notedeck/internal/styles"
)

// Page window defaults: pages shown around the current one, and pages
// always shown at each end.
const (
	DefaultPageRange = 5
	DefaultMargin    = 1
)

// Pagination tracks the current page of a paged list. Pages are 1-based in
// its API; it holds no data and reports page changes through its return
// values so the caller decides what to fetch.
type Pagination struct {
	model     paginator.Model
	PageRange int
	Margin    int
}

// NewPagination returns a pagination on page 1 of 1.
func NewPagination() Pagination {
	m := paginator.New()
	m.Type = paginator.Arabic
	m.PerPage = 1
	m.SetTotalPages(1)
	return Pagination{model: m, PageRange: DefaultPageRange, Margin: DefaultMargin}
}

// Sync sets the current page and page count. A total below 1 is treated as 1.
// The current page is not clamped to total: a page past the end is what the
// user asked for, and the list shows it empty.
func (p *Pagination) Sync(current, total int) {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	p.model.TotalPages = total
	p.model.Page = current - 1
}

// Visible reports whether the control is rendered at all.
func (p Pagination) Visible() bool { return p.model.TotalPages > 1 }

// Current returns the 1-based current page.
func (p Pagination) Current() int { return p.model.Page + 1 }

// Total returns the page count.
func (p Pagination) Total() int { return p.model.TotalPages }

// Next advances one page. It returns the new page and whether it changed.
func (p *Pagination) Next() (int, bool) {
	if p.model.OnLastPage() || p.model.Page+1 >= p.model.TotalPages {
		return p.Current(), false
	}
	p.model.NextPage()
	return p.Current(), true
}

// Prev goes back one page.
func (p *Pagination) Prev() (int, bool) {
	if p.model.Page == 0 {
		return p.Current(), false
	}
	p.model.PrevPage()
	return p.Current(), true
}

// SetPage jumps to page n, clamped to [1, Total].
func (p *Pagination) SetPage(n int) (int, bool) {
	n = max(1, min(n, p.model.TotalPages))
	if n == p.Current() {
		return n, false
	}
	p.model.Page = n - 1
	return n, true
}

// View renders "‹ 1 … 4 [5] 6 … 12 ›", or nothing when there is one page.
func (p Pagination) View() string {
	if !p.Visible() {
		return ""
	}
	cur := p.Current()
	parts := []string{arrow("‹", cur > 1)}
	for _, n := range PageWindow(cur, p.Total(), p.PageRange, p.Margin) {
		switch {
		case n == 0:
			parts = append(parts, styles.Subtle.Render("…"))
		case n == cur:
			parts = append(parts, styles.BarChipActive.Render(strconv.Itoa(n)))
		default:
			parts = append(parts, styles.Muted.Render(strconv.Itoa(n)))
		}
	}
	parts = append(parts, arrow("›", cur < p.Total()))
	return strings.Join(parts, " ")
}

func arrow(s string, enabled bool) string {
	if enabled {
		return styles.Body.Render(s)
	}
	return styles.Subtle.Render(s)
}

// PageWindow lists the page numbers to display for current of total.
// Zero marks a break. pageRange pages are shown around current and margin
// pages at each end; a break that would hide a single page shows the page
// instead.
func PageWindow(current, total, pageRange, margin int) []int {
	if total <= 0 {
		return nil
	}
	if pageRange < 1 {
		pageRange = 1
	}
	if margin < 0 {
		margin = 0
	}
	if total <= pageRange+2*margin {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}

	current = max(1, min(current, total))
	lo := current - (pageRange-1)/2
	hi := lo + pageRange - 1
	if lo < 1 {
		lo, hi = 1, pageRange
	}
	if hi > total {
		lo, hi = total-pageRange+1, total
	}

	show := func(n int) bool {
		return n <= margin || n > total-margin || (n >= lo && n <= hi)
	}

	var out []int
	for n := 1; n <= total; n++ {
		switch {
		case show(n):
			out = append(out, n)
		case n+1 <= total && show(n+1) && n-1 >= 1 && show(n-1):
			// single hidden page between two visible ones
			out = append(out, n)
		case len(out) > 0 && out[len(out)-1] != 0:
			out = append(out, 0)
		}
	}
	return out
}

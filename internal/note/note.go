// Package note defines the notes domain model shared by the API client,
// the query cache and the TUI.
package note

import (
	"strings"
	"time"
)

// Tag classifies a note. The zero value means "no category filter".
type Tag string

const (
	TagTodo     Tag = "Todo"
	TagWork     Tag = "Work"
	TagPersonal Tag = "Personal"
	TagMeeting  Tag = "Meeting"
	TagShopping Tag = "Shopping"

	// AllLabel is the display name of the unfiltered category.
	AllLabel = "All"
)

// Tags lists the fixed categories in display order.
var Tags = []Tag{TagTodo, TagWork, TagPersonal, TagMeeting, TagShopping}

// Valid reports whether t is one of the fixed categories.
func (t Tag) Valid() bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the display name, "All" for the unfiltered category.
func (t Tag) Label() string {
	if t == "" {
		return AllLabel
	}
	return string(t)
}

// Note is a read-only copy of a note owned by the remote API.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tag       Tag       `json:"tag"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListResult is one page of notes as returned by the list endpoint.
type ListResult struct {
	Notes      []Note `json:"notes"`
	TotalPages int    `json:"totalPages"`
}

// Values holds the fields of a note being created.
type Values struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     Tag    `json:"tag"`
}

// IsZero reports whether no field has been filled in.
func (v Values) IsZero() bool {
	return v.Title == "" && v.Content == "" && (v.Tag == "" || v.Tag == DefaultTag)
}

// DefaultTag is preselected in the create form.
const DefaultTag = TagTodo

// ParseCategory maps a path-like category segment to a Tag. Matching is
// case-insensitive: the first letter is upper-cased and the rest lower-cased.
// Empty segments, "all" and unknown names yield the zero Tag (no filter).
func ParseCategory(segment string) Tag {
	segment = strings.TrimSpace(segment)
	if segment == "" || strings.EqualFold(segment, AllLabel) {
		return ""
	}
	formatted := Tag(strings.ToUpper(segment[:1]) + strings.ToLower(segment[1:]))
	if !formatted.Valid() {
		return ""
	}
	return formatted
}

// Categories returns the filter cycle: unfiltered first, then every tag.
func Categories() []Tag {
	out := make([]Tag, 0, len(Tags)+1)
	out = append(out, "")
	return append(out, Tags...)
}

// NextCategory returns the category after cur in the filter cycle.
// A negative step walks backwards.
func NextCategory(cur Tag, step int) Tag {
	cats := Categories()
	idx := 0
	for i, c := range cats {
		if c == cur {
			idx = i
			break
		}
	}
	n := len(cats)
	return cats[((idx+step)%n+n)%n]
}

// Package query is a keyed cache of fetch results with de-duplication of
// in-flight requests, staleness tracking and namespace invalidation.
package query

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/marcus/notedeck/internal/note"
)

// NotesNamespace is the namespace of every note list key.
const NotesNamespace = "notes"

// Key identifies one cached result set.
type Key struct {
	Namespace string
	Search    string
	Page      int
	Tag       note.Tag // zero value = no filter
}

// NotesKey builds a note list key. The "All" label is normalized to the
// zero Tag so filtered-by-All and unfiltered share an entry.
func NotesKey(search string, page int, tag note.Tag) Key {
	if string(tag) == note.AllLabel {
		tag = ""
	}
	return Key{Namespace: NotesNamespace, Search: search, Page: page, Tag: tag}
}

// Hash returns a stable 64-bit identity for the key.
func (k Key) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(k.Namespace)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.Search)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(strconv.Itoa(k.Page))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(string(k.Tag))
	return d.Sum64()
}

// HasPrefix reports whether the key belongs to namespace.
func (k Key) HasPrefix(namespace string) bool {
	return k.Namespace == namespace
}

func (k Key) String() string {
	return fmt.Sprintf("%s[%q,%d,%s]", k.Namespace, k.Search, k.Page, k.Tag.Label())
}

package domain

import (
	"fmt"
	"sort"
)

// Line is one row of the bookmark list: either a file header or an entry.
type Line struct {
	// Header is true for the per-file group row; Bookmark is nil then.
	Header bool
	Text   string

	// Number is the 1-based selection number of an entry (0 for headers).
	Number   int
	Bookmark *Bookmark
}

// View is the grouped, sorted display of the bookmark list.
// It is derived from the persisted list and never written back.
type View struct {
	Lines   []Line
	Entries []Bookmark
}

// BuildView groups bookmarks by Filename (alphabetical) and orders each group
// by ascending TimeMs. The input slice is not modified.
func BuildView(bookmarks []Bookmark) View {
	sorted := make([]Bookmark, len(bookmarks))
	copy(sorted, bookmarks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Filename != sorted[j].Filename {
			return sorted[i].Filename < sorted[j].Filename
		}
		return sorted[i].TimeMs < sorted[j].TimeMs
	})

	v := View{
		Lines:   make([]Line, 0, len(sorted)+4),
		Entries: sorted,
	}

	current := ""
	for i := range sorted {
		b := &sorted[i]
		if i == 0 || b.Filename != current {
			current = b.Filename
			v.Lines = append(v.Lines, Line{Header: true, Text: "📁 " + current})
		}
		v.Lines = append(v.Lines, Line{
			Text:     EntryText(*b),
			Number:   i + 1,
			Bookmark: b,
		})
	}
	return v
}

// EntryText is the display text of one bookmark.
func EntryText(b Bookmark) string {
	typ := b.Type
	if typ == "" {
		typ = TypeRegular
	}
	return fmt.Sprintf("  %s %s - %s [%s]", typ.Icon(), b.Name, FormatClock(b.TimeMs), typ)
}

// Entry returns the bookmark with the given 1-based selection number.
func (v View) Entry(n int) (Bookmark, bool) {
	if n < 1 || n > len(v.Entries) {
		return Bookmark{}, false
	}
	return v.Entries[n-1], true
}

// Find returns the selection number of the first entry matching k, or 0.
func (v View) Find(k Key) int {
	for i, b := range v.Entries {
		if k.Matches(b) {
			return i + 1
		}
	}
	return 0
}

// Len is the number of entries, headers excluded.
func (v View) Len() int { return len(v.Entries) }

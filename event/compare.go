package event

import (
	"cmp"
	"strings"
)

// Key is the derived identity used for equality and de-duplication.
type Key struct {
	Start int64
	End   int64
	Title string
}

// Key returns the (start, end, title) triple of the raw stored values.
func (e Entry) Key() Key {
	return Key{Start: e.Start, End: e.End, Title: e.Title}
}

// Equal reports whether two entries share the same derived key.
func (e Entry) Equal(o Entry) bool {
	return e.Key() == o.Key()
}

// Compare is the natural order: effective start ascending, ties broken by title.
func Compare(a, b Entry) int {
	if c := cmp.Compare(a.StartTime(), b.StartTime()); c != 0 {
		return c
	}
	return strings.Compare(a.Title, b.Title)
}

// CompareStartTime orders by effective start only.
func CompareStartTime(a, b Entry) int {
	return cmp.Compare(a.StartTime(), b.StartTime())
}

// Dedup drops every entry whose key was already seen, keeping the first
// instance and the input order.
func Dedup(entries []Entry) []Entry {
	seen := make(map[Key]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := e.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

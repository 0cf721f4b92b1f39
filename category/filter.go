// Package category provides multi-category filtering of tagged items and the
// category facets built from a selection.
package category

import (
	"strings"
)

// Mode selects how a match set is applied.
type Mode int

const (
	// MatchAny keeps items assigned at least one of the match categories.
	MatchAny Mode = iota
	// MatchAll keeps items assigned every match category.
	MatchAll
)

func (m Mode) String() string {
	if m == MatchAll {
		return "all"
	}
	return "any"
}

// Spec is a category filter configuration.
type Spec struct {
	Match []string
	Mode  Mode
}

// IsEmpty reports whether the spec filters nothing.
func (s Spec) IsEmpty() bool {
	for _, c := range s.Match {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Tagged is anything carrying a raw category string.
type Tagged interface {
	CategoryString() string
}

// Split parses a raw category list. The delimiter is chosen per value: "|"
// when present, "," otherwise. Entries are trimmed and blanks dropped.
func Split(raw string) []string {
	sep := ","
	if strings.Contains(raw, "|") {
		sep = "|"
	}
	return splitOn(raw, func(r rune) bool { return string(r) == sep })
}

// SplitAll parses a raw category list treating both "|" and "," as delimiters.
func SplitAll(raw string) []string {
	return splitOn(raw, func(r rune) bool { return r == '|' || r == ',' })
}

func splitOn(raw string, isSep func(rune) bool) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, isSep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Filter returns the items that satisfy spec, preserving order. An empty
// spec returns items unchanged; otherwise uncategorized items never match.
func Filter[T Tagged](items []T, spec Spec) []T {
	if spec.IsEmpty() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if Matches(Split(it.CategoryString()), spec) {
			out = append(out, it)
		}
	}
	return out
}

// Matches applies spec to an already split category list.
func Matches(assigned []string, spec Spec) bool {
	if spec.IsEmpty() {
		return true
	}
	if len(assigned) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(assigned))
	for _, c := range assigned {
		set[c] = struct{}{}
	}

	for _, want := range spec.Match {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		_, ok := set[want]
		switch spec.Mode {
		case MatchAll:
			if !ok {
				return false
			}
		default:
			if ok {
				return true
			}
		}
	}
	return spec.Mode == MatchAll
}

// Histogram counts, per category path, how many items carry it. Each item
// counts at most once per category.
func Histogram[T Tagged](items []T) map[string]int {
	hist := make(map[string]int)
	for _, it := range items {
		seen := make(map[string]struct{})
		for _, c := range SplitAll(it.CategoryString()) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			hist[c]++
		}
	}
	return hist
}

package category

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/samber/mo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode orders a FacetSet.
type SortMode int

const (
	SortByPath SortMode = iota
	SortByTitle
	SortByRelevancy
)

// Facet is one selectable category with the number of matching items.
type Facet struct {
	Path  string
	Title string
	Count int
}

// TitleResolver maps a category path to a display title.
type TitleResolver func(path string) string

// ParentResolver looks up the parent of a category path. None means the
// path is a root.
type ParentResolver interface {
	ResolveCategoryParent(ctx context.Context, path string) (mo.Option[string], error)
}

// FacetSet groups the facets under one root category.
type FacetSet struct {
	Root   string
	Facets []Facet
}

// NewFacetSet builds facets from a histogram. Only paths at or below root
// are kept; an empty root keeps everything. A nil titles resolver uses the
// last path segment.
func NewFacetSet(root string, hist map[string]int, titles TitleResolver) *FacetSet {
	if titles == nil {
		titles = LastSegment
	}
	fs := &FacetSet{Root: root}
	for path, n := range hist {
		if root != "" && !IsCategoryOrSubCategory(path, root) {
			continue
		}
		fs.Facets = append(fs.Facets, Facet{Path: path, Title: titles(path), Count: n})
	}
	fs.Sort(SortByPath, language.Und)
	return fs
}

// Add increments the count of path, creating the facet when missing.
func (fs *FacetSet) Add(path, title string) {
	for i := range fs.Facets {
		if fs.Facets[i].Path == path && fs.Facets[i].Title == title {
			fs.Facets[i].Count++
			return
		}
	}
	fs.Facets = append(fs.Facets, Facet{Path: path, Title: title, Count: 1})
}

// Sort orders the facets. Titles are collated in the given locale.
func (fs *FacetSet) Sort(mode SortMode, locale language.Tag) {
	switch mode {
	case SortByRelevancy:
		col := collate.New(locale)
		slices.SortStableFunc(fs.Facets, func(a, b Facet) int {
			if c := cmp.Compare(b.Count, a.Count); c != 0 {
				return c
			}
			return col.CompareString(a.Title, b.Title)
		})
	case SortByTitle:
		col := collate.New(locale)
		slices.SortStableFunc(fs.Facets, func(a, b Facet) int {
			return col.CompareString(a.Title, b.Title)
		})
	default:
		slices.SortStableFunc(fs.Facets, func(a, b Facet) int {
			return strings.Compare(a.Path, b.Path)
		})
	}
}

// ExcludeAll drops every facet that is, or lies below, one of the excluded paths.
func (fs *FacetSet) ExcludeAll(excluded []string) {
	fs.Facets = slices.DeleteFunc(fs.Facets, func(f Facet) bool {
		for _, ex := range excluded {
			if IsCategoryOrSubCategory(f.Path, ex) {
				return true
			}
		}
		return false
	})
}

// Paths returns the facet paths in their current order.
func (fs *FacetSet) Paths() []string {
	out := make([]string, len(fs.Facets))
	for i, f := range fs.Facets {
		out[i] = f.Path
	}
	return out
}

// IsCategoryOrSubCategory reports whether path equals reference or lies below it.
func IsCategoryOrSubCategory(path, reference string) bool {
	return strings.HasPrefix(path, reference)
}

// LastSegment returns the final non-empty segment of a category path.
func LastSegment(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return path
	}
	return parts[len(parts)-1]
}

// MatchCategoryOrParent returns the first of path and its ancestors that is
// contained in candidates.
func MatchCategoryOrParent(ctx context.Context, candidates []string, path string, parents ParentResolver) (mo.Option[string], error) {
	current := path
	for depth := 0; depth < maxCategoryDepth; depth++ {
		if slices.Contains(candidates, current) {
			return mo.Some(current), nil
		}
		parent, err := parents.ResolveCategoryParent(ctx, current)
		if err != nil {
			return mo.None[string](), err
		}
		next, ok := parent.Get()
		if !ok || next == current {
			break
		}
		current = next
	}
	return mo.None[string](), nil
}

const maxCategoryDepth = 64

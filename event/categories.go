package event

import "github.com/cyp0633/libeventcal/category"

// CategoryList splits the raw category string using the per-entry delimiter
// heuristic.
func (e Entry) CategoryList() []string {
	return category.Split(e.Categories)
}

// CategoryString returns the raw category string so entries can be filtered
// by the category package.
func (e Entry) CategoryString() string {
	return e.Categories
}

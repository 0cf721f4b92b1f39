package collector

import (
	"slices"

	"github.com/cyp0633/libeventcal/timerange"
)

// Builder assembles a Query programmatically.
//
//	q := collector.NewBuilder("/events/", "np_event").
//		Range(timerange.Of(timerange.Month, now, loc)).
//		Categories("topics/ice/").
//		Limit(10).
//		Build()
type Builder struct {
	q Query
}

// NewBuilder starts a query for resource and resourceType with every other
// field at its default.
func NewBuilder(resource, resourceType string) *Builder {
	q := DefaultQuery()
	q.Resource = resource
	q.ResourceType = resourceType
	return &Builder{q: q}
}

// Limit caps the result size; negative disables the cap.
func (b *Builder) Limit(n int) *Builder {
	b.q.ResultLimit = n
	return b
}

// Window sets the time window in epoch milliseconds.
func (b *Builder) Window(start, end int64) *Builder {
	b.q.TimeStart = start
	b.q.TimeEnd = end
	return b
}

// Range sets the time window from r.
func (b *Builder) Range(r timerange.Range) *Builder {
	return b.Window(r.Start, r.End)
}

// Categories replaces the category filter.
func (b *Builder) Categories(paths ...string) *Builder {
	b.q.Categories = slices.Clone(paths)
	return b
}

// MatchAll requires every filter category when true.
func (b *Builder) MatchAll(all bool) *Builder {
	b.q.CategoryInclusive = !all
	return b
}

// Descending sorts latest first when true.
func (b *Builder) Descending(desc bool) *Builder {
	b.q.SortDescending = desc
	return b
}

// ExcludeExpired drops entries that ended before now.
func (b *Builder) ExcludeExpired(exclude bool) *Builder {
	b.q.ExcludeExpired = exclude
	return b
}

// ExcludeFolders skips candidates below any of the given folders.
func (b *Builder) ExcludeFolders(folders ...string) *Builder {
	b.q.ExcludeFolders = slices.Clone(folders)
	return b
}

// Recurrences toggles recurrence expansion.
func (b *Builder) Recurrences(include bool) *Builder {
	b.q.IncludeRecurrences = include
	return b
}

// Strict makes entries with an end match only when they start in the window.
func (b *Builder) Strict(strict bool) *Builder {
	b.q.OverlapLenient = !strict
	return b
}

// Properties overrides the property names read from each item. Empty names
// keep the collector's schema.
func (b *Builder) Properties(start, end, categories string) *Builder {
	b.q.PropertyTimeStart = start
	b.q.PropertyTimeEnd = end
	b.q.PropertyCategories = categories
	return b
}

// Build returns a copy of the assembled query.
func (b *Builder) Build() Query {
	q := b.q
	q.Categories = slices.Clone(q.Categories)
	q.ExcludeFolders = slices.Clone(q.ExcludeFolders)
	return q
}

// String returns the parameter string form of the query.
func (b *Builder) String() string {
	return b.q.String()
}

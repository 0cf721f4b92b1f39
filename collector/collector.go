// Package collector selects event entries from a repository according to a
// query: fetch, time test with recurrence expansion, dedup, category filter,
// sort, histogram and limit.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/libeventcal/category"
	"github.com/cyp0633/libeventcal/event"
	"github.com/cyp0633/libeventcal/recurrence"
	"github.com/cyp0633/libeventcal/storage"
	"github.com/cyp0633/libeventcal/timerange"
	"golang.org/x/text/language"
)

// Options configures a Collector. Zero values select the defaults.
type Options struct {
	Schema storage.Schema
	// Engine expands recurring entries. Nil uses recurrence.NewEngine().
	Engine *recurrence.Engine
	Logger *slog.Logger
	// Now is the reference clock for expiry tests.
	Now func() time.Time
	// Location is used for date-only snapping and textual dates.
	Location *time.Location
	Locale   language.Tag
}

// Collector runs queries against a repository. It holds no per-query state
// and is safe for concurrent use when the repository is.
type Collector struct {
	repo     storage.Repository
	schema   storage.Schema
	engine   *recurrence.Engine
	logger   *slog.Logger
	now      func() time.Time
	location *time.Location
	locale   language.Tag
}

// Result is the outcome of a query.
type Result struct {
	Items []event.Entry
	// Total is the number of matching entries before the limit was applied.
	Total int
	// Categories counts the matching entries per category path, before the
	// limit was applied.
	Categories map[string]int
}

// New creates a collector reading from repo.
func New(repo storage.Repository, opts Options) *Collector {
	c := &Collector{
		repo:     repo,
		schema:   opts.Schema.WithDefaults(),
		engine:   opts.Engine,
		logger:   opts.Logger,
		now:      opts.Now,
		location: opts.Location,
		locale:   opts.Locale,
	}
	if c.engine == nil {
		c.engine = recurrence.NewEngine()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.location == nil {
		c.location = timerange.DefaultZone
	}
	return c
}

// Select parses param and runs the resulting query.
func (c *Collector) Select(ctx context.Context, param string) (*Result, error) {
	q, err := ParseParams(param, c.location, c.logger)
	if err != nil {
		return nil, err
	}
	return c.SelectQuery(ctx, q)
}

// SelectQuery runs q.
func (c *Collector) SelectQuery(ctx context.Context, q Query) (*Result, error) {
	if q.Resource == "" || q.ResourceType == "" {
		return nil, invalidParams("resource and resourceType are required")
	}
	props := c.propertyNames(q)

	typ, err := c.repo.ResolveType(ctx, q.ResourceType)
	if err != nil {
		if storage.IsErrorType(err, storage.ErrUnknownType) {
			return nil, &Error{Kind: ErrUnknownResourceType, Message: q.ResourceType, Err: err}
		}
		return nil, fmt.Errorf("resolve resource type %q: %w", q.ResourceType, err)
	}

	candidates, err := c.repo.FetchCandidates(ctx, q.Resource, typ)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates below %q: %w", q.Resource, err)
	}

	window := q.Window()
	ref := c.now().UnixMilli()
	var matched []event.Entry

	for _, item := range candidates {
		if len(q.ExcludeFolders) > 0 {
			path, err := c.repo.ResolveItemPath(ctx, item)
			if err != nil {
				return nil, fmt.Errorf("resolve path of %s: %w", item.Path, err)
			}
			if excluded(path, q.ExcludeFolders) {
				continue
			}
		}

		entry, ok, err := c.buildEntry(ctx, item, props)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		instances := []event.Entry{entry}
		if q.IncludeRecurrences && entry.IsRecurring() {
			instances = append(instances, c.engine.Expand(entry, window.Start, window.End)...)
		}

		for _, in := range instances {
			if q.ExcludeExpired && in.IsExpired(ref) {
				continue
			}
			if inWindow(in, window, q.OverlapLenient) {
				matched = append(matched, in)
			}
		}
	}

	matched = event.Dedup(matched)
	matched = category.Filter(matched, q.CategorySpec())

	if q.SortDescending {
		slices.SortStableFunc(matched, func(a, b event.Entry) int {
			return event.CompareStartTime(b, a)
		})
	} else {
		slices.SortStableFunc(matched, event.CompareStartTime)
	}

	res := &Result{
		Total:      len(matched),
		Categories: category.Histogram(matched),
	}
	if q.ResultLimit >= 0 && q.ResultLimit < len(matched) {
		matched = matched[:q.ResultLimit]
	}
	res.Items = matched

	c.logger.Debug("selection complete",
		"resource", q.Resource, "candidates", len(candidates), "total", res.Total, "returned", len(res.Items))
	return res, nil
}

// Facets groups the result histogram below root. A nil titles resolver uses
// the last path segment.
func (r *Result) Facets(root string, titles category.TitleResolver, locale language.Tag) *category.FacetSet {
	fs := category.NewFacetSet(root, r.Categories, titles)
	if titles != nil {
		fs.Sort(category.SortByTitle, locale)
	}
	return fs
}

// Titles returns the titles of the selected entries in order.
func (r *Result) Titles() []string {
	out := make([]string, len(r.Items))
	for i, e := range r.Items {
		out[i] = e.Title
	}
	return out
}

type propertyNames struct {
	start, end, categories, recurrence, display, title, description string
}

func (c *Collector) propertyNames(q Query) propertyNames {
	pick := func(v, fallback string) string {
		if v != "" {
			return v
		}
		return fallback
	}
	return propertyNames{
		start:       pick(q.PropertyTimeStart, c.schema.PropertyTimeStart),
		end:         pick(q.PropertyTimeEnd, c.schema.PropertyTimeEnd),
		categories:  pick(q.PropertyCategories, c.schema.PropertyCategories),
		recurrence:  pick(q.PropertyRecurrence, c.schema.PropertyRecurrence),
		display:     pick(q.PropertyDisplay, c.schema.PropertyDisplay),
		title:       pick(q.PropertyTitle, c.schema.PropertyTitle),
		description: pick(q.PropertyDescription, c.schema.PropertyDesc),
	}
}

// buildEntry reads an entry from item. ok is false when the item has no
// usable start time.
func (c *Collector) buildEntry(ctx context.Context, item storage.Item, props propertyNames) (event.Entry, bool, error) {
	read := func(name string) (string, error) {
		v, err := c.repo.ReadProperty(ctx, item, name)
		if err != nil {
			return "", fmt.Errorf("read %s of %s: %w", name, item.Path, err)
		}
		return strings.TrimSpace(v.OrEmpty()), nil
	}

	raw, err := read(props.start)
	if err != nil {
		return event.Entry{}, false, err
	}
	start, err := parseMillis(raw)
	if err != nil {
		c.logger.Debug("skipping item without a valid start time", "path", item.Path, "value", raw)
		return event.Entry{}, false, nil
	}

	entry := event.Entry{
		Start:       start,
		Location:    c.location,
		Locale:      c.locale,
		Path:        item.Path,
		ResourceID:  item.ResourceID,
		StructureID: item.StructureID,
	}

	if raw, err = read(props.end); err != nil {
		return event.Entry{}, false, err
	}
	if raw != "" {
		if entry.End, err = parseMillis(raw); err != nil {
			c.logger.Warn("invalid end time, treating entry as open-ended", "path", item.Path, "value", raw)
			entry.End = 0
		}
	}

	fields := []struct {
		name string
		dst  *string
	}{
		{props.title, &entry.Title},
		{props.description, &entry.Description},
		{props.recurrence, &entry.RecurrenceRule},
		{props.categories, &entry.Categories},
	}
	for _, f := range fields {
		if *f.dst, err = read(f.name); err != nil {
			return event.Entry{}, false, err
		}
	}

	if raw, err = read(props.display); err != nil {
		return event.Entry{}, false, err
	}
	entry.DisplayMode = event.ParseDisplayMode(raw)

	return entry, true, nil
}

var errEmptyTime = errors.New("empty time value")

// parseMillis reads integer or decimal epoch milliseconds.
func parseMillis(s string) (int64, error) {
	if s == "" {
		return 0, errEmptyTime
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, ok := new(big.Float).SetPrec(256).SetString(s)
	if !ok || f.IsInf() {
		return 0, fmt.Errorf("invalid time value %q", s)
	}
	n, _ := f.Int64()
	return n, nil
}

func excluded(path string, folders []string) bool {
	for _, f := range folders {
		if strings.HasPrefix(path, f) {
			return true
		}
	}
	return false
}

func inWindow(e event.Entry, window timerange.Range, lenient bool) bool {
	if window.IsInverted() {
		return false
	}
	if e.HasEnd() && lenient {
		return e.OverlapsRange(window.Start, window.End)
	}
	return e.StartsInRange(window.Start, window.End)
}

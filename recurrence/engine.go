// Package recurrence expands recurrence rules of events into bounded
// occurrence lists.
package recurrence

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cyp0633/libeventcal/event"
	"github.com/cyp0633/libeventcal/timerange"
	"github.com/teambition/rrule-go"
)

// Engine expands recurring events against a selection window
type Engine struct {
	cache  *ExpansionCache
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates a new recurrence engine with the default configuration
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// Config returns the effective configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// CacheStats reports cache usage; zero when caching is disabled
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// Expand returns the occurrences of entry that start no later than
// windowEnd and overlap [windowStart, windowEnd]. The entry itself is never
// part of the result. Malformed rules yield no occurrences.
func (e *Engine) Expand(entry event.Entry, windowStart, windowEnd int64) []event.Entry {
	if !entry.IsRecurring() || windowStart > windowEnd {
		return nil
	}

	var (
		spans []Span
		key   string
	)
	if e.cache != nil {
		key = cacheKey(entry, windowStart, windowEnd, e.config)
		if cached, ok := e.cache.Get(key); ok {
			spans = cached
		}
	}
	if spans == nil {
		var err error
		spans, err = e.expand(entry, windowStart, windowEnd)
		if err != nil {
			e.logger.Warn("recurrence expansion failed",
				"path", entry.Path, "title", entry.Title, "rule", entry.RecurrenceRule, "error", err)
			return nil
		}
		if e.cache != nil {
			e.cache.Set(key, spans)
		}
	}

	out := make([]event.Entry, 0, len(spans))
	for _, s := range spans {
		out = append(out, entry.Occurrence(s.Start, s.End))
	}
	return out
}

// expand walks the rule and collects occurrence spans. Panics raised by the
// rule iterator are turned into errors.
func (e *Engine) expand(entry event.Entry, windowStart, windowEnd int64) (spans []Span, err error) {
	defer func() {
		if r := recover(); r != nil {
			spans = nil
			err = fmt.Errorf("iterating rule: %v", r)
		}
	}()

	loc := entry.Location
	if loc == nil {
		loc = timerange.DefaultZone
	}
	origin := timerange.Time(entry.Start, loc)
	seed := midnight(origin)

	rule, err := newRule(entry.RecurrenceRule, seed, loc)
	if err != nil {
		return nil, err
	}

	w := &walker{
		entry:       entry,
		origin:      origin,
		windowStart: windowStart,
		windowEnd:   windowEnd,
		budget:      e.config.MaxIterations,
		limit:       e.config.MaxOccurrences,
		spans:       []Span{},
	}

	windowDay := midnight(timerange.Time(windowStart, loc))
	if entry.HasEnd() && !entry.IsOneDay() {
		// A multi-day occurrence that started before the window may still
		// be in progress, so start from the closest earlier rule date.
		it := rule.Iterator()
		anchor, next, ok := lookback(it, windowDay.AddDate(0, 0, 1), e.config.MaxLookback)
		if !ok {
			e.logger.Debug("recurrence lookback exhausted, walking from the first date",
				"path", entry.Path, "rule", entry.RecurrenceRule)
			w.walk(rule.Iterator())
			return w.spans, nil
		}
		if !anchor.IsZero() && !w.visit(anchor) {
			return w.spans, nil
		}
		if next.IsZero() || !w.visit(next) {
			return w.spans, nil
		}
		w.walk(it)
		return w.spans, nil
	}

	w.walk(rule.Iterator(), notBefore(windowDay))
	return w.spans, nil
}

// newRule parses rule text and seeds it at the given midnight.
func newRule(text string, seed time.Time, loc *time.Location) (*rrule.RRule, error) {
	text = strings.TrimSpace(text)
	opt, err := rrule.StrToROptionInLocation(text, loc)
	if err != nil {
		return nil, fmt.Errorf("parsing rule %q: %w", text, err)
	}
	opt.Dtstart = seed
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("building rule %q: %w", text, err)
	}
	return rule, nil
}

// lookback returns the last rule date before limit and the first date at or
// after it. ok is false when max iterations pass without reaching limit.
func lookback(next rrule.Next, limit time.Time, max int) (anchor, following time.Time, ok bool) {
	for i := 0; i < max; i++ {
		d, more := next()
		if !more {
			return anchor, time.Time{}, true
		}
		if !d.Before(limit) {
			return anchor, d, true
		}
		anchor = d
	}
	return time.Time{}, time.Time{}, false
}

type walker struct {
	entry       event.Entry
	origin      time.Time
	windowStart int64
	windowEnd   int64
	budget      int
	limit       int
	spans       []Span
	// last is the most recent rule date visited. Sub-daily rules yield
	// several dates per day and only the first one counts.
	last time.Time
}

// walk feeds rule dates accepted by skip filters to visit until it asks to stop.
func (w *walker) walk(next rrule.Next, skip ...func(time.Time) bool) {
	for w.budget > 0 {
		w.budget--
		d, more := next()
		if !more {
			return
		}
		skipped := false
		for _, s := range skip {
			if s(d) {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}
		if !w.visit(d) {
			return
		}
	}
}

// visit turns a rule date into an occurrence. It returns false once the
// walk should stop.
func (w *walker) visit(d time.Time) bool {
	if sameDate(d, w.origin) || (!w.last.IsZero() && sameDate(d, w.last)) {
		return true
	}
	w.last = d

	start := time.Date(d.Year(), d.Month(), d.Day(),
		w.origin.Hour(), w.origin.Minute(), w.origin.Second(), w.origin.Nanosecond(), w.origin.Location()).UnixMilli()
	var end int64
	if w.entry.HasEnd() {
		end = w.entry.End + (start - w.entry.Start)
	}

	occ := w.entry.Occurrence(start, end)
	if occ.StartTime() > w.windowEnd {
		return false
	}
	if !occ.OverlapsRange(w.windowStart, w.windowEnd) {
		return true
	}

	w.spans = append(w.spans, Span{Start: start, End: end})
	return w.limit <= 0 || len(w.spans) < w.limit
}

func notBefore(day time.Time) func(time.Time) bool {
	return func(d time.Time) bool { return d.Before(day) }
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

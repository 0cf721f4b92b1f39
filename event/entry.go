// Package event holds the event entity and its time predicates.
package event

import (
	"strings"
	"time"

	"github.com/cyp0633/libeventcal/timerange"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// DisplayMode tells whether an event is shown with its clock time.
type DisplayMode string

const (
	DateTime DisplayMode = "datetime"
	DateOnly DisplayMode = "dateonly"
)

// ParseDisplayMode maps a stored display keyword to a mode. Anything other
// than "dateonly" is treated as DateTime.
func ParseDisplayMode(s string) DisplayMode {
	if strings.EqualFold(strings.TrimSpace(s), string(DateOnly)) {
		return DateOnly
	}
	return DateTime
}

// Entry is a single event, either stored or synthesized from a recurrence rule.
type Entry struct {
	// Start and End are epoch milliseconds. End == 0 means no end.
	Start int64
	End   int64

	Title          string
	Description    string
	DisplayMode    DisplayMode
	RecurrenceRule string
	// Categories is the raw delimiter separated category path list.
	Categories string

	Location *time.Location
	Locale   language.Tag

	// Identity of the repository item the entry was built from.
	Path        string
	ResourceID  uuid.UUID
	StructureID uuid.UUID

	IsOccurrence bool
}

func (e Entry) loc() *time.Location {
	if e.Location == nil {
		return timerange.DefaultZone
	}
	return e.Location
}

// HasEnd reports whether the entry has an end time.
func (e Entry) HasEnd() bool {
	return e.End > 0
}

// IsDateOnly reports whether the entry occupies whole days.
func (e Entry) IsDateOnly() bool {
	return e.DisplayMode == DateOnly
}

// IsRecurring reports whether the entry carries a recurrence rule.
func (e Entry) IsRecurring() bool {
	return strings.TrimSpace(e.RecurrenceRule) != ""
}

// StartTime returns the effective start, snapped to the start of the day
// for date-only entries.
func (e Entry) StartTime() int64 {
	if e.IsDateOnly() {
		return StartOfDay(e.Start, e.loc())
	}
	return e.Start
}

// EndTime returns the effective end, snapped to the end of the day for
// date-only entries. Entries without an end return 0.
func (e Entry) EndTime() int64 {
	if !e.HasEnd() {
		return 0
	}
	if e.IsDateOnly() {
		return EndOfDay(e.End, e.loc())
	}
	return e.End
}

// StartOfDay returns 00:00:00.000 of the day containing ms in loc.
func StartOfDay(ms int64, loc *time.Location) int64 {
	t := timerange.Time(ms, loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).UnixMilli()
}

// EndOfDay returns 23:59:59.999 of the day containing ms in loc.
func EndOfDay(ms int64, loc *time.Location) int64 {
	t := timerange.Time(ms, loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location()).UnixMilli()
}

// IsExpired reports whether the entry is over at ref.
func (e Entry) IsExpired(ref int64) bool {
	if e.HasEnd() {
		return e.EndTime() < ref
	}
	if e.IsDateOnly() && e.StartsOnDate(timerange.Time(ref, e.loc())) {
		return false
	}
	return e.StartTime() < ref
}

// IsInProgress reports whether ref falls between the effective start and end.
// Entries without an end are in progress only during their start day when
// date-only, and never otherwise.
func (e Entry) IsInProgress(ref int64) bool {
	if !e.HasEnd() {
		return e.IsDateOnly() && e.StartsOnDate(timerange.Time(ref, e.loc()))
	}
	return e.StartTime() <= ref && ref <= e.EndTime()
}

// StartsInRange reports whether the effective start lies in [rangeStart, rangeEnd].
func (e Entry) StartsInRange(rangeStart, rangeEnd int64) bool {
	s := e.StartTime()
	return s >= rangeStart && s <= rangeEnd
}

// OverlapsRange reports whether the entry shares any instant with
// [rangeStart, rangeEnd]. Entries without an end fall back to StartsInRange.
func (e Entry) OverlapsRange(rangeStart, rangeEnd int64) bool {
	if !e.HasEnd() {
		return e.StartsInRange(rangeStart, rangeEnd)
	}
	if e.EndTime() < rangeStart || e.StartTime() > rangeEnd {
		return false
	}
	return true
}

// IsOneDay reports whether the effective start and end fall on the same day.
func (e Entry) IsOneDay() bool {
	if !e.HasEnd() {
		return true
	}
	s, end := e.startEnd()
	return s.Year() == end.Year() && s.Month() == end.Month() && s.Day() == end.Day()
}

// IsOneMonth reports whether the effective start and end fall in the same month.
func (e Entry) IsOneMonth() bool {
	if !e.HasEnd() {
		return true
	}
	s, end := e.startEnd()
	return s.Year() == end.Year() && s.Month() == end.Month()
}

// IsOneYear reports whether the effective start and end fall in the same year.
func (e Entry) IsOneYear() bool {
	if !e.HasEnd() {
		return true
	}
	s, end := e.startEnd()
	return s.Year() == end.Year()
}

func (e Entry) startEnd() (time.Time, time.Time) {
	return timerange.Time(e.StartTime(), e.loc()), timerange.Time(e.EndTime(), e.loc())
}

// StartsOnDate reports whether the effective start falls on the calendar day of d.
func (e Entry) StartsOnDate(d time.Time) bool {
	return sameDay(timerange.Time(e.StartTime(), e.loc()), d.In(e.loc()))
}

// EndsOnDate reports whether the effective end falls on the calendar day of d.
// Entries without an end use their start.
func (e Entry) EndsOnDate(d time.Time) bool {
	if !e.HasEnd() {
		return e.StartsOnDate(d)
	}
	return sameDay(timerange.Time(e.EndTime(), e.loc()), d.In(e.loc()))
}

// CompareStartDay returns 0 if the entry starts on the day of d, -1 if it
// starts before that day and 1 otherwise.
func (e Entry) CompareStartDay(d time.Time) int {
	if e.StartsOnDate(d) {
		return 0
	}
	if e.StartTime() < StartOfDay(d.UnixMilli(), e.loc()) {
		return -1
	}
	return 1
}

// CompareEndDay returns 0 if the entry ends on the day of d, -1 if it ends
// before that day and 1 otherwise.
func (e Entry) CompareEndDay(d time.Time) int {
	if e.EndsOnDate(d) {
		return 0
	}
	if e.EndsBefore(StartOfDay(d.UnixMilli(), e.loc())) {
		return -1
	}
	return 1
}

func (e Entry) StartsBefore(ms int64) bool { return ms > e.StartTime() }
func (e Entry) StartsAfter(ms int64) bool  { return ms < e.StartTime() }
func (e Entry) EndsBefore(ms int64) bool   { return ms > e.effectiveEnd() }
func (e Entry) EndsAfter(ms int64) bool    { return ms < e.effectiveEnd() }

// effectiveEnd treats a missing end as the start.
func (e Entry) effectiveEnd() int64 {
	if !e.HasEnd() {
		return e.StartTime()
	}
	return e.EndTime()
}

// Occurrence returns a copy of e moved to the given start and end and marked
// as a recurrence instance.
func (e Entry) Occurrence(start, end int64) Entry {
	o := e
	o.Start = start
	o.End = end
	o.IsOccurrence = true
	return o
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Package timerange models closed epoch-millisecond intervals used as
// selection windows.
package timerange

import (
	"fmt"
	"time"
)

// Kind identifies how a Range was derived from a reference date.
type Kind int

const (
	Unspecified Kind = iota
	Date
	Month
	Week
	Year
	UpcomingAndInProgress
	Expired
	CatchAll
)

func (k Kind) String() string {
	switch k {
	case Date:
		return "date"
	case Month:
		return "month"
	case Week:
		return "week"
	case Year:
		return "year"
	case UpcomingAndInProgress:
		return "upcoming"
	case Expired:
		return "expired"
	case CatchAll:
		return "all"
	default:
		return "unspecified"
	}
}

// DefaultZone is used whenever no location is supplied.
var DefaultZone = time.FixedZone("GMT+1", 3600)

// Range is a closed interval [Start, End] in epoch milliseconds.
type Range struct {
	Start int64
	End   int64
	Kind  Kind
}

// New creates an unspecified range from explicit bounds. Bounds are not
// validated; an inverted range contains nothing.
func New(start, end int64) Range {
	return Range{Start: start, End: end, Kind: Unspecified}
}

// WeekStart is the first day of the week used by Of for Week ranges.
var WeekStart = time.Monday

// Of derives a range of the given kind from a reference instant.
func Of(kind Kind, ref time.Time, loc *time.Location) Range {
	if loc == nil {
		loc = DefaultZone
	}
	r := Range{Kind: kind}
	if !ref.IsZero() {
		ref = ref.In(loc)
	}
	y, m, d := ref.Date()

	switch kind {
	case Date:
		r.Start = Millis(time.Date(y, m, d, 0, 0, 0, 0, loc))
		r.End = Millis(time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc))
	case Month:
		r.Start = Millis(time.Date(y, m, 1, 0, 0, 0, 0, loc))
		r.End = Millis(time.Date(y, m, DaysIn(y, m), 23, 59, 59, 0, loc))
	case Week:
		first := WarpTime(time.Date(y, m, d, 0, 0, 0, 0, loc), FirstDayOfWeek, WeekStart)
		fy, fm, fd := first.Date()
		r.Start = Millis(first)
		r.End = Millis(time.Date(fy, fm, fd+6, 23, 59, 59, 0, loc))
	case Year:
		r.Start = Millis(time.Date(y, time.January, 1, 0, 0, 0, 0, loc))
		r.End = Millis(time.Date(y, time.December, 31, 23, 59, 59, 0, loc))
	case UpcomingAndInProgress:
		r.Start = Millis(time.Date(y, m, d, 0, 0, 0, 0, loc))
		r.End = Millis(FarFuture(loc))
	case Expired:
		r.Start = Millis(FarPast(loc))
		r.End = Millis(ref)
	case CatchAll:
		if ref.IsZero() {
			r.Start = Millis(FarPast(loc))
		} else {
			r.Start = Millis(ref)
		}
		r.End = Millis(FarFuture(loc))
	default:
		r.Start = Millis(ref)
		r.End = Millis(ref)
	}
	return r
}

// FromCalendarParams picks a year, month or date range depending on which
// calendar fields are set. Zero month means the whole year, zero day the
// whole month.
func FromCalendarParams(year, month, day int, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = DefaultZone
	}
	if year <= 0 {
		return Range{}, fmt.Errorf("invalid year %d", year)
	}
	if month < 0 || month > 12 {
		return Range{}, fmt.Errorf("invalid month %d", month)
	}
	if month == 0 {
		return Of(Year, time.Date(year, time.January, 1, 0, 0, 0, 0, loc), loc), nil
	}
	if day == 0 {
		return Of(Month, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc), loc), nil
	}
	if day < 0 || day > DaysIn(year, time.Month(month)) {
		return Range{}, fmt.Errorf("invalid day %d for %04d-%02d", day, year, month)
	}
	return Of(Date, time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), loc), nil
}

// Contains reports whether Start <= t <= End.
func (r Range) Contains(t int64) bool {
	return r.Start <= t && t <= r.End
}

// Overlaps reports whether [start, end] shares at least one instant with r.
func (r Range) Overlaps(start, end int64) bool {
	if r.IsInverted() || start > end {
		return false
	}
	return !(end < r.Start || start > r.End)
}

// IsInverted reports whether Start is after End.
func (r Range) IsInverted() bool {
	return r.Start > r.End
}

// AdjustStart overwrites the start bound.
func (r *Range) AdjustStart(ms int64) {
	r.Start = ms
}

// AdjustEnd overwrites the end bound.
func (r *Range) AdjustEnd(ms int64) {
	r.End = ms
}

func (r Range) String() string {
	return fmt.Sprintf("%s[%d, %d]", r.Kind, r.Start, r.End)
}

// FarPast is the lower sentinel for unbounded ranges.
func FarPast(loc *time.Location) time.Time {
	if loc == nil {
		loc = DefaultZone
	}
	return time.Date(2000, time.January, 1, 0, 0, 0, 0, loc)
}

// FarFuture is the upper sentinel for unbounded ranges.
func FarFuture(loc *time.Location) time.Time {
	if loc == nil {
		loc = DefaultZone
	}
	return time.Date(2999, time.December, 31, 23, 59, 59, 0, loc)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Time converts epoch milliseconds to a time in loc.
func Time(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = DefaultZone
	}
	return time.UnixMilli(ms).In(loc)
}

package timerange

import "time"

// Warp is a calendar navigation step.
type Warp int

const (
	PrevMonth Warp = iota + 1
	NextMonth
	FirstDayOfWeek
	FirstDayOfPrevWeek
)

// WarpTime moves t by w. Month steps keep the clock time and clamp the day
// to the length of the target month, so January 31 steps to the last day of
// February. Week steps land on the given first weekday, keeping the clock time.
func WarpTime(t time.Time, w Warp, first time.Weekday) time.Time {
	switch w {
	case PrevMonth:
		return AddMonths(t, -1)
	case NextMonth:
		return AddMonths(t, 1)
	case FirstDayOfWeek:
		return t.AddDate(0, 0, DaysSinceWeekStarted(t, first))
	case FirstDayOfPrevWeek:
		return t.AddDate(0, 0, DaysSinceWeekStarted(t, first)-7)
	}
	return t
}

// DaysSinceWeekStarted returns the day offset from t back to the most recent
// first weekday, in the range -6 to 0.
func DaysSinceWeekStarted(t time.Time, first time.Weekday) int {
	return -((int(t.Weekday()) - int(first) + 7) % 7)
}

// AddMonths adds n calendar months to t, clamping the day of month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	ty, tm, _ := target.Date()
	if last := DaysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

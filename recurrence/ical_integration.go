package recurrence

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// TimeInfo is the start and end read from an iCalendar component
type TimeInfo struct {
	Start    time.Time
	End      time.Time // zero when the component has no end
	DateOnly bool
}

// RuleFromComponent extracts the RRULE text (without the "RRULE:" prefix)
// from an iCalendar component
func RuleFromComponent(comp *ical.Component) string {
	if rruleProp := comp.Props.Get(ical.PropRecurrenceRule); rruleProp != nil && rruleProp.Value != "" {
		return strings.TrimPrefix(strings.TrimSpace(rruleProp.Value), "RRULE:")
	}
	return ""
}

// ExtractTimeInfoFromComponent reads DTSTART and DTEND/DURATION. Floating
// times are interpreted in loc. For all-day components the exclusive DTEND
// is turned into the last day of the event.
func ExtractTimeInfoFromComponent(comp *ical.Component, loc *time.Location) (TimeInfo, bool) {
	var info TimeInfo

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil || startProp.Value == "" {
		return info, false
	}
	start, dateOnly, err := parseDateTime(startProp.Value, startProp.Params, loc)
	if err != nil {
		return info, false
	}
	info.Start = start
	info.DateOnly = dateOnly

	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil && endProp.Value != "" {
		end, endDateOnly, err := parseDateTime(endProp.Value, endProp.Params, loc)
		if err == nil {
			if endDateOnly && end.After(start) {
				end = end.AddDate(0, 0, -1)
			}
			info.End = end
		}
	} else if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
		if duration, err := durationProp.Duration(); err == nil && duration > 0 {
			info.End = start.Add(duration)
			if dateOnly {
				info.End = info.End.AddDate(0, 0, -1)
			}
		}
	}

	if dateOnly && !info.End.IsZero() && !info.End.After(start) {
		info.End = time.Time{}
	}

	return info, true
}

// parseDateTime parses a DATE or DATE-TIME value. UTC values keep the Z
// suffix, TZID parameters are honoured when the zone is known, anything else
// is floating and placed in loc.
func parseDateTime(value string, params map[string][]string, loc *time.Location) (time.Time, bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	isDateOnly := false
	if params != nil {
		if valueParam := params["VALUE"]; len(valueParam) > 0 && strings.ToUpper(valueParam[0]) == "DATE" {
			isDateOnly = true
		}
		if tzid := params["TZID"]; len(tzid) > 0 {
			if tz, err := time.LoadLocation(tzid[0]); err == nil {
				loc = tz
			}
		}
	}

	if isDateOnly || len(value) == len("20060102") {
		t, err := time.ParseInLocation("20060102", value, loc)
		return t, true, err
	}
	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		return t.In(loc), false, err
	}
	t, err := time.ParseInLocation("20060102T150405", value, loc)
	return t, false, err
}

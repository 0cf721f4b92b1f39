package collector

import (
	"errors"
	"io"
	"strings"

	"github.com/cyp0633/libeventcal/event"
	"github.com/cyp0633/libeventcal/storage"
	"github.com/cyp0633/libeventcal/timerange"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// ErrEmptyResult is returned by WriteICS for a result without items, since a
// calendar needs at least one component.
var ErrEmptyResult = errors.New("no events to export")

// WriteICS writes the selected entries as one VCALENDAR. Recurrence
// occurrences share the UID of their origin and carry a RECURRENCE-ID.
func WriteICS(w io.Writer, res *Result) error {
	if res == nil || len(res.Items) == 0 {
		return ErrEmptyResult
	}
	comps := make([]*ical.Component, 0, len(res.Items))
	for _, e := range res.Items {
		comps = append(comps, entryComponent(e))
	}
	return storage.EncodeCalendar(w, comps)
}

func entryComponent(e event.Entry) *ical.Component {
	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, entryUID(e))
	comp.Props.SetText(ical.PropSummary, e.Title)
	if e.Description != "" {
		comp.Props.SetText(ical.PropDescription, e.Description)
	}

	setTime(comp, ical.PropDateTimeStart, e, e.Start)
	if e.HasEnd() {
		end := e.End
		if e.IsDateOnly() {
			// DTEND of an all-day event is exclusive
			end = timerange.Time(e.End, e.Location).AddDate(0, 0, 1).UnixMilli()
		}
		setTime(comp, ical.PropDateTimeEnd, e, end)
	}

	if e.IsOccurrence {
		setTime(comp, ical.PropRecurrenceID, e, e.Start)
	} else if e.IsRecurring() {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = strings.TrimPrefix(strings.TrimSpace(e.RecurrenceRule), "RRULE:")
		comp.Props.Set(prop)
	}

	if cats := e.CategoryList(); len(cats) > 0 {
		prop := ical.NewProp(ical.PropCategories)
		prop.Value = strings.Join(cats, ",")
		comp.Props.Set(prop)
	}
	return comp
}

func setTime(comp *ical.Component, name string, e event.Entry, ms int64) {
	t := timerange.Time(ms, e.Location)
	if e.IsDateOnly() {
		comp.Props.SetDate(name, t)
		return
	}
	comp.Props.SetDateTime(name, t.UTC())
}

func entryUID(e event.Entry) string {
	if e.ResourceID != uuid.Nil {
		return e.ResourceID.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.Path+"#"+e.Title)).String()
}

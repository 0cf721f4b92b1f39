package storage

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/libeventcal/recurrence"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// ProductID is written to every encoded calendar
const ProductID = "-//libeventcal//Go Event Calendar//EN"

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// EncodeCalendar writes components as a single VCALENDAR
func EncodeCalendar(w io.Writer, comps []*ical.Component) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	now := time.Now().UTC()
	for _, comp := range comps {
		// Ensure DTSTAMP is present
		if comp.Props.Get(ical.PropDateTimeStamp) == nil {
			comp.Props.SetDateTime(ical.PropDateTimeStamp, now)
		}
		cal.Children = append(cal.Children, comp)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// ItemsFromICS decodes every VEVENT in r into an event item stored below
// folder. Times are written as epoch milliseconds using the schema's
// property names; floating times are read in loc.
func ItemsFromICS(r io.Reader, folder string, typ TypeID, schema Schema, loc *time.Location) ([]Item, error) {
	schema = schema.WithDefaults()
	folder = CleanFolder(folder)
	dec := ical.NewDecoder(r)

	var items []Item
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Type: ErrInvalidInput, Message: "failed to decode calendar", Err: err}
		}

		for _, ev := range cal.Events() {
			item, ok := itemFromComponent(ev.Component, folder, typ, schema, loc)
			if ok {
				items = append(items, item)
			}
		}
	}

	return items, nil
}

func itemFromComponent(comp *ical.Component, folder string, typ TypeID, schema Schema, loc *time.Location) (Item, bool) {
	info, ok := recurrence.ExtractTimeInfoFromComponent(comp, loc)
	if !ok {
		return Item{}, false
	}

	uid := ""
	if p := comp.Props.Get(ical.PropUID); p != nil {
		uid = strings.TrimSpace(p.Value)
	}
	if uid == "" {
		uid = uuid.NewString()
	}
	resourceID, err := uuid.Parse(uid)
	if err != nil {
		resourceID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(uid))
	}

	props := map[string]string{
		schema.PropertyTimeStart: strconv.FormatInt(info.Start.UnixMilli(), 10),
	}
	if !info.End.IsZero() {
		props[schema.PropertyTimeEnd] = strconv.FormatInt(info.End.UnixMilli(), 10)
	}
	if info.DateOnly {
		props[schema.PropertyDisplay] = "dateonly"
	} else {
		props[schema.PropertyDisplay] = "datetime"
	}
	if text, err := comp.Props.Text(ical.PropSummary); err == nil && text != "" {
		props[schema.PropertyTitle] = text
	}
	if text, err := comp.Props.Text(ical.PropDescription); err == nil && text != "" {
		props[schema.PropertyDesc] = text
	}
	if rule := recurrence.RuleFromComponent(comp); rule != "" {
		props[schema.PropertyRecurrence] = rule
	}

	var categories []string
	for _, p := range comp.Props[ical.PropCategories] {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categories = append(categories, c)
			}
		}
	}
	if len(categories) > 0 {
		props[schema.PropertyCategories] = strings.Join(categories, "|")
	}

	name := strings.Trim(unsafePathChars.ReplaceAllString(uid, "_"), "_")
	if name == "" {
		name = resourceID.String()
	}

	return Item{
		Path:        folder + name + ".ics",
		ResourceID:  resourceID,
		StructureID: uuid.NewSHA1(resourceID, []byte(folder)),
		TypeID:      typ,
		Properties:  props,
		Categories:  categories,
	}, true
}

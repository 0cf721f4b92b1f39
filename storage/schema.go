package storage

// Schema names the resource type and the properties an event item is read from.
type Schema struct {
	ResourceType       string
	PropertyTimeStart  string
	PropertyTimeEnd    string
	PropertyCategories string
	PropertyDisplay    string
	PropertyRecurrence string
	PropertyTitle      string
	PropertyDesc       string
}

// DefaultSchema is the event schema used by the bundled event resource type.
func DefaultSchema() Schema {
	return Schema{
		ResourceType:       "np_event",
		PropertyTimeStart:  "collector.date",
		PropertyTimeEnd:    "collector.time",
		PropertyCategories: "collector.categories",
		PropertyDisplay:    "display",
		PropertyRecurrence: "recurrence",
		PropertyTitle:      "Title",
		PropertyDesc:       "Description",
	}
}

// WithDefaults fills empty names from DefaultSchema.
func (s Schema) WithDefaults() Schema {
	d := DefaultSchema()
	if s.ResourceType == "" {
		s.ResourceType = d.ResourceType
	}
	if s.PropertyTimeStart == "" {
		s.PropertyTimeStart = d.PropertyTimeStart
	}
	if s.PropertyTimeEnd == "" {
		s.PropertyTimeEnd = d.PropertyTimeEnd
	}
	if s.PropertyCategories == "" {
		s.PropertyCategories = d.PropertyCategories
	}
	if s.PropertyDisplay == "" {
		s.PropertyDisplay = d.PropertyDisplay
	}
	if s.PropertyRecurrence == "" {
		s.PropertyRecurrence = d.PropertyRecurrence
	}
	if s.PropertyTitle == "" {
		s.PropertyTitle = d.PropertyTitle
	}
	if s.PropertyDesc == "" {
		s.PropertyDesc = d.PropertyDesc
	}
	return s
}

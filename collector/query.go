package collector

import (
	"log/slog"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/libeventcal/category"
	"github.com/cyp0633/libeventcal/timerange"
)

// Parameter keys understood by ParseParams.
const (
	KeyResource            = "resource"
	KeyResourceType        = "resourceType"
	KeyResultLimit         = "resultLimit"
	KeySortDescending      = "sortDescending"
	KeyTimeStart           = "timeStart"
	KeyTimeEnd             = "timeEnd"
	KeyPropertyTimeStart   = "propertyTimeStart"
	KeyPropertyTimeEnd     = "propertyTimeEnd"
	KeyPropertyCategories  = "propertyCategories"
	KeyPropertyRecurrence  = "propertyRecurrence"
	KeyPropertyDisplay     = "propertyDisplay"
	KeyPropertyTitle       = "propertyTitle"
	KeyPropertyDescription = "propertyDescription"
	KeyCategories          = "categories"
	KeyExcludeFolders      = "excludeFolders"
	KeyExcludeExpired      = "excludeExpired"
	KeyIncludeRecurrences  = "includeRecurrences"
	KeyOverlapLenient      = "overlapLenient"
	KeyCategoryInclusive   = "categoryInclusive"
)

// DateLayout is the textual form accepted for timeStart and timeEnd.
const DateLayout = "2006-01-02 15:04:05"

// Query is a parsed selection request.
type Query struct {
	Resource     string
	ResourceType string
	// ResultLimit caps the result; negative means unlimited.
	ResultLimit    int
	SortDescending bool
	// TimeStart and TimeEnd bound the window in epoch milliseconds.
	TimeStart int64
	TimeEnd   int64

	// Property names; empty values fall back to the collector's schema.
	PropertyTimeStart   string
	PropertyTimeEnd     string
	PropertyCategories  string
	PropertyRecurrence  string
	PropertyDisplay     string
	PropertyTitle       string
	PropertyDescription string

	Categories     []string
	ExcludeFolders []string

	ExcludeExpired     bool
	IncludeRecurrences bool
	OverlapLenient     bool
	CategoryInclusive  bool
}

// DefaultQuery returns a query with every optional field at its default.
func DefaultQuery() Query {
	return Query{
		ResultLimit:        -1,
		TimeStart:          math.MinInt64,
		TimeEnd:            math.MaxInt64,
		IncludeRecurrences: true,
		OverlapLenient:     true,
		CategoryInclusive:  true,
	}
}

// Window returns the selection window.
func (q Query) Window() timerange.Range {
	return timerange.New(q.TimeStart, q.TimeEnd)
}

// CategorySpec returns the category filter of the query.
func (q Query) CategorySpec() category.Spec {
	mode := category.MatchAll
	if q.CategoryInclusive {
		mode = category.MatchAny
	}
	return category.Spec{Match: q.Categories, Mode: mode}
}

// ParseParams parses a pipe separated list of key=value pairs. Dates are read
// in loc (DefaultZone when nil). Malformed times and limits are logged and
// defaulted; malformed pairs and missing resource settings are errors.
func ParseParams(param string, loc *time.Location, logger *slog.Logger) (Query, error) {
	if loc == nil {
		loc = timerange.DefaultZone
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := DefaultQuery()
	for _, pair := range strings.Split(param, "|") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			return Query{}, invalidParams("malformed key=value pair %q", pair)
		}
		key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])

		switch key {
		case KeyResource:
			q.Resource = value
		case KeyResourceType:
			q.ResourceType = value
		case KeyResultLimit:
			n, err := strconv.Atoi(value)
			if err != nil {
				logger.Warn("invalid result limit, returning all results", "value", value, "error", err)
				n = -1
			}
			q.ResultLimit = n
		case KeySortDescending:
			q.SortDescending = parseBool(value)
		case KeyTimeStart:
			q.TimeStart = parseTime(key, value, loc, logger)
		case KeyTimeEnd:
			q.TimeEnd = parseTime(key, value, loc, logger)
		case KeyPropertyTimeStart:
			q.PropertyTimeStart = value
		case KeyPropertyTimeEnd:
			q.PropertyTimeEnd = value
		case KeyPropertyCategories:
			q.PropertyCategories = value
		case KeyPropertyRecurrence:
			q.PropertyRecurrence = value
		case KeyPropertyDisplay:
			q.PropertyDisplay = value
		case KeyPropertyTitle:
			q.PropertyTitle = value
		case KeyPropertyDescription:
			q.PropertyDescription = value
		case KeyCategories:
			q.Categories = splitList(value)
		case KeyExcludeFolders:
			q.ExcludeFolders = splitList(value)
		case KeyExcludeExpired:
			q.ExcludeExpired = parseBool(value)
		case KeyIncludeRecurrences:
			q.IncludeRecurrences = parseBool(value)
		case KeyOverlapLenient:
			q.OverlapLenient = parseBool(value)
		case KeyCategoryInclusive:
			q.CategoryInclusive = parseBool(value)
		}
	}

	if q.Resource == "" {
		return Query{}, invalidParams("missing %s", KeyResource)
	}
	if q.ResourceType == "" {
		return Query{}, invalidParams("missing %s", KeyResourceType)
	}
	return q, nil
}

// String encodes the query as a parameter string accepted by ParseParams.
func (q Query) String() string {
	var parts []string
	add := func(key, value string) {
		parts = append(parts, key+"="+value)
	}

	add(KeyResource, q.Resource)
	add(KeyResourceType, q.ResourceType)
	add(KeyResultLimit, strconv.Itoa(q.ResultLimit))
	add(KeySortDescending, strconv.FormatBool(q.SortDescending))
	add(KeyTimeStart, strconv.FormatInt(q.TimeStart, 10))
	add(KeyTimeEnd, strconv.FormatInt(q.TimeEnd, 10))

	for _, p := range []struct{ key, value string }{
		{KeyPropertyTimeStart, q.PropertyTimeStart},
		{KeyPropertyTimeEnd, q.PropertyTimeEnd},
		{KeyPropertyCategories, q.PropertyCategories},
		{KeyPropertyRecurrence, q.PropertyRecurrence},
		{KeyPropertyDisplay, q.PropertyDisplay},
		{KeyPropertyTitle, q.PropertyTitle},
		{KeyPropertyDescription, q.PropertyDescription},
	} {
		if p.value != "" {
			add(p.key, p.value)
		}
	}
	if len(q.Categories) > 0 {
		add(KeyCategories, strings.Join(q.Categories, ","))
	}
	if len(q.ExcludeFolders) > 0 {
		add(KeyExcludeFolders, strings.Join(q.ExcludeFolders, ","))
	}

	add(KeyExcludeExpired, strconv.FormatBool(q.ExcludeExpired))
	add(KeyIncludeRecurrences, strconv.FormatBool(q.IncludeRecurrences))
	add(KeyOverlapLenient, strconv.FormatBool(q.OverlapLenient))
	add(KeyCategoryInclusive, strconv.FormatBool(q.CategoryInclusive))

	return strings.Join(parts, "|")
}

func parseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// parseTime accepts DateLayout, integer milliseconds or decimal milliseconds,
// in that order. Anything else yields 0.
func parseTime(key, value string, loc *time.Location, logger *slog.Logger) int64 {
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t.UnixMilli()
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, ok := new(big.Float).SetPrec(256).SetString(value); ok && !f.IsInf() {
		n, _ := f.Int64()
		return n
	}
	logger.Error("invalid time value, using 0", "key", key, "value", value)
	return 0
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

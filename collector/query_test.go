package collector

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/cyp0633/libeventcal/category"
	"github.com/cyp0633/libeventcal/timerange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams_Defaults(t *testing.T) {
	q, err := ParseParams("resource=/events/|resourceType=np_event", nil, nil)
	require.NoError(t, err)

	want := DefaultQuery()
	want.Resource = "/events/"
	want.ResourceType = "np_event"
	assert.Equal(t, want, q)
	assert.Equal(t, int64(math.MinInt64), q.TimeStart)
	assert.Equal(t, int64(math.MaxInt64), q.TimeEnd)
	assert.Equal(t, -1, q.ResultLimit)
	assert.True(t, q.IncludeRecurrences)
	assert.True(t, q.OverlapLenient)
	assert.True(t, q.CategoryInclusive)
	assert.False(t, q.SortDescending)
	assert.False(t, q.ExcludeExpired)
}

func TestParseParams_AllKeys(t *testing.T) {
	param := " resource = /events/ | resourceType=np_event|resultLimit=5|sortDescending=True" +
		"|timeStart=2024-03-05 00:00:00|timeEnd=1711925999000" +
		"|propertyTimeStart=start|propertyTimeEnd=end|propertyCategories=tags" +
		"|propertyRecurrence=rrule|propertyDisplay=mode|propertyTitle=name|propertyDescription=body" +
		"|categories=topics/ice/, topics/ocean/,|excludeFolders=/events/old/" +
		"|excludeExpired=true|includeRecurrences=false|overlapLenient=no|categoryInclusive=false" +
		"|unknownKey=whatever||"

	q, err := ParseParams(param, timerange.DefaultZone, nil)
	require.NoError(t, err)

	assert.Equal(t, "/events/", q.Resource)
	assert.Equal(t, "np_event", q.ResourceType)
	assert.Equal(t, 5, q.ResultLimit)
	assert.True(t, q.SortDescending)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, timerange.DefaultZone).UnixMilli(), q.TimeStart)
	assert.Equal(t, int64(1711925999000), q.TimeEnd)
	assert.Equal(t, "start", q.PropertyTimeStart)
	assert.Equal(t, "end", q.PropertyTimeEnd)
	assert.Equal(t, "tags", q.PropertyCategories)
	assert.Equal(t, "rrule", q.PropertyRecurrence)
	assert.Equal(t, "mode", q.PropertyDisplay)
	assert.Equal(t, "name", q.PropertyTitle)
	assert.Equal(t, "body", q.PropertyDescription)
	assert.Equal(t, []string{"topics/ice/", "topics/ocean/"}, q.Categories)
	assert.Equal(t, []string{"/events/old/"}, q.ExcludeFolders)
	assert.True(t, q.ExcludeExpired)
	assert.False(t, q.IncludeRecurrences)
	assert.False(t, q.OverlapLenient)
	assert.False(t, q.CategoryInclusive)
	assert.Equal(t, category.Spec{Match: q.Categories, Mode: category.MatchAll}, q.CategorySpec())
}

func TestParseParams_TimeFormats(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	base := "resource=/r/|resourceType=t|timeStart="

	tests := []struct {
		value string
		want  int64
	}{
		{"2024-01-08 12:30:00", time.Date(2024, 1, 8, 12, 30, 0, 0, timerange.DefaultZone).UnixMilli()},
		{"1704672000000", 1704672000000},
		{"-86400000", -86400000},
		{"1704672000000.9", 1704672000000},
		{"1.7046720E12", 1704672000000},
		{"2024-01-08", 0},
		{"yesterday", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			q, err := ParseParams(base+tt.value, timerange.DefaultZone, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.TimeStart)
		})
	}
	assert.Contains(t, logs.String(), "invalid time value")
}

func TestParseParams_Location(t *testing.T) {
	q, err := ParseParams("resource=/r/|resourceType=t|timeStart=2024-01-08 00:00:00", time.UTC, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC).UnixMilli(), q.TimeStart)
}

func TestParseParams_Errors(t *testing.T) {
	tests := []struct {
		name  string
		param string
	}{
		{"empty", ""},
		{"missing resource", "resourceType=np_event"},
		{"missing type", "resource=/events/"},
		{"empty resource", "resource=|resourceType=np_event"},
		{"no equals", "resource=/events/|resourceType"},
		{"two equals", "resource=/events/|resourceType=a=b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams(tt.param, nil, nil)
			require.Error(t, err)
			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, ErrInvalidParams, cerr.Kind)
			assert.False(t, errors.Is(err, &Error{Kind: ErrUnknownResourceType}))
		})
	}
}

func TestQuery_StringRoundTrip(t *testing.T) {
	queries := []Query{
		NewBuilder("/events/", "np_event").Build(),
		NewBuilder("/events/", "np_event").
			Window(1709593200000, 1711925999000).
			Categories("topics/ice/", "topics/ocean/").
			ExcludeFolders("/events/old/").
			MatchAll(true).
			Descending(true).
			ExcludeExpired(true).
			Recurrences(false).
			Strict(true).
			Limit(20).
			Properties("start", "end", "tags").
			Build(),
	}
	for _, q := range queries {
		got, err := ParseParams(q.String(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, q, got)
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{Kind: ErrUnknownResourceType, Message: "np_news"}
	assert.True(t, errors.Is(err, &Error{Kind: ErrUnknownResourceType}))
	assert.True(t, errors.Is(err, &Error{Kind: ErrUnknownResourceType, Message: "np_news"}))
	assert.False(t, errors.Is(err, &Error{Kind: ErrUnknownResourceType, Message: "np_event"}))
	assert.False(t, errors.Is(err, &Error{Kind: ErrInvalidParams}))
	assert.Equal(t, "unknown_resource_type: np_news", err.Error())
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanFolder(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/", "/"},
		{"events", "/events/"},
		{"/events", "/events/"},
		{" /events/2024/ ", "/events/2024/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFolder(tt.in))
		})
	}
}

func TestIsUnder(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		folder string
		want   bool
	}{
		{"direct child", "/events/a.html", "/events/", true},
		{"nested", "/events/2024/a.html", "/events", true},
		{"folder itself", "/events", "/events/", true},
		{"sibling with common prefix", "/events-old/a.html", "/events/", false},
		{"root", "/anything", "/", true},
		{"outside", "/news/a.html", "/events/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnder(tt.path, tt.folder))
		})
	}
}

func TestParentFolder(t *testing.T) {
	got, err := ParentFolder("/events/2024/a.html")
	require.NoError(t, err)
	assert.Equal(t, "/events/2024/", got)

	got, err = ParentFolder("/events/2024/")
	require.NoError(t, err)
	assert.Equal(t, "/events/", got)

	_, err = ParentFolder("/")
	assert.Error(t, err)
	_, err = ParentFolder("relative")
	assert.Error(t, err)
}

func TestParentCategory(t *testing.T) {
	parent, ok := ParentCategory("topics/ice/sea/")
	assert.True(t, ok)
	assert.Equal(t, "topics/ice/", parent)

	parent, ok = ParentCategory("/topics/ice/")
	assert.True(t, ok)
	assert.Equal(t, "/topics/", parent)

	_, ok = ParentCategory("topics/")
	assert.False(t, ok)
}

func TestError(t *testing.T) {
	inner := &Error{Type: ErrNotFound, Message: "item not found"}
	assert.Equal(t, "not_found: item not found", inner.Error())

	wrapped := &Error{Type: ErrUnknownType, Message: "bad type", Err: assert.AnError}
	assert.Contains(t, wrapped.Error(), assert.AnError.Error())
	assert.ErrorIs(t, wrapped, assert.AnError)

	assert.True(t, IsErrorType(wrapped, ErrUnknownType))
	assert.False(t, IsErrorType(wrapped, ErrNotFound))
	assert.False(t, IsErrorType(assert.AnError, ErrNotFound))
}

func TestFlags(t *testing.T) {
	f := FlagTemporary
	assert.True(t, f.Has(FlagTemporary))
	assert.False(t, Flags(0).Has(FlagTemporary))
}

func TestSchemaWithDefaults(t *testing.T) {
	s := Schema{PropertyTimeStart: "start"}.WithDefaults()
	assert.Equal(t, "start", s.PropertyTimeStart)
	assert.Equal(t, DefaultSchema().PropertyTimeEnd, s.PropertyTimeEnd)
	assert.Equal(t, "np_event", s.ResourceType)
}

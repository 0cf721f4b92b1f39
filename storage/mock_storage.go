package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"
)

// MockRepository implements the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

// ResolveType implements the Repository interface
func (m *MockRepository) ResolveType(ctx context.Context, name string) (TypeID, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(TypeID), args.Error(1)
}

// FetchCandidates implements the Repository interface
func (m *MockRepository) FetchCandidates(ctx context.Context, root string, typ TypeID) ([]Item, error) {
	args := m.Called(ctx, root, typ)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Item), args.Error(1)
}

// ReadProperty implements the Repository interface
func (m *MockRepository) ReadProperty(ctx context.Context, item Item, name string) (mo.Option[string], error) {
	args := m.Called(ctx, item, name)
	if fn, ok := args.Get(0).(func(context.Context, Item, string) mo.Option[string]); ok {
		return fn(ctx, item, name), args.Error(1)
	}
	return args.Get(0).(mo.Option[string]), args.Error(1)
}

// ReadCategories implements the Repository interface
func (m *MockRepository) ReadCategories(ctx context.Context, item Item) ([]string, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// ResolveItemPath implements the Repository interface
func (m *MockRepository) ResolveItemPath(ctx context.Context, item Item) (string, error) {
	args := m.Called(ctx, item)
	return args.String(0), args.Error(1)
}

// ResolveCategoryParent implements the Repository interface
func (m *MockRepository) ResolveCategoryParent(ctx context.Context, path string) (mo.Option[string], error) {
	args := m.Called(ctx, path)
	return args.Get(0).(mo.Option[string]), args.Error(1)
}

// --- Helper methods for creating test data ---

// NewMockItem creates a test Item with the given properties
func NewMockItem(path string, typ TypeID, props map[string]string) Item {
	return Item{
		Path:        path,
		ResourceID:  uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)),
		StructureID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(path)),
		TypeID:      typ,
		Properties:  props,
	}
}

// ServeItemProperties makes ReadProperty answer from each item's own
// Properties map
func (m *MockRepository) ServeItemProperties() *mock.Call {
	return m.On("ReadProperty", mock.Anything, mock.Anything, mock.AnythingOfType("string")).
		Return(func(_ context.Context, it Item, name string) mo.Option[string] {
			return it.Property(name)
		}, nil)
}

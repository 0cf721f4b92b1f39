package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Repository connects the event collector with the host's content store. It is
// read-only; implementations should return the error types provided.
type Repository interface {
	// ResolveType maps a resource type name to its identifier.
	// Unknown names must yield an *Error of type ErrUnknownType.
	ResolveType(ctx context.Context, name string) (TypeID, error)
	// FetchCandidates returns every item below root with the given type,
	// excluding temporary/draft items.
	FetchCandidates(ctx context.Context, root string, typ TypeID) ([]Item, error)
	// ReadProperty reads a named property of an item. Absent properties are None.
	ReadProperty(ctx context.Context, item Item, name string) (mo.Option[string], error)
	// ReadCategories returns the category paths assigned to an item.
	ReadCategories(ctx context.Context, item Item) ([]string, error)
	// ResolveItemPath returns the repository path of an item.
	ResolveItemPath(ctx context.Context, item Item) (string, error)
	// ResolveCategoryParent returns the parent category path; None for roots.
	ResolveCategoryParent(ctx context.Context, path string) (mo.Option[string], error)
}

// TypeID identifies a resource type within a repository.
type TypeID int

// Flags are item state bits.
type Flags uint32

const (
	// FlagTemporary marks draft or temporary items that are never selected.
	FlagTemporary Flags = 1 << iota
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Item is a handle to a repository node.
type Item struct {
	// Path is the repository path, e.g. "/sites/default/events/2024/conf.html".
	Path string
	// ResourceID identifies the content; StructureID identifies the tree node.
	ResourceID  uuid.UUID
	StructureID uuid.UUID
	TypeID      TypeID
	Flags       Flags
	// Properties holds the item's string properties.
	Properties map[string]string
	// Categories holds assigned category paths.
	Categories []string
}

// Property returns a stored property as an option.
func (it Item) Property(name string) mo.Option[string] {
	if v, ok := it.Properties[name]; ok {
		return mo.Some(v)
	}
	return mo.None[string]()
}

var (
	// ErrRepositoryUnavailable is returned when the backend cannot be reached
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)

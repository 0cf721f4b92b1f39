// memory based implementation for testing and command line use
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/cyp0633/libeventcal/storage"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Store implements storage.Repository using in-memory maps
type Store struct {
	mu         sync.RWMutex
	types      map[string]storage.TypeID
	items      map[string]*storage.Item // key: path
	categories map[string]string        // key: category path, value: parent ("" for roots)
	nextType   storage.TypeID
}

// New creates a new in-memory repository
func New() *Store {
	return &Store{
		types:      make(map[string]storage.TypeID),
		items:      make(map[string]*storage.Item),
		categories: make(map[string]string),
		nextType:   1,
	}
}

// Type operations

// RegisterType returns the id of name, registering it when new.
func (s *Store) RegisterType(name string) storage.TypeID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.types[name]; ok {
		return id
	}
	id := s.nextType
	s.nextType++
	s.types[name] = id
	return id
}

func (s *Store) ResolveType(_ context.Context, name string) (storage.TypeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.types[name]
	if !ok {
		return 0, &storage.Error{
			Type:    storage.ErrUnknownType,
			Message: "unknown resource type " + name,
		}
	}
	return id, nil
}

// Item operations

// Put stores an item, replacing any item at the same path. Missing
// identifiers are derived from the path.
func (s *Store) Put(_ context.Context, item storage.Item) error {
	if !strings.HasPrefix(item.Path, "/") {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "item path must be absolute",
		}
	}
	if item.ResourceID == uuid.Nil {
		item.ResourceID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(item.Path))
	}
	if item.StructureID == uuid.Nil {
		item.StructureID = uuid.NewSHA1(item.ResourceID, []byte(item.Path))
	}
	item.Properties = maps.Clone(item.Properties)
	item.Categories = slices.Clone(item.Categories)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.Path] = &item
	return nil
}

func (s *Store) Get(_ context.Context, path string) (storage.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[path]
	if !ok {
		return storage.Item{}, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "item not found",
		}
	}
	return *item, nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[path]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "item not found",
		}
	}
	delete(s.items, path)
	return nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) FetchCandidates(_ context.Context, root string, typ storage.TypeID) ([]storage.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []storage.Item
	for path, item := range s.items {
		if item.TypeID != typ || item.Flags.Has(storage.FlagTemporary) {
			continue
		}
		if !storage.IsUnder(path, root) {
			continue
		}
		items = append(items, *item)
	}
	slices.SortFunc(items, func(a, b storage.Item) int {
		return strings.Compare(a.Path, b.Path)
	})

	return items, nil
}

func (s *Store) ReadProperty(_ context.Context, item storage.Item, name string) (mo.Option[string], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.items[item.Path]
	if !ok {
		return mo.None[string](), &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "item not found",
		}
	}
	return stored.Property(name), nil
}

func (s *Store) ReadCategories(_ context.Context, item storage.Item) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.items[item.Path]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "item not found",
		}
	}
	return slices.Clone(stored.Categories), nil
}

func (s *Store) ResolveItemPath(_ context.Context, item storage.Item) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.items[item.Path]; ok {
		return item.Path, nil
	}
	for path, stored := range s.items {
		if stored.StructureID == item.StructureID {
			return path, nil
		}
	}
	return "", &storage.Error{
		Type:    storage.ErrNotFound,
		Message: "item not found",
	}
}

// Category operations

// AddCategory registers a category. An empty parent is derived from the path.
func (s *Store) AddCategory(path, parent string) {
	if parent == "" {
		parent, _ = storage.ParentCategory(path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[path] = parent
}

func (s *Store) ResolveCategoryParent(_ context.Context, path string) (mo.Option[string], error) {
	s.mu.RLock()
	parent, known := s.categories[path]
	s.mu.RUnlock()

	if !known {
		parent, _ = storage.ParentCategory(path)
	}
	if parent == "" {
		return mo.None[string](), nil
	}
	return mo.Some(parent), nil
}

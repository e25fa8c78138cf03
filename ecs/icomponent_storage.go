package ecs

import "iter"

// ComponentStore is the contract the EntityManager relies on for every component kind.
// Erase removes the component held for a slot index. Erasing an empty slot is a no-op.
type ComponentStore interface {
	Erase(index uint32)
}

// ComponentReader is implemented by stores that can hand out a type-erased
// pointer to a slot's component, or nil when the slot is empty.
type ComponentReader interface {
	Get(index uint32) any
}

// TypedStore is the full interface of a store holding components of type T.
type TypedStore[T any] interface {
	ComponentStore
	ComponentReader
	Set(index uint32, value T) *T
	Lookup(index uint32) *T
	Has(index uint32) bool
	Len() int
	Iter() iter.Seq[uint32]
}

// StoreRegistry holds the component stores of one world, one per component kind.
// Stores are created from the ComponentRegistry on first use unless one was
// registered explicitly for that kind.
type StoreRegistry struct {
	components *ComponentRegistry
	stores     [MaxComponentKinds]ComponentStore
}

// NewStoreRegistry creates a store registry backed by the given component registry.
func NewStoreRegistry(components *ComponentRegistry) *StoreRegistry {
	if components == nil {
		components = NewComponentRegistry()
	}
	return &StoreRegistry{components: components}
}

// Components returns the component registry the stores are keyed by.
func (s *StoreRegistry) Components() *ComponentRegistry {
	return s.components
}

// Register installs store as the storage for kind, replacing any previous store.
func (s *StoreRegistry) Register(kind ComponentKind, store ComponentStore) {
	s.stores[kind] = store
}

// Store returns the store for kind, creating the default one if the kind is
// registered and no store exists yet. It returns nil for unknown kinds.
func (s *StoreRegistry) Store(kind ComponentKind) ComponentStore {
	if store := s.stores[kind]; store != nil {
		return store
	}
	factory := s.components.getFactory(kind)
	if factory == nil {
		return nil
	}
	s.stores[kind] = factory()
	return s.stores[kind]
}

// erase tells the store of every kind set in mask to drop the component at index.
func (s *StoreRegistry) erase(mask ComponentMask, index uint32) {
	for kind := range mask.Kinds() {
		if store := s.stores[kind]; store != nil {
			store.Erase(index)
		}
	}
}

// typedStore returns the TypedStore for T, panicking if T was never registered
// or if the store installed for its kind holds a different type.
func typedStore[T any](s *StoreRegistry) (ComponentKind, TypedStore[T]) {
	kind := KindOf[T](s.components)
	store, ok := s.Store(kind).(TypedStore[T])
	if !ok {
		panic("ecs: store for component type " + s.components.Type(kind).String() + " does not hold that type")
	}
	return kind, store
}

package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// ComponentRegistry assigns a ComponentKind to each component type.
// It is built once at startup and shared by reference; several worlds may use
// the same registry, each with its own StoreRegistry.
type ComponentRegistry struct {
	kinds     map[reflect.Type]ComponentKind
	types     []reflect.Type
	factories []func() ComponentStore
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		kinds: make(map[reflect.Type]ComponentKind),
	}
}

// RegisterComponent registers a component type with the given registry and returns its kind.
// Registering the same type twice returns the kind it already has.
func RegisterComponent[T any](r *ComponentRegistry) ComponentKind {
	t := reflect.TypeFor[T]()
	if kind, ok := r.kinds[t]; ok {
		return kind
	}
	if len(r.types) >= MaxComponentKinds {
		panic("ecs: too many component kinds")
	}

	kind := ComponentKind(len(r.types))
	r.kinds[t] = kind
	r.types = append(r.types, t)
	r.factories = append(r.factories, func() ComponentStore {
		return newGenericComponentStorage[T]()
	})
	return kind
}

// KindOf returns the kind registered for T. It panics if T is not registered.
func KindOf[T any](r *ComponentRegistry) ComponentKind {
	t := reflect.TypeFor[T]()
	kind, ok := r.kinds[t]
	if !ok {
		panic("ecs: component type " + t.String() + " not registered")
	}
	return kind
}

// Kind returns the kind registered for t.
func (r *ComponentRegistry) Kind(t reflect.Type) (ComponentKind, bool) {
	kind, ok := r.kinds[t]
	return kind, ok
}

// Type returns the component type registered for kind, or nil.
func (r *ComponentRegistry) Type(kind ComponentKind) reflect.Type {
	if int(kind) >= len(r.types) {
		return nil
	}
	return r.types[kind]
}

// Len returns the number of registered component kinds.
func (r *ComponentRegistry) Len() int {
	return len(r.types)
}

// getFactory returns the store factory for kind.
// Returns nil if the kind is not registered.
func (r *ComponentRegistry) getFactory(kind ComponentKind) func() ComponentStore {
	if int(kind) >= len(r.factories) {
		return nil
	}
	return r.factories[kind]
}

const (
	genericBlockSize = 64
)

// genericComponentStorage is the default TypedStore.
// It stores components of a specific type `T` in blocks addressed by slot index.
type genericComponentStorage[T any] struct {
	blocks [][genericBlockSize]T
	filled [][genericBlockSize]bool
	count  int
}

func newGenericComponentStorage[T any]() *genericComponentStorage[T] {
	return &genericComponentStorage[T]{}
}

// Set stores value at index, growing the block list as needed, and returns a pointer to it.
func (cs *genericComponentStorage[T]) Set(index uint32, value T) *T {
	blockIdx := int(index / genericBlockSize)
	slotIdx := index % genericBlockSize

	for blockIdx >= len(cs.blocks) {
		cs.blocks = append(cs.blocks, [genericBlockSize]T{})
		cs.filled = append(cs.filled, [genericBlockSize]bool{})
	}

	if !cs.filled[blockIdx][slotIdx] {
		cs.filled[blockIdx][slotIdx] = true
		cs.count++
	}
	cs.blocks[blockIdx][slotIdx] = value
	return &cs.blocks[blockIdx][slotIdx]
}

func (cs *genericComponentStorage[T]) setFrom(index uint32, src unsafe.Pointer) {
	cs.Set(index, *(*T)(src))
}

// Lookup returns a pointer to the component at index, or nil.
func (cs *genericComponentStorage[T]) Lookup(index uint32) *T {
	blockIdx := int(index / genericBlockSize)
	slotIdx := index % genericBlockSize

	if blockIdx >= len(cs.blocks) || !cs.filled[blockIdx][slotIdx] {
		return nil
	}
	return &cs.blocks[blockIdx][slotIdx]
}

// Get returns the component at index as a *T inside an interface, or nil.
func (cs *genericComponentStorage[T]) Get(index uint32) any {
	if ptr := cs.Lookup(index); ptr != nil {
		return ptr
	}
	return nil
}

// Erase marks a component slot as empty and zeroes the value.
func (cs *genericComponentStorage[T]) Erase(index uint32) {
	blockIdx := int(index / genericBlockSize)
	slotIdx := index % genericBlockSize

	if blockIdx >= len(cs.blocks) {
		return
	}

	if cs.filled[blockIdx][slotIdx] {
		cs.filled[blockIdx][slotIdx] = false
		var zero T
		cs.blocks[blockIdx][slotIdx] = zero
		cs.count--
	}
}

// Has checks if a component exists at the given index.
func (cs *genericComponentStorage[T]) Has(index uint32) bool {
	blockIdx := int(index / genericBlockSize)
	slotIdx := index % genericBlockSize

	if blockIdx >= len(cs.blocks) {
		return false
	}

	return cs.filled[blockIdx][slotIdx]
}

// Len returns the number of stored components.
func (cs *genericComponentStorage[T]) Len() int {
	return cs.count
}

// Iter yields the indices of filled slots in ascending order.
func (cs *genericComponentStorage[T]) Iter() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for blockIdx := range cs.filled {
			for slotIdx, filled := range cs.filled[blockIdx] {
				if !filled {
					continue
				}
				if !yield(uint32(blockIdx*genericBlockSize + slotIdx)) {
					return
				}
			}
		}
	}
}

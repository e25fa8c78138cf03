package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View reads the components named by T for individual entities without
// keeping any cache. Use it for random access by handle; use Query when the
// same set of entities is iterated every frame.
//
// T follows the same rules as for Query: pointer fields to registered
// component types, embedded fields required, named fields optional with the
// `ecs:"optional"` tag, and Entity fields receiving the handle.
type View[T any] struct {
	manager *EntityManager
	mask    ComponentMask
	fields  []queryField
}

// componentWriter is implemented by stores that can copy a component from raw memory.
type componentWriter interface {
	setFrom(index uint32, src unsafe.Pointer)
}

// NewView creates a new view for the given struct type.
func NewView[T any](manager *EntityManager) *View[T] {
	mask, fields := buildQueryFields(reflect.TypeFor[T](), manager.stores)
	return &View[T]{
		manager: manager,
		mask:    mask,
		fields:  fields,
	}
}

// Fill populates ptr with the components of e.
// Returns false if e is invalid or lacks a required component.
func (v *View[T]) Fill(e Entity, ptr *T) bool {
	if e.manager != v.manager || !e.Valid() {
		return false
	}
	if !v.manager.slots.masks[e.id.Index()].Contains(v.mask) {
		return false
	}
	fillFields(v.fields, unsafe.Pointer(ptr), e)
	return true
}

// Get returns a populated view struct for e, or nil if Fill would fail.
func (v *View[T]) Get(e Entity) *T {
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// Iter scans every live entity and yields those holding the required components.
func (v *View[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		var result T
		resultPtr := unsafe.Pointer(&result)

		for e := range v.manager.Entities() {
			if !v.manager.slots.masks[e.id.Index()].Contains(v.mask) {
				continue
			}
			fillFields(v.fields, resultPtr, e)
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates an entity and assigns a copy of every non-nil component field of data.
// Entity fields are ignored. It panics if a required field is nil.
func (v *View[T]) Spawn(data T) Entity {
	structPtr := unsafe.Pointer(&data)

	for _, f := range v.fields {
		if f.entity || f.optional {
			continue
		}
		if *(*unsafe.Pointer)(unsafe.Add(structPtr, f.offset)) == nil {
			panic("ecs: required component is nil in View.Spawn")
		}
	}

	e := v.manager.CreateEntity()
	index := e.id.Index()
	mask := ComponentMask{}
	for _, f := range v.fields {
		if f.entity {
			continue
		}
		src := *(*unsafe.Pointer)(unsafe.Add(structPtr, f.offset))
		if src == nil {
			continue
		}
		writer, ok := v.manager.stores.Store(f.kind).(componentWriter)
		if !ok {
			panic("ecs: store for component type " + v.manager.stores.components.Type(f.kind).String() + " cannot be written by a View")
		}
		writer.setFrom(index, src)
		mask.Set(f.kind)
	}
	v.manager.setMask(index, mask)
	return e
}

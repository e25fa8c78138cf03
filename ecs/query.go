package ecs

import (
	"iter"
	"reflect"
	"unsafe"

	"github.com/kamstrup/intmap"
)

var entityType = reflect.TypeFor[Entity]()

// Query is a derived cache of the entities holding every component named by T.
//
// T must be a struct whose fields are pointers to registered component types.
// Embedded fields are always required; named fields can be marked optional with
// the `ecs:"optional"` struct tag and are nil when the entity lacks them.
// A field of type Entity receives the handle of the current entity.
//
// The query registers itself with the manager's CacheRegistry and keeps its
// membership up to date as components are assigned, removed and finalized.
// Structural changes made while iterating should go through Commands.
type Query[T any] struct {
	manager *EntityManager
	mask    ComponentMask
	fields  []queryField

	members *intmap.Map[uint32, int]
	indices []uint32
}

type queryField struct {
	offset   uintptr
	kind     ComponentKind
	reader   ComponentReader
	optional bool
	entity   bool
}

// NewQuery creates a Query bound to the given manager.
func NewQuery[T any](manager *EntityManager) *Query[T] {
	q := &Query[T]{}
	q.Init(manager)
	return q
}

// Init binds the query to a manager and fills it with the entities that already match.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(manager *EntityManager) {
	if q.manager != nil {
		q.manager.caches.Unregister(q)
	}

	q.manager = manager
	q.mask, q.fields = buildQueryFields(reflect.TypeFor[T](), manager.stores)
	q.members = intmap.New[uint32, int](64)
	q.indices = q.indices[:0]

	manager.caches.Register(q.mask, q)
	for e := range manager.Entities() {
		if manager.slots.masks[e.id.Index()].Contains(q.mask) {
			q.Insert(e.id.Index())
		}
	}
}

func buildQueryFields(structType reflect.Type, stores *StoreRegistry) (ComponentMask, []queryField) {
	if structType.Kind() != reflect.Struct {
		panic("ecs: Query type parameter must be a struct")
	}

	var mask ComponentMask
	fields := make([]queryField, 0, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type == entityType {
			fields = append(fields, queryField{offset: field.Offset, entity: true})
			continue
		}

		if field.Type.Kind() != reflect.Ptr {
			panic("ecs: Query struct fields must be pointer types or Entity")
		}

		componentType := field.Type.Elem()
		kind, ok := stores.components.Kind(componentType)
		if !ok {
			panic("ecs: component type " + componentType.String() + " not registered")
		}

		reader, ok := stores.Store(kind).(ComponentReader)
		if !ok {
			panic("ecs: store for component type " + componentType.String() + " cannot be read by a Query")
		}

		// Embedded fields are always required
		optional := false
		if !field.Anonymous {
			if tag := field.Tag.Get("ecs"); tag != "" {
				if tag != "optional" {
					panic("ecs: invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
				optional = true
			}
		}
		if !optional {
			mask.Set(kind)
		}

		fields = append(fields, queryField{
			offset:   field.Offset,
			kind:     kind,
			reader:   reader,
			optional: optional,
		})
	}

	return mask, fields
}

// Mask returns the component kinds an entity must hold to match the query.
func (q *Query[T]) Mask() ComponentMask {
	return q.mask
}

// Len returns the number of matching entities.
func (q *Query[T]) Len() int {
	return len(q.indices)
}

// Contains reports whether e is currently cached by the query.
func (q *Query[T]) Contains(e Entity) bool {
	if e.manager != q.manager || !e.Valid() {
		return false
	}
	_, ok := q.members.Get(e.id.Index())
	return ok
}

// Insert adds a slot index to the query. Inserting a cached index is a no-op.
func (q *Query[T]) Insert(index uint32) {
	if _, ok := q.members.Get(index); ok {
		return
	}
	q.members.Put(index, len(q.indices))
	q.indices = append(q.indices, index)
}

// Erase drops a slot index from the query. Erasing an unknown index is a no-op.
func (q *Query[T]) Erase(index uint32) {
	pos, ok := q.members.Get(index)
	if !ok {
		return
	}

	last := len(q.indices) - 1
	if pos != last {
		moved := q.indices[last]
		q.indices[pos] = moved
		q.members.Put(moved, pos)
	}
	q.indices = q.indices[:last]
	q.members.Del(index)
}

// Close unregisters the query from its manager.
func (q *Query[T]) Close() {
	if q.manager != nil {
		q.manager.caches.Unregister(q)
	}
}

// fillFields points every field of the struct at resultPtr to e's components.
func fillFields(fields []queryField, resultPtr unsafe.Pointer, e Entity) {
	index := e.id.Index()
	for _, f := range fields {
		fieldPtr := unsafe.Add(resultPtr, f.offset)

		if f.entity {
			*(*Entity)(fieldPtr) = e
			continue
		}

		component := f.reader.Get(index)
		if component == nil {
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}
		*(*unsafe.Pointer)(fieldPtr) = reflect.ValueOf(component).UnsafePointer()
	}
}

// Iter returns an iterator over matching entities and their component data.
func (q *Query[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		var result T
		resultPtr := unsafe.Pointer(&result)

		for _, index := range q.indices {
			e := Entity{manager: q.manager, id: NewEntityId(index, q.manager.slots.generations[index])}
			fillFields(q.fields, resultPtr, e)
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range q.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}

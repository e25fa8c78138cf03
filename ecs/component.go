package ecs

// Attach marks kind as present on the entity without touching any store.
// It is meant for stores managed by the caller; Assign covers the common case.
func (m *EntityManager) Attach(id EntityId, kind ComponentKind) {
	m.checkValid(id, "Attach")
	index := id.Index()
	mask := m.slots.masks[index]
	mask.Set(kind)
	m.setMask(index, mask)
}

// Detach erases the entity's component of the given kind and clears its bit.
func (m *EntityManager) Detach(id EntityId, kind ComponentKind) {
	m.checkValid(id, "Detach")
	index := id.Index()
	mask := m.slots.masks[index]
	if !mask.Has(kind) {
		return
	}
	if store := m.stores.Store(kind); store != nil {
		store.Erase(index)
	}
	mask.Unset(kind)
	m.setMask(index, mask)
}

// Assign stores value as the T component of e, replacing any previous value,
// and returns a pointer into the store. The pointer stays valid until the
// component is removed or the entity is finalized.
func Assign[T any](e Entity, value T) *T {
	if debugAssertions && !e.Valid() {
		panic("ecs: cannot assign a component to an invalid entity")
	}
	m := e.manager
	kind, store := typedStore[T](m.stores)
	index := e.id.Index()

	ptr := store.Set(index, value)
	mask := m.slots.masks[index]
	mask.Set(kind)
	m.setMask(index, mask)
	return ptr
}

// Get returns the T component of e, or nil if it has none.
func Get[T any](e Entity) *T {
	if debugAssertions && !e.Valid() {
		panic("ecs: cannot read a component of an invalid entity")
	}
	_, store := typedStore[T](e.manager.stores)
	return store.Lookup(e.id.Index())
}

// Has reports whether e has a T component.
func Has[T any](e Entity) bool {
	if debugAssertions && !e.Valid() {
		panic("ecs: cannot check a component of an invalid entity")
	}
	kind := KindOf[T](e.manager.stores.components)
	return e.manager.slots.masks[e.id.Index()].Has(kind)
}

// Remove erases the T component of e and reports whether it had one.
func Remove[T any](e Entity) bool {
	if debugAssertions && !e.Valid() {
		panic("ecs: cannot remove a component from an invalid entity")
	}
	kind := KindOf[T](e.manager.stores.components)
	if !e.manager.slots.masks[e.id.Index()].Has(kind) {
		return false
	}
	e.manager.Detach(e.id, kind)
	return true
}

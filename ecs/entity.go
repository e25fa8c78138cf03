package ecs

import "strconv"

// EntityId encodes both the slot generation (upper 32 bits) and the slot index (lower 32 bits).
// Generation 0 is never issued, so the zero EntityId never refers to a live entity.
type EntityId uint64

// NewEntityId creates an EntityId from a slot index and generation
func NewEntityId(index uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the slot generation from the entity ID
func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

func (e EntityId) String() string {
	return strconv.FormatUint(uint64(e.Index()), 10) + "v" + strconv.FormatUint(uint64(e.Generation()), 10)
}

// Entity is a handle to an entity issued by an EntityManager.
// It is a plain value; validity is always answered by the manager that issued it.
type Entity struct {
	manager *EntityManager
	id      EntityId
}

// Id returns the packed slot index and generation of the entity.
func (e Entity) Id() EntityId {
	return e.id
}

// Manager returns the manager that issued the handle, or nil for the zero Entity.
func (e Entity) Manager() *EntityManager {
	return e.manager
}

// Valid reports whether the handle still refers to a live slot.
// The zero Entity is never valid.
func (e Entity) Valid() bool {
	return e.manager != nil && e.manager.ValidId(e.id)
}

// PendingDelete reports whether the entity is queued for destruction at the next Update.
func (e Entity) PendingDelete() bool {
	if debugAssertions && !e.Valid() {
		panic("ecs: cannot check if an invalid entity is waiting for deletion")
	}
	return e.manager.PendingDelete(e.id)
}

// Destroy queues the entity for destruction at the next Update.
func (e Entity) Destroy() {
	if debugAssertions && !e.Valid() {
		panic("ecs: cannot destroy an invalid entity")
	}
	e.manager.Destroy(e.id)
}

// ComponentMask returns the set of component kinds attached to the entity.
func (e Entity) ComponentMask() ComponentMask {
	if debugAssertions && !e.Valid() {
		panic("ecs: cannot get the component mask for an invalid entity")
	}
	return e.manager.ComponentMaskFor(e.id)
}

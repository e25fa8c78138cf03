package ecs

import (
	"iter"
	"reflect"

	"go.uber.org/zap"
)

// EntityManager issues entity handles, tracks the component kinds attached to
// each entity and defers destruction until Update.
//
// The manager expects a single writer: CreateEntity, Destroy, Update and
// component mutations must not run concurrently with any other call. Read-only
// calls (ValidId, ComponentMaskFor, PendingDelete and the counts) may run
// concurrently with each other.
type EntityManager struct {
	slots      *slotTable
	pending    *pendingSet
	stores     *StoreRegistry
	caches     *CacheRegistry
	singletons map[reflect.Type]any
	logger     *zap.Logger

	released []uint32 // scratch for Update
}

type managerOptions struct {
	logger          *zap.Logger
	initialCapacity int
}

// Option configures an EntityManager.
type Option func(*managerOptions)

// WithLogger sets the logger used for finalize and slot retirement events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithInitialCapacity preallocates room for n slots.
func WithInitialCapacity(n int) Option {
	return func(o *managerOptions) {
		o.initialCapacity = n
	}
}

// NewEntityManager creates a manager that notifies the given stores and caches
// when entities are finalized. The manager does not own them; nil arguments
// are replaced with empty registries.
func NewEntityManager(stores *StoreRegistry, caches *CacheRegistry, opts ...Option) *EntityManager {
	options := managerOptions{
		logger:          zap.NewNop(),
		initialCapacity: 256,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}

	if stores == nil {
		stores = NewStoreRegistry(nil)
	}
	if caches == nil {
		caches = NewCacheRegistry()
	}

	return &EntityManager{
		slots:      newSlotTable(max(options.initialCapacity, 0)),
		pending:    newPendingSet(max(options.initialCapacity/4, 16)),
		stores:     stores,
		caches:     caches,
		singletons: make(map[reflect.Type]any),
		logger:     options.logger,
	}
}

// Stores returns the component stores the manager erases from.
func (m *EntityManager) Stores() *StoreRegistry {
	return m.stores
}

// Caches returns the derived caches the manager keeps consistent.
func (m *EntityManager) Caches() *CacheRegistry {
	return m.caches
}

// CreateEntity returns a new valid entity with an empty component mask.
// Freed slots are reused oldest first.
func (m *EntityManager) CreateEntity() Entity {
	id := m.slots.allocate()
	m.caches.created(id.Index())
	return Entity{manager: m, id: id}
}

// Entity wraps id in a handle bound to this manager. The handle is not checked for validity.
func (m *EntityManager) Entity(id EntityId) Entity {
	return Entity{manager: m, id: id}
}

// Size returns the number of live entities, including those pending destruction.
func (m *EntityManager) Size() int {
	return m.slots.capacity() - m.slots.free.len() - m.slots.retired
}

// Capacity returns the number of slots ever allocated.
func (m *EntityManager) Capacity() int {
	return m.slots.capacity()
}

// ReusableEntities returns the number of free slots waiting to be reused.
func (m *EntityManager) ReusableEntities() int {
	return m.slots.free.len()
}

// EntitiesToDestroy returns the number of entities queued for the next Update.
func (m *EntityManager) EntitiesToDestroy() int {
	return m.pending.len()
}

// RetiredSlots returns the number of slots taken out of circulation because
// their generation counter was exhausted.
func (m *EntityManager) RetiredSlots() int {
	return m.slots.retired
}

// ValidId reports whether id refers to a live slot of this manager.
func (m *EntityManager) ValidId(id EntityId) bool {
	return m.slots.valid(id)
}

// Destroy queues the entity for destruction at the next Update.
// Queuing the same entity twice is a no-op.
func (m *EntityManager) Destroy(id EntityId) {
	m.checkValid(id, "Destroy")
	m.pending.add(id.Index())
}

// PendingDelete reports whether the entity is queued for destruction.
func (m *EntityManager) PendingDelete(id EntityId) bool {
	m.checkValid(id, "PendingDelete")
	return m.pending.has(id.Index())
}

// ComponentMaskFor returns the component kinds attached to the entity.
func (m *EntityManager) ComponentMaskFor(id EntityId) ComponentMask {
	m.checkValid(id, "ComponentMaskFor")
	return m.slots.masks[id.Index()]
}

// Update finalizes every queued destruction and returns how many entities it
// finalized. For each queued slot it erases the slot from the stores of its
// component kinds and from the caches whose mask it satisfied, clears its mask,
// bumps its generation and returns it to the free list. Handles to the
// destroyed entities stop being valid.
//
// Freed slots only become reusable once the pass is over, so an entity created
// by an erase callback never lands on a slot that is still queued. Counts are
// settled when Update returns.
func (m *EntityManager) Update() int {
	if m.pending.len() == 0 {
		return 0
	}

	// Erase callbacks may queue further destructions; those are finalized in this pass too.
	released := m.released[:0]
	for i := 0; i < len(m.pending.order); i++ {
		index := m.pending.order[i]
		mask := m.slots.masks[index]

		m.stores.erase(mask, index)
		m.caches.erase(mask, index)

		if m.slots.release(index) {
			m.logger.Warn("entity slot retired",
				zap.Uint32("index", index),
				zap.Int("retired", m.slots.retired))
			continue
		}
		released = append(released, index)
	}

	count := m.pending.len()
	m.pending.clear()
	m.slots.recycle(released)
	m.released = released[:0]

	m.logger.Debug("finalized entities",
		zap.Int("count", count),
		zap.Int("capacity", m.slots.capacity()),
		zap.Int("reusable", m.slots.free.len()))
	return count
}

// Entities iterates the live entities in slot order, including those pending destruction.
func (m *EntityManager) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for index, alive := range m.slots.alive {
			if !alive {
				continue
			}
			id := NewEntityId(uint32(index), m.slots.generations[index])
			if !yield(Entity{manager: m, id: id}) {
				return
			}
		}
	}
}

// setMask replaces the mask of a live slot and tells the caches about the change.
func (m *EntityManager) setMask(index uint32, mask ComponentMask) {
	before := m.slots.masks[index]
	if before == mask {
		return
	}
	m.slots.masks[index] = mask
	m.caches.transition(index, before, mask)
}

func (m *EntityManager) checkValid(id EntityId, op string) {
	if debugAssertions && !m.slots.valid(id) {
		panic("ecs: " + op + " called with invalid entity " + id.String())
	}
}

package ecs_test

import "github.com/plus3/genecs/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

type AI struct {
	State int
}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

type Inventory struct {
	Items []string
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Name](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[PlayerController](registry)
	ecs.RegisterComponent[AI](registry)
	ecs.RegisterComponent[Score](registry)
	ecs.RegisterComponent[Tag](registry)
	ecs.RegisterComponent[Inventory](registry)
	return registry
}

func newTestManager() *ecs.EntityManager {
	return ecs.NewEntityManager(ecs.NewStoreRegistry(newTestRegistry()), ecs.NewCacheRegistry())
}

// spawn creates an entity and assigns each component through its typed setter.
func spawn(m *ecs.EntityManager, setters ...func(ecs.Entity)) ecs.Entity {
	e := m.CreateEntity()
	for _, set := range setters {
		set(e)
	}
	return e
}

func with[T any](value T) func(ecs.Entity) {
	return func(e ecs.Entity) {
		ecs.Assign(e, value)
	}
}

// recordingCache counts Erase and Insert calls per slot index.
type recordingCache struct {
	erased   map[uint32]int
	inserted map[uint32]int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		erased:   make(map[uint32]int),
		inserted: make(map[uint32]int),
	}
}

func (c *recordingCache) Erase(index uint32) {
	c.erased[index]++
}

func (c *recordingCache) Insert(index uint32) {
	c.inserted[index]++
}

// recordingStore is a ComponentStore that only records erasures.
type recordingStore struct {
	erased []uint32
}

func (s *recordingStore) Erase(index uint32) {
	s.erased = append(s.erased, index)
}

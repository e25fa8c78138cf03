package ecs

import (
	"reflect"
)

// Singleton provides access to a single value of type T held by an
// EntityManager rather than by an entity. Use this for global state,
// configuration, or other data with exactly one instance per world.
type Singleton[T any] struct {
	manager *EntityManager
	value   *T
}

// NewSingleton creates a new Singleton accessor for the given manager.
// If the manager holds no T yet, it is created from initializer, or the zero
// value when none is given. The value exists in the manager after the call.
func NewSingleton[T any](manager *EntityManager, initializer ...T) *Singleton[T] {
	t := reflect.TypeFor[T]()
	if _, ok := manager.singletons[t]; !ok {
		value := new(T)
		if len(initializer) > 0 {
			*value = initializer[0]
		}
		manager.singletons[t] = value
	}

	s := &Singleton[T]{}
	s.Init(manager)
	return s
}

// Init binds the Singleton to a manager.
// This is called automatically by the Scheduler during system registration.
func (s *Singleton[T]) Init(manager *EntityManager) {
	s.manager = manager
	s.value = nil
	s.updateCache()
}

// Get returns a pointer to the singleton value.
// Returns nil if the manager holds no T.
func (s *Singleton[T]) Get() *T {
	if s.value == nil {
		s.updateCache()
	}
	return s.value
}

// Exists returns true if the manager holds a T.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}

// updateCache refreshes the cached pointer from the manager
func (s *Singleton[T]) updateCache() {
	if s.manager == nil {
		return
	}
	if value, ok := s.manager.singletons[reflect.TypeFor[T]()]; ok {
		s.value = value.(*T)
	}
}

// AddSingleton stores value as the singleton of its type, replacing any previous one.
func (m *EntityManager) AddSingleton(value any) {
	t := reflect.TypeOf(value)
	ptr := reflect.New(t)
	ptr.Elem().Set(reflect.ValueOf(value))

	if existing, ok := m.singletons[t]; ok {
		reflect.ValueOf(existing).Elem().Set(ptr.Elem())
		return
	}
	m.singletons[t] = ptr.Interface()
}

// ReadSingleton points target, a **T, at the singleton of type T.
// It reports false and leaves target alone if the manager holds no T.
func (m *EntityManager) ReadSingleton(target any) bool {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Ptr {
		panic("ecs: ReadSingleton target must be a pointer to a pointer")
	}

	value, ok := m.singletons[v.Elem().Type().Elem()]
	if !ok {
		return false
	}
	v.Elem().Set(reflect.ValueOf(value))
	return true
}

// SingletonCount returns the number of singleton values held by the manager.
func (m *EntityManager) SingletonCount() int {
	return len(m.singletons)
}

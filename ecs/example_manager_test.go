package ecs_test

import (
	"fmt"

	"github.com/plus3/genecs/ecs"
)

// ExampleEntityManager demonstrates the basic lifecycle of an entity.
// Destroy only marks the entity; its slot and component data are released
// by the next Update, after which the slot is handed out again with a new
// generation.
func ExampleEntityManager() {
	m := newExampleManager(register[Position], register[Velocity], register[Health])

	player := m.CreateEntity()
	ecs.Assign(player, Position{X: 10, Y: 20})
	ecs.Assign(player, Health{Current: 100, Max: 100})
	fmt.Printf("Created %v with %d components\n", player.Id(), player.ComponentMask().Count())

	pos := ecs.Get[Position](player)
	pos.X = 15
	fmt.Printf("Player moved to (%.0f, %.0f)\n", pos.X, pos.Y)

	player.Destroy()
	fmt.Printf("Pending: %v, size %d, to destroy %d\n", player.PendingDelete(), m.Size(), m.EntitiesToDestroy())

	m.Update()
	fmt.Printf("Valid: %v, size %d, reusable %d\n", player.Valid(), m.Size(), m.ReusableEntities())

	next := m.CreateEntity()
	fmt.Printf("Created %v\n", next.Id())

	// Output:
	// Created 0v1 with 2 components
	// Player moved to (15, 20)
	// Pending: true, size 1, to destroy 1
	// Valid: false, size 0, reusable 1
	// Created 0v2
}

// ExampleEntityManager_componentChanges shows how assigning and removing
// components changes the entity's component mask.
func ExampleEntityManager_componentChanges() {
	m := newExampleManager(register[Position], register[Velocity], register[Health])

	entity := m.CreateEntity()
	ecs.Assign(entity, Position{X: 0, Y: 0})
	fmt.Printf("Has velocity: %v, mask %v\n", ecs.Has[Velocity](entity), entity.ComponentMask())

	ecs.Assign(entity, Velocity{DX: 5, DY: 3})
	vel := ecs.Get[Velocity](entity)
	fmt.Printf("Has velocity: %v (%.0f, %.0f), mask %v\n", vel != nil, vel.DX, vel.DY, entity.ComponentMask())

	ecs.Remove[Velocity](entity)
	fmt.Printf("Has velocity: %v, mask %v\n", ecs.Has[Velocity](entity), entity.ComponentMask())

	// Output:
	// Has velocity: false, mask {0}
	// Has velocity: true (5, 3), mask {0 1}
	// Has velocity: false, mask {0}
}

type Target struct {
	Entity ecs.Entity
}

// ExampleEntity_stale demonstrates holding handles to other entities.
// A handle names both a slot and the generation it was issued for, so once
// the target is finalized every copy of its handle reports itself invalid,
// even after the slot has been reused.
func ExampleEntity_stale() {
	m := newExampleManager(register[Position], register[Target])

	target := spawn(m, with(Position{X: 100, Y: 100}))
	hunter := spawn(m, with(Target{Entity: target}))

	aim := ecs.Get[Target](hunter).Entity
	if aim.Valid() {
		targetPos := ecs.Get[Position](aim)
		fmt.Printf("Target at (%.0f, %.0f)\n", targetPos.X, targetPos.Y)
	}

	target.Destroy()
	fmt.Printf("Target destroyed, still valid before update: %v\n", aim.Valid())

	m.Update()
	replacement := spawn(m, with(Position{X: 5, Y: 5}))
	fmt.Printf("Slot reused: %v, stale handle valid: %v\n",
		replacement.Id().Index() == aim.Id().Index(), aim.Valid())

	// Output:
	// Target at (100, 100)
	// Target destroyed, still valid before update: true
	// Slot reused: true, stale handle valid: false
}

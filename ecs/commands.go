package ecs

// Commands provides a buffer for deferred ECS operations that are executed at the end of a frame.
// This prevents structural changes to the manager while systems iterate queries.
type Commands struct {
	creates  []createCommand
	destroys []Entity
	adds     []entityCommand
	removes  []entityCommand
	defers   []deferCommand
}

func newCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type createCommand struct {
	build func(Entity)
}

type entityCommand struct {
	entity Entity
	apply  func(Entity)
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Create queues an entity creation. build, if not nil, runs on the new entity
// and typically assigns its components.
func (c *Commands) Create(build func(Entity)) {
	c.creates = append(c.creates, createCommand{build: build})
}

// Destroy queues a destruction request for the entity.
func (c *Commands) Destroy(e Entity) {
	c.destroys = append(c.destroys, e)
}

// AssignLater queues assigning value as the T component of e.
func AssignLater[T any](c *Commands, e Entity, value T) {
	c.adds = append(c.adds, entityCommand{
		entity: e,
		apply: func(e Entity) {
			Assign(e, value)
		},
	})
}

// RemoveLater queues removing the T component of e.
func RemoveLater[T any](c *Commands, e Entity) {
	c.removes = append(c.removes, entityCommand{
		entity: e,
		apply: func(e Entity) {
			Remove[T](e)
		},
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.creates) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all commands to the provided manager, resetting the buffer state.
// Destruction requests are only queued on the manager; they take effect at its next Update.
// Component changes aimed at entities that are invalid or pending destruction are dropped.
func (c *Commands) Flush(manager *EntityManager) {
	for _, e := range c.destroys {
		if e.Valid() {
			e.Destroy()
		}
	}

	for _, cmd := range c.removes {
		if cmd.entity.Valid() && !cmd.entity.PendingDelete() {
			cmd.apply(cmd.entity)
		}
	}

	for _, cmd := range c.adds {
		if cmd.entity.Valid() && !cmd.entity.PendingDelete() {
			cmd.apply(cmd.entity)
		}
	}

	for _, cmd := range c.creates {
		e := manager.CreateEntity()
		if cmd.build != nil {
			cmd.build(e)
		}
	}

	for _, df := range c.defers {
		df.fn()
	}

	clear(c.destroys)
	clear(c.removes)
	clear(c.adds)
	clear(c.creates)
	clear(c.defers)
	c.creates = c.creates[:0]
	c.destroys = c.destroys[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}

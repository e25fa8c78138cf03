package ecs

import "math"

// slotTable holds the per-slot state of an EntityManager in parallel slices indexed by slot.
type slotTable struct {
	generations []uint32
	masks       []ComponentMask
	alive       []bool
	free        indexQueue
	retired     int
}

func newSlotTable(capacity int) *slotTable {
	return &slotTable{
		generations: make([]uint32, 0, capacity),
		masks:       make([]ComponentMask, 0, capacity),
		alive:       make([]bool, 0, capacity),
	}
}

// allocate reuses the oldest free slot, or appends a new one with generation 1.
// A reused slot keeps the generation it was given when it was released.
func (t *slotTable) allocate() EntityId {
	if index, ok := t.free.pop(); ok {
		t.alive[index] = true
		return NewEntityId(index, t.generations[index])
	}

	index := uint32(len(t.generations))
	t.generations = append(t.generations, 1)
	t.masks = append(t.masks, ComponentMask{})
	t.alive = append(t.alive, true)
	return NewEntityId(index, 1)
}

func (t *slotTable) valid(id EntityId) bool {
	index := id.Index()
	if id.Generation() == 0 || int(index) >= len(t.generations) {
		return false
	}
	return t.generations[index] == id.Generation()
}

// release clears the slot and bumps its generation. A slot whose generation
// would wrap back to 0 is retired. Otherwise the caller hands it back with
// recycle once no pending destruction can refer to it.
func (t *slotTable) release(index uint32) (retired bool) {
	t.masks[index].Reset()
	t.alive[index] = false

	if t.generations[index] == math.MaxUint32 {
		t.generations[index] = 0
		t.retired++
		return true
	}

	t.generations[index]++
	return false
}

// recycle puts released slots on the free list, oldest first.
func (t *slotTable) recycle(indices []uint32) {
	for _, index := range indices {
		t.free.push(index)
	}
}

func (t *slotTable) capacity() int {
	return len(t.generations)
}

// indexQueue is a FIFO of slot indices backed by a slice.
type indexQueue struct {
	items []uint32
	head  int
}

func (q *indexQueue) push(index uint32) {
	q.items = append(q.items, index)
}

func (q *indexQueue) pop() (uint32, bool) {
	if q.head == len(q.items) {
		return 0, false
	}

	index := q.items[q.head]
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= 64 && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}

	return index, true
}

func (q *indexQueue) len() int {
	return len(q.items) - q.head
}

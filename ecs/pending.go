package ecs

import "github.com/kamstrup/intmap"

// pendingSet holds the slot indices queued for destruction, deduplicated by index
// and iterated in the order they were first queued.
type pendingSet struct {
	members *intmap.Map[uint32, struct{}]
	order   []uint32
}

func newPendingSet(capacity int) *pendingSet {
	return &pendingSet{
		members: intmap.New[uint32, struct{}](capacity),
		order:   make([]uint32, 0, capacity),
	}
}

// add queues index and reports whether it was not already queued.
func (p *pendingSet) add(index uint32) bool {
	if _, ok := p.members.Get(index); ok {
		return false
	}
	p.members.Put(index, struct{}{})
	p.order = append(p.order, index)
	return true
}

func (p *pendingSet) has(index uint32) bool {
	_, ok := p.members.Get(index)
	return ok
}

func (p *pendingSet) len() int {
	return len(p.order)
}

func (p *pendingSet) clear() {
	p.members.Clear()
	p.order = p.order[:0]
}

package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"

	"github.com/plus3/genecs/ecs"
)

type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current, Max int32
}

// typedKinds is the number of component types registered by newWorld before
// any untyped kind.
const typedKinds = 3

// tagStore holds an opaque payload per slot for one untyped component kind.
// The world attaches those kinds through EntityManager.Attach and relies on
// the manager to erase them when entities are finalized.
type tagStore struct {
	values *intmap.Map[uint32, uint64]
}

func newTagStore() *tagStore {
	return &tagStore{values: intmap.New[uint32, uint64](64)}
}

func (s *tagStore) Set(index uint32, value uint64) {
	s.values.Put(index, value)
}

func (s *tagStore) Erase(index uint32) {
	s.values.Del(index)
}

func (s *tagStore) Len() int {
	return s.values.Len()
}

type MotionSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *MotionSystem) Execute(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	for item := range s.Entities.Values() {
		item.Position.X += item.Velocity.DX * dt
		item.Position.Y += item.Velocity.DY * dt
	}
}

type DecaySystem struct {
	Entities ecs.Query[struct {
		Self ecs.Entity
		*Health
	}]
}

func (s *DecaySystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Values() {
		item.Health.Current--
		if item.Health.Current <= 0 {
			frame.Commands.Destroy(item.Self)
		}
	}
}

// ChurnSystem replaces a share of the world's live entities every frame.
type ChurnSystem struct {
	world *world
}

func (s *ChurnSystem) Execute(frame *ecs.UpdateFrame) {
	w := s.world
	n := int(float64(len(w.live)) * w.cfg.DestroyRatio)
	for range n {
		e := w.live[w.rng.IntN(len(w.live))]
		if e.Valid() && !e.PendingDelete() {
			frame.Commands.Destroy(e)
		}
	}
	for range n {
		frame.Commands.Create(w.populate)
	}
}

// WorkerStats is what one world reports after its run.
type WorkerStats struct {
	Worker     int
	Frames     int64
	Created    int64
	Finalized  int64
	Size       int
	Capacity   int
	Reusable   int
	Retired    int
	FrameTimes Stats
}

// world is one single-writer EntityManager driven by its own scheduler.
type world struct {
	id        int
	cfg       RunConfig
	rng       *rand.Rand
	logger    *zap.Logger
	manager   *ecs.EntityManager
	scheduler *ecs.Scheduler

	tagKinds []ecs.ComponentKind
	tags     []*tagStore
	live     []ecs.Entity
	created  int64
	frames   Stats
	sampler  *rand.Rand // reservoir draws, kept apart from the simulation's rng
}

func newWorld(id int, cfg RunConfig, logger *zap.Logger) *world {
	logger = logger.With(zap.Int("worker", id))

	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Health](registry)

	stores := ecs.NewStoreRegistry(registry)
	w := &world{
		id:      id,
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, uint64(id))),
		sampler: rand.New(rand.NewPCG(cfg.Seed, ^uint64(id))),
		logger:  logger,
	}
	for i := range cfg.Components {
		kind := ecs.ComponentKind(typedKinds + i)
		store := newTagStore()
		stores.Register(kind, store)
		w.tagKinds = append(w.tagKinds, kind)
		w.tags = append(w.tags, store)
	}

	w.manager = ecs.NewEntityManager(stores, ecs.NewCacheRegistry(),
		ecs.WithLogger(logger),
		ecs.WithInitialCapacity(cfg.Entities))

	w.scheduler = ecs.NewScheduler(w.manager)
	w.scheduler.Register(&MotionSystem{})
	w.scheduler.Register(&DecaySystem{})
	w.scheduler.Register(&ChurnSystem{world: w})

	for range cfg.Entities {
		w.populate(w.manager.CreateEntity())
	}
	return w
}

// populate gives a fresh entity a random set of components.
func (w *world) populate(e ecs.Entity) {
	w.created++
	w.live = append(w.live, e)

	if w.rng.IntN(4) != 0 {
		ecs.Assign(e, Position{X: w.rng.Float32() * 100, Y: w.rng.Float32() * 100})
		if w.rng.IntN(2) == 0 {
			ecs.Assign(e, Velocity{DX: w.rng.Float32() - 0.5, DY: w.rng.Float32() - 0.5})
		}
	}
	if w.rng.IntN(3) == 0 {
		hp := 1 + w.rng.Int32N(600)
		ecs.Assign(e, Health{Current: hp, Max: hp})
	}

	if len(w.tagKinds) == 0 {
		return
	}
	for range 1 + w.rng.IntN(4) {
		i := w.rng.IntN(len(w.tagKinds))
		w.tags[i].Set(e.Id().Index(), uint64(e.Id()))
		w.manager.Attach(e.Id(), w.tagKinds[i])
	}
}

// step runs one frame and checks the slot accounting afterwards.
func (w *world) step(dt float64) error {
	start := time.Now()
	w.scheduler.Once(dt)
	w.frames.Add(time.Since(start), w.sampler)

	live := w.live[:0]
	for _, e := range w.live {
		if e.Valid() {
			live = append(live, e)
		}
	}
	clear(w.live[len(live):])
	w.live = live

	m := w.manager
	if m.EntitiesToDestroy() != 0 {
		return fmt.Errorf("worker %d: %d entities still pending after update", w.id, m.EntitiesToDestroy())
	}
	if got := m.Size() + m.ReusableEntities() + m.RetiredSlots(); got != m.Capacity() {
		return fmt.Errorf("worker %d: size %d + reusable %d + retired %d != capacity %d",
			w.id, m.Size(), m.ReusableEntities(), m.RetiredSlots(), m.Capacity())
	}
	if m.Size() != len(w.live) {
		return fmt.Errorf("worker %d: manager reports %d live entities, tracked %d", w.id, m.Size(), len(w.live))
	}
	return nil
}

// verifyStores checks that every untyped store holds exactly the slots whose
// masks carry its kind.
func (w *world) verifyStores() error {
	want := make([]int, len(w.tagKinds))
	for e := range w.manager.Entities() {
		mask := e.ComponentMask()
		for i, kind := range w.tagKinds {
			if mask.Has(kind) {
				want[i]++
			}
		}
	}
	for i, store := range w.tags {
		if store.Len() != want[i] {
			return fmt.Errorf("worker %d: store for kind %d holds %d entries, %d entities carry it",
				w.id, w.tagKinds[i], store.Len(), want[i])
		}
	}
	return nil
}

// run steps the world until ctx is done.
func (w *world) run(ctx context.Context) error {
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("worker stopped", zap.Int64("frames", w.scheduler.GetStats().Frames))
			return w.verifyStores()
		default:
		}

		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now
		if err := w.step(dt); err != nil {
			return err
		}
	}
}

func (w *world) stats() WorkerStats {
	m := w.manager
	sched := w.scheduler.GetStats()
	return WorkerStats{
		Worker:     w.id,
		Frames:     sched.Frames,
		Created:    w.created,
		Finalized:  sched.Finalized,
		Size:       m.Size(),
		Capacity:   m.Capacity(),
		Reusable:   m.ReusableEntities(),
		Retired:    m.RetiredSlots(),
		FrameTimes: w.frames,
	}
}

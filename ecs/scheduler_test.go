package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/genecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MovementSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
	ExecuteCount int
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	s.ExecuteCount++
	for item := range s.Entities.Values() {
		item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
	}
}

type HealthSystem struct {
	Entities ecs.Query[struct {
		*Health
	}]
	ExecuteCount int
	TotalHealth  float64
}

func (s *HealthSystem) Execute(frame *ecs.UpdateFrame) {
	s.ExecuteCount++
	s.TotalHealth = 0
	for item := range s.Entities.Values() {
		s.TotalHealth += float64(item.Health.Current)
	}
}

// ReaperSystem destroys every entity whose health dropped to zero.
type ReaperSystem struct {
	Entities ecs.Query[struct {
		Self ecs.Entity
		*Health
	}]
}

func (s *ReaperSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Values() {
		if item.Health.Current <= 0 {
			frame.Commands.Destroy(item.Self)
		}
	}
}

func TestScheduler(t *testing.T) {
	t.Run("system execution order and query initialization", func(t *testing.T) {
		m := newTestManager()
		scheduler := ecs.NewScheduler(m)

		movement := &MovementSystem{}
		health := &HealthSystem{}

		scheduler.Register(movement)
		scheduler.Register(health)

		spawn(m, with(Position{X: 0, Y: 0}), with(Velocity{DX: 1, DY: 2}))
		spawn(m, with(Health{Current: 100, Max: 100}))

		scheduler.Once(1.0)

		if movement.ExecuteCount != 1 {
			t.Errorf("expected MovementSystem to execute once, got %d", movement.ExecuteCount)
		}

		if health.ExecuteCount != 1 {
			t.Errorf("expected HealthSystem to execute once, got %d", health.ExecuteCount)
		}

		scheduler.Once(1.0)

		if movement.ExecuteCount != 2 {
			t.Errorf("expected MovementSystem to execute twice, got %d", movement.ExecuteCount)
		}

		if health.ExecuteCount != 2 {
			t.Errorf("expected HealthSystem to execute twice, got %d", health.ExecuteCount)
		}
	})

	t.Run("custom state persistence", func(t *testing.T) {
		m := newTestManager()
		scheduler := ecs.NewScheduler(m)

		spawn(m, with(Health{Current: 50, Max: 100}))
		spawn(m, with(Health{Current: 75, Max: 100}))

		health := &HealthSystem{}
		scheduler.Register(health)

		scheduler.Once(1.0)

		if health.TotalHealth != 125.0 {
			t.Errorf("expected TotalHealth=125.0, got %f", health.TotalHealth)
		}

		spawn(m, with(Health{Current: 25, Max: 100}))

		scheduler.Once(1.0)

		if health.TotalHealth != 150.0 {
			t.Errorf("expected TotalHealth=150.0, got %f", health.TotalHealth)
		}
	})

	t.Run("context cancellation in run", func(t *testing.T) {
		m := newTestManager()
		scheduler := ecs.NewScheduler(m)

		movement := &MovementSystem{}
		scheduler.Register(movement)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan bool)
		go func() {
			scheduler.Run(ctx, 1*time.Millisecond)
			done <- true
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
			t.Fatal("scheduler did not stop after context cancellation")
		}

		if movement.ExecuteCount == 0 {
			t.Error("expected system to execute at least once")
		}
	})

	t.Run("delta time calculation", func(t *testing.T) {
		m := newTestManager()
		scheduler := ecs.NewScheduler(m)

		e := spawn(m, with(Position{X: 0, Y: 0}), with(Velocity{DX: 10, DY: 20}))

		movement := &MovementSystem{}
		scheduler.Register(movement)

		scheduler.Once(0.5)

		assert.Equal(t, Position{X: 5, Y: 10}, *ecs.Get[Position](e), "expected position to be updated with delta time")
	})

	t.Run("commands integration", func(t *testing.T) {
		m := newTestManager()
		scheduler := ecs.NewScheduler(m)

		spawnSystem := &testSpawnSystem{}
		scheduler.Register(spawnSystem)

		scheduler.Once(1.0)

		if !spawnSystem.executed {
			t.Error("expected spawn system to execute")
		}

		movement := &MovementSystem{}
		scheduler.Register(movement)
		scheduler.Once(1.0)

		if movement.Entities.Len() == 0 {
			t.Error("expected spawned entity to be visible after command flush")
		}
	})

	t.Run("destroyed entities are finalized at end of frame", func(t *testing.T) {
		m := newTestManager()
		scheduler := ecs.NewScheduler(m)

		dying := spawn(m, with(Health{Current: 0, Max: 10}))
		alive := spawn(m, with(Health{Current: 5, Max: 10}))

		reaper := &ReaperSystem{}
		health := &HealthSystem{}
		scheduler.Register(reaper)
		scheduler.Register(health)

		scheduler.Once(1.0)

		assert.False(t, dying.Valid())
		assert.True(t, alive.Valid())
		assert.Equal(t, 1, reaper.Entities.Len())
		assert.Equal(t, 0, m.EntitiesToDestroy())
		assert.Equal(t, 1, m.ReusableEntities())

		stats := scheduler.GetStats()
		assert.Equal(t, int64(1), stats.Frames)
		assert.Equal(t, int64(1), stats.Finalized)
	})
}

type frameRecorder struct {
	frames []int64
	Config ecs.Singleton[Tag]
	local  ecs.Query[struct{ *Position }]
}

func (s *frameRecorder) Execute(frame *ecs.UpdateFrame) {
	s.frames = append(s.frames, frame.Frame)
}

func TestSchedulerBinding(t *testing.T) {
	m := newTestManager()
	ecs.NewSingleton[Tag](m, "level-1")
	scheduler := ecs.NewScheduler(m)

	recorder := &frameRecorder{}
	scheduler.Register(recorder)
	assert.Same(t, m, scheduler.Manager())

	require.True(t, recorder.Config.Exists(), "exported singleton fields are bound")
	assert.Equal(t, Tag("level-1"), *recorder.Config.Get())
	assert.Equal(t, 0, recorder.local.Len(), "unexported fields are left alone")

	for range 3 {
		scheduler.Once(0.1)
	}
	assert.Equal(t, []int64{0, 1, 2}, recorder.frames)
}

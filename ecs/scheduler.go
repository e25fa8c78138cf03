package ecs

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Frames          int64
	Finalized       int64 // entities finalized by the Update at the end of each frame
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// systemTimer accumulates the execution times of one system.
type systemTimer struct {
	name  string
	count int64
	min   time.Duration
	max   time.Duration
	last  time.Duration
	total time.Duration
}

func (t *systemTimer) record(d time.Duration) {
	if t.count == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.count++
	t.last = d
	t.total += d
}

func (t *systemTimer) snapshot() SystemStats {
	s := SystemStats{
		Name:           t.name,
		ExecutionCount: t.count,
		MinDuration:    t.min,
		MaxDuration:    t.max,
		LastDuration:   t.last,
		TotalDuration:  t.total,
	}
	if t.count > 0 {
		s.AvgDuration = t.total / time.Duration(t.count)
	}
	return s
}

// managerBinder is implemented by system fields that must be bound to the
// scheduler's manager, such as Query and Singleton.
type managerBinder interface {
	Init(manager *EntityManager)
}

// Scheduler manages and executes systems in registration order.
// Systems are identified by their position in that order.
//
// Each frame runs every system, flushes the frame's Commands and then calls
// Update on the manager, so entities destroyed during a frame are gone before
// the next one starts.
type Scheduler struct {
	manager   *EntityManager
	systems   []System
	timers    []*systemTimer
	frames    int64
	finalized int64
}

// NewScheduler creates a new scheduler for the given manager.
func NewScheduler(manager *EntityManager) *Scheduler {
	return &Scheduler{manager: manager}
}

// Manager returns the manager the scheduler drives.
func (s *Scheduler) Manager() *EntityManager {
	return s.manager
}

// Register appends a system and binds its exported Query and Singleton fields.
func (s *Scheduler) Register(system System) {
	name := s.bindFields(system)
	s.systems = append(s.systems, system)
	s.timers = append(s.timers, &systemTimer{name: name})

	s.manager.logger.Debug("system registered",
		zap.String("system", name),
		zap.Int("order", len(s.systems)-1))
}

// bindFields calls Init on every addressable field implementing managerBinder
// and returns the system's type name.
func (s *Scheduler) bindFields(system System) string {
	v := reflect.ValueOf(system)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return v.Type().Name()
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || !field.CanAddr() {
			continue
		}
		if binder, ok := field.Addr().Interface().(managerBinder); ok {
			binder.Init(s.manager)
		}
	}
	return v.Type().Name()
}

// Once executes all registered systems once with the given delta time, then
// flushes the frame's commands and finalizes pending destructions.
func (s *Scheduler) Once(dt float64) {
	frame := newUpdateFrame(dt, s.frames, s.manager)

	for i, system := range s.systems {
		start := time.Now()
		system.Execute(frame)
		s.timers[i].record(time.Since(start))
	}

	frame.Commands.Flush(s.manager)

	s.finalized += int64(s.manager.Update())
	s.frames++
}

// Run executes all systems repeatedly at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.manager.logger.Debug("scheduler stopped", zap.Int64("frames", s.frames))
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Frames:      s.frames,
		Finalized:   s.finalized,
		Systems:     make([]SystemStats, len(s.timers)),
	}

	for i, timer := range s.timers {
		stats.Systems[i] = timer.snapshot()
		stats.TotalExecutions += timer.count
	}
	return stats
}

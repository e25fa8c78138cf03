package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testRunConfig() RunConfig {
	return RunConfig{
		Duration:     time.Second,
		Entities:     500,
		Workers:      1,
		DestroyRatio: 0.2,
		Components:   16,
		Seed:         7,
	}
}

func TestWorldStepKeepsAccounting(t *testing.T) {
	w := newWorld(0, testRunConfig(), zaptest.NewLogger(t))
	require.Equal(t, 500, w.manager.Size())

	for range 50 {
		require.NoError(t, w.step(1.0/60))
	}
	require.NoError(t, w.verifyStores())

	stats := w.stats()
	assert.Equal(t, int64(50), stats.Frames)
	assert.Positive(t, stats.Finalized)
	assert.Equal(t, stats.Created-stats.Finalized, int64(stats.Size))
	assert.Equal(t, stats.Capacity, stats.Size+stats.Reusable+stats.Retired)
	assert.Equal(t, int64(50), stats.FrameTimes.Count)
	assert.Len(t, stats.FrameTimes.Samples, 50)
}

func TestWorldWithoutUntypedKinds(t *testing.T) {
	cfg := testRunConfig()
	cfg.Components = 0
	cfg.DestroyRatio = 1
	w := newWorld(1, cfg, zaptest.NewLogger(t))

	for range 5 {
		require.NoError(t, w.step(0.1))
	}
	assert.NoError(t, w.verifyStores())
	assert.Positive(t, w.manager.ReusableEntities()+w.manager.Size())
	assert.Positive(t, w.stats().Finalized)
}

func TestWorldIsDeterministic(t *testing.T) {
	a := newWorld(3, testRunConfig(), zaptest.NewLogger(t))
	b := newWorld(3, testRunConfig(), zaptest.NewLogger(t))

	for range 20 {
		require.NoError(t, a.step(0.016))
		require.NoError(t, b.step(0.016))
	}
	assert.Equal(t, a.manager.Size(), b.manager.Size())
	assert.Equal(t, a.created, b.created)
}

func TestWorldRunStopsOnCancel(t *testing.T) {
	w := newWorld(0, testRunConfig(), zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, w.run(ctx))
	assert.Positive(t, w.stats().Frames)
}

func TestReport(t *testing.T) {
	w := newWorld(0, testRunConfig(), zaptest.NewLogger(t))
	for range 3 {
		require.NoError(t, w.step(0.016))
	}

	report := &Report{Duration: time.Second, WorkerCount: 1, Entities: 500}
	report.AddWorker(w.stats())
	report.UpdateTime.Finalize()

	assert.Equal(t, int64(3), report.TotalUpdates)
	assert.LessOrEqual(t, report.UpdateTime.Min, report.UpdateTime.P99)
	assert.LessOrEqual(t, report.UpdateTime.P99, report.UpdateTime.Max)

	var out bytes.Buffer
	require.NoError(t, report.Generate(&out))
	assert.Contains(t, out.String(), "## Slot Accounting")
	assert.Contains(t, out.String(), "| 0 | 3 |")
}

func TestStatsSampleIsBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var s Stats
	for i := range 3 * maxSamples {
		s.Add(time.Duration(i+1)*time.Microsecond, rng)
	}
	assert.Len(t, s.Samples, maxSamples)
	assert.Equal(t, int64(3*maxSamples), s.Count)

	var merged Stats
	merged.Merge(s)
	merged.Merge(Stats{})
	merged.Finalize()

	assert.Equal(t, time.Microsecond, merged.Min)
	assert.Equal(t, time.Duration(3*maxSamples)*time.Microsecond, merged.Max)
	assert.Equal(t, merged.Total/time.Duration(merged.Count), merged.Avg)
	assert.LessOrEqual(t, merged.Min, merged.P50)
	assert.LessOrEqual(t, merged.P50, merged.P99)
	assert.LessOrEqual(t, merged.P99, merged.Max)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ecs-stress: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a .toml or .yaml config file.")
	duration := flag.Duration("duration", 0, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 0, "The initial number of entities each worker creates.")
	workers := flag.Int("workers", 0, "The number of independent entity managers to drive in parallel.")
	destroyRatio := flag.Float64("destroy-ratio", 0, "Share of live entities destroyed and replaced every frame.")
	components := flag.Int("components", 0, "Number of untyped component kinds attached at random.")
	seed := flag.Uint64("seed", 0, "Random seed; worker i uses (seed, i).")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn or error.")
	profileMode := flag.String("profile", "", "Profile mode: cpu, mem or alloc.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg, err := Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Run.Duration = *duration
		case "entities":
			cfg.Run.Entities = *entityCount
		case "workers":
			cfg.Run.Workers = *workers
		case "destroy-ratio":
			cfg.Run.DestroyRatio = *destroyRatio
		case "components":
			cfg.Run.Components = *components
		case "seed":
			cfg.Run.Seed = *seed
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "profile":
			cfg.Profile.Mode = *profileMode
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
	}

	log.Info("starting ECS stress test",
		zap.Int("workers", cfg.Run.Workers),
		zap.Int("entities", cfg.Run.Entities),
		zap.Int("components", cfg.Run.Components),
		zap.Duration("duration", cfg.Run.Duration))

	worlds := make([]*world, cfg.Run.Workers)
	for i := range worlds {
		worlds[i] = newWorld(i, cfg.Run, log)
	}
	log.Info("population complete", zap.Int("entities", cfg.Run.Entities*cfg.Run.Workers))

	report := &Report{
		Duration:       cfg.Run.Duration,
		Entities:       cfg.Run.Entities,
		WorkerCount:    cfg.Run.Workers,
		Components:     cfg.Run.Components,
		DestroyRatio:   cfg.Run.DestroyRatio,
		Seed:           cfg.Run.Seed,
		GCPauseMetrics: *gcPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Run.Duration)
	defer cancel()

	startTime := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range worlds {
		g.Go(func() error {
			return w.run(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	report.TotalTime = time.Since(startTime)
	runtime.ReadMemStats(&report.MemStatsEnd)
	for _, w := range worlds {
		report.AddWorker(w.stats())
	}
	report.UpdateTime.Finalize()

	log.Info("simulation finished",
		zap.Int64("updates", report.TotalUpdates),
		zap.Int64("finalized", report.TotalFinalized))

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")
	return nil
}

func startProfile(cfg ProfileConfig) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "alloc":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/plus3/genecs/ecs"
)

type Config struct {
	Run     RunConfig     `toml:"run" yaml:"run"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Profile ProfileConfig `toml:"profile" yaml:"profile"`
}

type RunConfig struct {
	Duration     time.Duration `toml:"duration" yaml:"duration"`
	Entities     int           `toml:"entities" yaml:"entities"`           // initial entities per worker
	Workers      int           `toml:"workers" yaml:"workers"`             // one EntityManager each
	DestroyRatio float64       `toml:"destroy_ratio" yaml:"destroy_ratio"` // share of live entities replaced per frame (0.0-1.0)
	Components   int           `toml:"components" yaml:"components"`       // untyped kinds on top of the typed ones
	Seed         uint64        `toml:"seed" yaml:"seed"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // console or json
}

type ProfileConfig struct {
	Mode string `toml:"mode" yaml:"mode"` // "", cpu, mem or alloc
	Path string `toml:"path" yaml:"path"`
}

// Load reads a TOML or YAML config file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration:     10 * time.Second,
			Entities:     10000,
			Workers:      4,
			DestroyRatio: 0.05,
			Components:   32,
			Seed:         1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}

// Validate reports the first setting the stress run cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Run.Duration <= 0:
		return fmt.Errorf("run.duration must be positive, got %s", c.Run.Duration)
	case c.Run.Entities < 0:
		return fmt.Errorf("run.entities must not be negative, got %d", c.Run.Entities)
	case c.Run.Workers < 1:
		return fmt.Errorf("run.workers must be at least 1, got %d", c.Run.Workers)
	case c.Run.DestroyRatio < 0 || c.Run.DestroyRatio > 1:
		return fmt.Errorf("run.destroy_ratio must be within [0, 1], got %g", c.Run.DestroyRatio)
	case c.Run.Components < 0 || c.Run.Components > maxUntypedKinds:
		return fmt.Errorf("run.components must be within [0, %d], got %d", maxUntypedKinds, c.Run.Components)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	switch c.Profile.Mode {
	case "", "cpu", "mem", "alloc":
	default:
		return fmt.Errorf("profile.mode must be one of cpu, mem, alloc, got %q", c.Profile.Mode)
	}
	return nil
}

const maxUntypedKinds = ecs.MaxComponentKinds - typedKinds

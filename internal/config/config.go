package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/evsim/internal/physics"
	"github.com/san-kum/evsim/internal/sim"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.1
	DefaultCycle      = "city"
	DefaultExportDir  = "exports"
	DefaultLogLevel   = "info"
	DefaultRedisKey   = "ev-powertrain"
	DefaultClock      = string(sim.ClockWall)
	DefaultPlotWidth  = 60
	DefaultPlotHeight = 10
	defaultFilePerm   = 0o644
	maxFrameRate      = 1000
)

type Config struct {
	Vehicle   physics.Params  `yaml:"vehicle"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Models    physics.Models  `yaml:"models"`
	Run       RunConfig       `yaml:"run"`
	Cycle     CycleConfig     `yaml:"cycle"`
	Export    ExportConfig    `yaml:"export"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	LogLevel  string          `yaml:"log_level"`
}

type SchedulerConfig struct {
	Clock     string `yaml:"clock"`
	FrameRate int    `yaml:"frame_rate"`
}

// RunConfig drives headless runs. A zero Duration runs the whole cycle.
type RunConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
}

// CycleConfig names a preset cycle or lists segments explicitly. Explicit
// segments win over the preset.
type CycleConfig struct {
	Preset   string        `yaml:"preset,omitempty"`
	Segments []sim.Segment `yaml:"segments,omitempty"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// TelemetryConfig enables the Redis publisher when Addr is set.
type TelemetryConfig struct {
	Addr string `yaml:"addr,omitempty"`
	Key  string `yaml:"key"`
}

func DefaultConfig() *Config {
	return &Config{
		Vehicle: physics.DefaultParams(),
		Scheduler: SchedulerConfig{
			Clock:     DefaultClock,
			FrameRate: sim.DefaultFrameRate,
		},
		Models: physics.DefaultModels(),
		Run:    RunConfig{Dt: DefaultDt},
		Cycle:  CycleConfig{Preset: DefaultCycle},
		Export: ExportConfig{Dir: DefaultExportDir},
		Telemetry: TelemetryConfig{
			Key: DefaultRedisKey,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, defaultFilePerm)
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Vehicle.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("vehicle: %w", err))
	}
	if _, err := sim.ParseClockMode(c.Scheduler.Clock); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if c.Scheduler.FrameRate <= 0 || c.Scheduler.FrameRate > maxFrameRate {
		errs = append(errs, fmt.Errorf("scheduler: frame rate %d outside (0, %d]", c.Scheduler.FrameRate, maxFrameRate))
	}
	if !(c.Run.Dt > 0) {
		errs = append(errs, fmt.Errorf("run: dt must be positive, got %g", c.Run.Dt))
	}
	if c.Run.Duration < 0 {
		errs = append(errs, fmt.Errorf("run: duration must not be negative, got %g", c.Run.Duration))
	}
	if _, err := c.Cycle.Build(); err != nil {
		errs = append(errs, fmt.Errorf("cycle: %w", err))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ClockMode returns the parsed scheduler clock.
func (c *Config) ClockMode() sim.ClockMode {
	mode, err := sim.ParseClockMode(c.Scheduler.Clock)
	if err != nil {
		return sim.ClockWall
	}
	return mode
}

// Build creates a fresh cycle with its own controller state.
func (c CycleConfig) Build() (*sim.Cycle, error) {
	if len(c.Segments) > 0 {
		return sim.NewCycle(c.Segments)
	}
	if c.Preset == "" {
		return nil, errors.New("no preset or segments")
	}
	return sim.PresetCycle(strings.ToLower(c.Preset))
}

// SimConfig resolves the headless run length against the cycle.
func (c *Config) SimConfig(cycle *sim.Cycle) sim.Config {
	cfg := sim.Config{Dt: c.Run.Dt, Duration: c.Run.Duration}
	if cfg.Duration == 0 && cycle != nil {
		cfg.Duration = cycle.Duration()
	}
	if cfg.Duration == 0 {
		cfg.Duration = sim.DefaultConfig().Duration
	}
	return cfg
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/san-kum/evsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, physics.DefaultParams(), cfg.Vehicle)
	assert.Equal(t, sim.DefaultFrameRate, cfg.Scheduler.FrameRate)
	assert.Equal(t, sim.ClockWall, cfg.ClockMode())
	assert.Equal(t, DefaultCycle, cfg.Cycle.Preset)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evsim.yaml")

	cfg := DefaultConfig()
	cfg.Vehicle.VehicleMass = 2200
	cfg.Vehicle.DriveMode = "Sport"
	cfg.Scheduler.Clock = "fixed"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("vehicle:\n  motor_power: 300\nmodels:\n  thermal_derating: false\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300.0, cfg.Vehicle.MotorPower)
	assert.Equal(t, 1500.0, cfg.Vehicle.VehicleMass)
	assert.True(t, cfg.Models.Thermal)
	assert.False(t, cfg.Models.ThermalDerating)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		is   error
	}{
		{"mass out of range", "vehicle:\n  vehicle_mass: 50\n", dynamo.ErrParameterBounds},
		{"unknown mode", "vehicle:\n  drive_mode: Turbo\n", dynamo.ErrUnknownDriveMode},
		{"bad clock", "scheduler:\n  clock: sundial\n", nil},
		{"zero frame rate", "scheduler:\n  frame_rate: 0\n", nil},
		{"bad cycle", "cycle:\n  preset: moon\n", nil},
		{"bad level", "log_level: loud\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCycleBuild(t *testing.T) {
	c, err := CycleConfig{Preset: "Launch"}.Build()
	require.NoError(t, err)
	assert.Equal(t, 15.0, c.Duration())

	c, err = CycleConfig{Preset: "city", Segments: []sim.Segment{{Duration: 3, Accel: 1}}}.Build()
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.Duration())

	_, err = CycleConfig{}.Build()
	assert.Error(t, err)
}

func TestSimConfigDuration(t *testing.T) {
	cfg := DefaultConfig()
	cycle, err := cfg.Cycle.Build()
	require.NoError(t, err)

	assert.Equal(t, cycle.Duration(), cfg.SimConfig(cycle).Duration)
	assert.Equal(t, sim.DefaultConfig().Duration, cfg.SimConfig(nil).Duration)

	cfg.Run.Duration = 12
	assert.Equal(t, 12.0, cfg.SimConfig(cycle).Duration)
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"compact", "performance", "sedan", "suv"}, names)

	for _, name := range names {
		p, ok := GetPreset(name)
		require.True(t, ok)
		assert.NoError(t, p.Validate(), name)
	}

	_, ok := GetPreset("tractor")
	assert.False(t, ok)
}

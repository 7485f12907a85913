package config

import (
	"sort"

	"github.com/san-kum/evsim/internal/physics"
)

// Presets are named vehicle parameter sets.
var Presets = map[string]physics.Params{
	"compact": {
		BatteryVoltage: 350, BatteryCapacity: 40, MotorPower: 100, VehicleMass: 1200,
		DragCoefficient: 0.29, FrontalArea: 2.1, AirDensity: 1.225, RollingResistance: 0.009,
		GearRatio: 9, ThermalMass: 800, RegenEfficiency: 0.5, RegenBraking: true, DriveMode: "Eco",
	},
	"sedan": physics.DefaultParams(),
	"suv": {
		BatteryVoltage: 400, BatteryCapacity: 90, MotorPower: 250, VehicleMass: 2400,
		DragCoefficient: 0.35, FrontalArea: 3.0, AirDensity: 1.225, RollingResistance: 0.012,
		GearRatio: 9, ThermalMass: 1600, RegenEfficiency: 0.55, RegenBraking: true, DriveMode: "Normal",
	},
	"performance": {
		BatteryVoltage: 800, BatteryCapacity: 100, MotorPower: 450, VehicleMass: 2100,
		DragCoefficient: 0.23, FrontalArea: 2.3, AirDensity: 1.225, RollingResistance: 0.009,
		GearRatio: 10, ThermalMass: 1400, RegenEfficiency: 0.7, RegenBraking: true, DriveMode: "Sport",
	},
}

func GetPreset(name string) (physics.Params, bool) {
	p, ok := Presets[name]
	return p, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

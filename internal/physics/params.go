package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/evsim/internal/dynamo"
)

// Params are the externally editable vehicle parameters.
type Params struct {
	BatteryVoltage    float64 `yaml:"battery_voltage" json:"battery_voltage"`
	BatteryCapacity   float64 `yaml:"battery_capacity" json:"battery_capacity"`
	MotorPower        float64 `yaml:"motor_power" json:"motor_power"`
	VehicleMass       float64 `yaml:"vehicle_mass" json:"vehicle_mass"`
	DragCoefficient   float64 `yaml:"drag_coefficient" json:"drag_coefficient"`
	FrontalArea       float64 `yaml:"frontal_area" json:"frontal_area"`
	AirDensity        float64 `yaml:"air_density" json:"air_density"`
	RollingResistance float64 `yaml:"rolling_resistance" json:"rolling_resistance"`
	GearRatio         float64 `yaml:"gear_ratio" json:"gear_ratio"`
	ThermalMass       float64 `yaml:"thermal_mass" json:"thermal_mass"`
	RegenEfficiency   float64 `yaml:"regen_efficiency" json:"regen_efficiency"`
	RegenBraking      bool    `yaml:"regen_braking" json:"regen_braking"`
	DriveMode         string  `yaml:"drive_mode" json:"drive_mode"`
}

func DefaultParams() Params {
	return Params{
		BatteryVoltage:    400,
		BatteryCapacity:   60,
		MotorPower:        150,
		VehicleMass:       1500,
		DragCoefficient:   0.3,
		FrontalArea:       2.5,
		AirDensity:        1.225,
		RollingResistance: 0.01,
		GearRatio:         8,
		ThermalMass:       1000,
		RegenEfficiency:   0.5,
		RegenBraking:      true,
		DriveMode:         DefaultDriveMode,
	}
}

// ParamSpec declares a numeric parameter and its valid range.
type ParamSpec struct {
	Name  string
	Label string
	Unit  string
	Min   float64
	Max   float64
	Step  float64
	field func(*Params) *float64
}

var paramSpecs = []ParamSpec{
	{"battery_voltage", "Battery Voltage", "V", 100, 1000, 10, func(p *Params) *float64 { return &p.BatteryVoltage }},
	{"battery_capacity", "Battery Capacity", "kWh", 10, 200, 5, func(p *Params) *float64 { return &p.BatteryCapacity }},
	{"motor_power", "Motor Power", "kW", 50, 500, 10, func(p *Params) *float64 { return &p.MotorPower }},
	{"vehicle_mass", "Vehicle Mass", "kg", 1000, 3000, 50, func(p *Params) *float64 { return &p.VehicleMass }},
	{"drag_coefficient", "Drag Coefficient", "", 0.1, 0.5, 0.01, func(p *Params) *float64 { return &p.DragCoefficient }},
	{"frontal_area", "Frontal Area", "m²", 1.5, 3.5, 0.1, func(p *Params) *float64 { return &p.FrontalArea }},
	{"air_density", "Air Density", "kg/m³", 1.0, 1.5, 0.025, func(p *Params) *float64 { return &p.AirDensity }},
	{"rolling_resistance", "Rolling Resistance", "", 0.005, 0.02, 0.001, func(p *Params) *float64 { return &p.RollingResistance }},
	{"gear_ratio", "Gear Ratio", "", 4, 12, 0.5, func(p *Params) *float64 { return &p.GearRatio }},
	{"thermal_mass", "Thermal Mass", "J/°C", 500, 2000, 50, func(p *Params) *float64 { return &p.ThermalMass }},
	{"regen_efficiency", "Regen Efficiency", "", 0, 1, 0.05, func(p *Params) *float64 { return &p.RegenEfficiency }},
}

// ParamSpecs returns the numeric parameter declarations in display order.
func ParamSpecs() []ParamSpec {
	specs := make([]ParamSpec, len(paramSpecs))
	copy(specs, paramSpecs)
	return specs
}

func LookupParam(name string) (ParamSpec, bool) {
	for _, s := range paramSpecs {
		if s.Name == name {
			return s, true
		}
	}
	return ParamSpec{}, false
}

// Check validates v against the declared range.
func (s ParamSpec) Check(v float64) error {
	if math.IsNaN(v) || v < s.Min || v > s.Max {
		return &dynamo.ParamError{Name: s.Name, Value: v, Min: s.Min, Max: s.Max}
	}
	return nil
}

// Value reads the parameter from p.
func (s ParamSpec) Value(p Params) float64 {
	return *s.field(&p)
}

// Get returns a numeric parameter by name.
func (p Params) Get(name string) (float64, bool) {
	s, ok := LookupParam(name)
	if !ok {
		return 0, false
	}
	return s.Value(p), true
}

// GetParams returns every numeric parameter keyed by name.
func (p *Params) GetParams() map[string]float64 {
	out := make(map[string]float64, len(paramSpecs))
	for _, s := range paramSpecs {
		out[s.Name] = *s.field(p)
	}
	return out
}

// SetParam validates and stores one numeric parameter. Rejected values leave p unchanged.
func (p *Params) SetParam(name string, value float64) error {
	s, ok := LookupParam(name)
	if !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	if err := s.Check(value); err != nil {
		return err
	}
	*s.field(p) = value
	return nil
}

// SetDriveMode switches to a known mode. Unknown names leave p unchanged.
func (p *Params) SetDriveMode(name string) error {
	m, err := ParseDriveMode(name)
	if err != nil {
		return err
	}
	p.DriveMode = m.Name
	return nil
}

// Mode resolves the active drive mode.
func (p Params) Mode() (DriveMode, bool) {
	return LookupDriveMode(p.DriveMode)
}

// Validate checks every parameter and the drive mode.
func (p Params) Validate() error {
	var errs []error
	for _, s := range paramSpecs {
		if err := s.Check(s.Value(p)); err != nil {
			errs = append(errs, err)
		}
	}
	if _, ok := p.Mode(); !ok {
		errs = append(errs, fmt.Errorf("%w: %q", dynamo.ErrUnknownDriveMode, p.DriveMode))
	}
	return errors.Join(errs...)
}

var _ dynamo.Configurable = (*Params)(nil)

package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/evsim/internal/dynamo"
)

const (
	Gravity     = 9.81
	WheelRadius = 0.4 // m

	// MaxStep bounds a single integration step. Longer dt values are split.
	MaxStep = 0.1

	MinMotorEfficiency = 0.05
	MinTempEfficiency  = 0.05

	kmhPerMs             = 3.6
	angularVelocityFloor = 0.1 // rad/s
	minDenominator       = 1e-9

	peakMotorEfficiency = 0.85
	motorRPMScale       = 9000.0

	deratingOnsetTemp = 40.0
	deratingPerDegree = 0.01

	regenSoCCeiling = 95.0
	regenTaperSoC   = 80.0

	ambientTemp = 25.0
	coolingRate = 0.05
	heatRate    = 0.1
)

// Models selects the optional sub-models applied by the engine.
type Models struct {
	// Thermal integrates battery temperature; when off it is held constant.
	Thermal bool `yaml:"thermal"`
	// ThermalDerating reduces efficiency above the derating onset temperature.
	ThermalDerating bool `yaml:"thermal_derating"`
}

func DefaultModels() Models {
	return Models{Thermal: true, ThermalDerating: true}
}

// Advance integrates one tick with every sub-model enabled.
func Advance(s dynamo.State, p Params, accel, dt float64) (dynamo.State, error) {
	return AdvanceWith(DefaultModels(), s, p, accel, dt)
}

// AdvanceWith integrates the powertrain over dt seconds. It is pure: s is
// never modified and p is read once. A non-positive or NaN dt returns s
// unchanged. dt larger than MaxStep is integrated as equal sub-steps.
func AdvanceWith(m Models, s dynamo.State, p Params, accel, dt float64) (dynamo.State, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return s, nil
	}
	mode, ok := p.Mode()
	if !ok {
		return s, fmt.Errorf("%w: %q", dynamo.ErrUnknownDriveMode, p.DriveMode)
	}
	if math.IsNaN(accel) {
		accel = 0
	}
	a := mode.Clamp(accel)

	steps := int(math.Ceil(dt / MaxStep))
	h := dt / float64(steps)

	next := s
	for i := 0; i < steps; i++ {
		next = step(m, next, p, mode, a, h)
	}
	if !next.IsValid() {
		return s, dynamo.ErrInvalidState
	}
	return next, nil
}

func step(m Models, s dynamo.State, p Params, mode DriveMode, a, dt float64) dynamo.State {
	next := s
	mass := math.Max(p.VehicleMass, minDenominator)

	v := s.Speed / kmhPerMs
	drag := 0.5 * p.DragCoefficient * p.FrontalArea * p.AirDensity * v * v
	rolling := p.RollingResistance * p.VehicleMass * Gravity
	net := p.VehicleMass*a - drag - rolling
	v += net / mass * dt
	next.Speed = clamp(v*kmhPerMs, 0, dynamo.MaxSpeed)

	next.MotorRPM = MotorRPM(next.Speed, p.GearRatio)
	eff := MotorEfficiency(next.MotorRPM)
	omega := next.MotorRPM / 60 * 2 * math.Pi
	rated := p.MotorPower * mode.PowerFactor
	next.MotorTorque = rated * 1000 / (math.Max(angularVelocityFloor, omega) * eff)

	tempEff := 1.0
	if m.ThermalDerating {
		tempEff = TemperatureEfficiency(s.BatteryTemp)
	}
	powerUse := rated * (0.5 + 0.5*math.Abs(a)) / (eff * tempEff)
	capacity := math.Max(p.BatteryCapacity, minDenominator)

	next.EnergyConsumed += powerUse / 3600 * dt
	next.SoC = math.Max(0, stateOfCharge(next.EnergyConsumed, capacity))

	if a < 0 && p.RegenBraking && next.SoC < regenSoCCeiling {
		socFactor := 1.0
		if next.SoC > regenTaperSoC {
			socFactor = 0.5
		}
		regen := p.RegenEfficiency * powerUse * 0.5 * socFactor / 3600 * dt
		// energy never goes below zero, so soc never exceeds 100
		regen = math.Min(regen, math.Max(next.EnergyConsumed, 0))
		next.EnergyConsumed -= regen
		next.EnergyRecovered += regen
		next.SoC = clamp(stateOfCharge(next.EnergyConsumed, capacity), 0, dynamo.DefaultSoC)
	}

	if m.Thermal {
		heat := powerUse / math.Max(p.MotorPower, minDenominator) * heatRate
		cooling := coolingRate * (s.BatteryTemp - ambientTemp)
		temp := s.BatteryTemp + (heat-cooling)*dt/math.Max(p.ThermalMass, minDenominator)
		next.BatteryTemp = clamp(temp, dynamo.MinBatteryTemp, dynamo.MaxBatteryTemp)
	}

	next.Distance += next.Speed / 3600 * dt
	next.Efficiency = 0
	if next.Distance > 0 {
		next.Efficiency = next.EnergyConsumed * 1000 / next.Distance
	}

	next.Power = powerUse
	next.Voltage = p.BatteryVoltage * PackVoltageFactor(next.SoC)
	next.Current = powerUse * 1000 / math.Max(next.Voltage, minDenominator)
	next.Time += dt
	return next
}

// MotorRPM converts road speed (km/h) to motor speed through the gear ratio.
func MotorRPM(speedKmh, gearRatio float64) float64 {
	wheelRPS := speedKmh / kmhPerMs / (2 * math.Pi * WheelRadius)
	return math.Max(0, wheelRPS*60*gearRatio)
}

// MotorEfficiency falls linearly with rpm and is floored at MinMotorEfficiency.
func MotorEfficiency(rpm float64) float64 {
	return math.Max(MinMotorEfficiency, peakMotorEfficiency*(1-0.1*math.Abs(rpm/motorRPMScale)))
}

// TemperatureEfficiency derates the pack above 40 °C by 1% per degree.
func TemperatureEfficiency(tempC float64) float64 {
	return math.Max(MinTempEfficiency, 1-math.Max(0, (tempC-deratingOnsetTemp)*deratingPerDegree))
}

// PackVoltageFactor models terminal voltage sag at low charge and lift near full.
func PackVoltageFactor(soc float64) float64 {
	switch {
	case soc < 20:
		return 0.95
	case soc > 80:
		return 1.05
	default:
		return 1.0
	}
}

func stateOfCharge(energy, capacity float64) float64 {
	return dynamo.DefaultSoC - energy/capacity*100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

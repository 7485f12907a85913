package dynamo

import "math"

const (
	DefaultSoC         = 100.0
	DefaultBatteryTemp = 25.0

	MaxSpeed       = 180.0
	MinBatteryTemp = 10.0
	MaxBatteryTemp = 70.0
)

// State is the engine state. Only the physics engine produces new values;
// everything else reads copies.
type State struct {
	Speed           float64 `json:"speed_kmh"`
	SoC             float64 `json:"soc_pct"`
	Distance        float64 `json:"distance_km"`
	EnergyConsumed  float64 `json:"energy_consumed_kwh"`
	EnergyRecovered float64 `json:"energy_recovered_kwh"`
	BatteryTemp     float64 `json:"battery_temp_c"`
	MotorTorque     float64 `json:"motor_torque_nm"`
	MotorRPM        float64 `json:"motor_rpm"`
	Efficiency      float64 `json:"efficiency_wh_per_km"`

	// Electrical outputs feeding the voltage and current channels.
	Voltage float64 `json:"voltage_v"`
	Current float64 `json:"current_a"`
	Power   float64 `json:"power_kw"`

	Time float64 `json:"time_s"`
}

// DefaultState returns the post-reset state for a pack at the given nominal voltage.
func DefaultState(packVoltage float64) State {
	return State{
		SoC:         DefaultSoC,
		BatteryTemp: DefaultBatteryTemp,
		Voltage:     packVoltage,
	}
}

func (s State) fields() [13]float64 {
	return [13]float64{
		s.Speed, s.SoC, s.Distance, s.EnergyConsumed, s.EnergyRecovered,
		s.BatteryTemp, s.MotorTorque, s.MotorRPM, s.Efficiency,
		s.Voltage, s.Current, s.Power, s.Time,
	}
}

// IsValid reports whether every field is finite.
func (s State) IsValid() bool {
	for _, v := range s.fields() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// InBounds reports whether the state satisfies the engine invariants.
func (s State) InBounds() bool {
	return s.IsValid() &&
		s.SoC >= 0 && s.SoC <= DefaultSoC &&
		s.Speed >= 0 && s.Speed <= MaxSpeed &&
		s.BatteryTemp >= MinBatteryTemp && s.BatteryTemp <= MaxBatteryTemp &&
		s.Distance >= 0 && s.MotorRPM >= 0
}

// Lifecycle gates whether ticks reach the physics engine.
type Lifecycle int32

const (
	Stopped Lifecycle = iota
	Running
	Paused
)

func (l Lifecycle) String() string {
	switch l {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Configurable is implemented by parameter sets that can be edited by name.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

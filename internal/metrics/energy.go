package metrics

import (
	"github.com/san-kum/evsim/internal/dynamo"
)

// EnergyIntensity is net consumption in kWh per 100 km at the last state.
type EnergyIntensity struct {
	name     string
	energy   float64
	distance float64
}

func NewEnergyIntensity() *EnergyIntensity {
	return &EnergyIntensity{name: "kwh_per_100km"}
}

func (e *EnergyIntensity) Name() string { return e.name }

func (e *EnergyIntensity) Observe(s dynamo.State, command float64) {
	e.energy = s.EnergyConsumed
	e.distance = s.Distance
}

func (e *EnergyIntensity) Value() float64 {
	if e.distance <= 0 {
		return 0
	}
	return e.energy / e.distance * 100
}

func (e *EnergyIntensity) Reset() {
	e.energy = 0
	e.distance = 0
}

// RegenRecovery is the share of drawn energy returned by regenerative
// braking.
type RegenRecovery struct {
	name      string
	recovered float64
	drawn     float64
}

func NewRegenRecovery() *RegenRecovery {
	return &RegenRecovery{name: "regen_recovery"}
}

func (r *RegenRecovery) Name() string { return r.name }

func (r *RegenRecovery) Observe(s dynamo.State, command float64) {
	r.recovered = s.EnergyRecovered
	// EnergyConsumed is already net of recovery
	r.drawn = s.EnergyConsumed + s.EnergyRecovered
}

func (r *RegenRecovery) Value() float64 {
	if r.drawn <= 0 {
		return 0
	}
	return r.recovered / r.drawn
}

func (r *RegenRecovery) Reset() {
	r.recovered = 0
	r.drawn = 0
}

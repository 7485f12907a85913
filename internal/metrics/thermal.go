package metrics

import (
	"github.com/san-kum/evsim/internal/dynamo"
)

// ThermalHeadroom is the fraction of samples with the battery at or below
// threshold °C.
type ThermalHeadroom struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewThermalHeadroom(threshold float64) *ThermalHeadroom {
	return &ThermalHeadroom{
		name:      "thermal_headroom",
		threshold: threshold,
	}
}

func (h *ThermalHeadroom) Name() string {
	return h.name
}

func (h *ThermalHeadroom) Observe(s dynamo.State, command float64) {
	h.samples++
	if s.BatteryTemp > h.threshold {
		h.violations++
	}
}

func (h *ThermalHeadroom) Value() float64 {
	if h.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(h.violations)/float64(h.samples)
}

func (h *ThermalHeadroom) Reset() {
	h.violations = 0
	h.samples = 0
}

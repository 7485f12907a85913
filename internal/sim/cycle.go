package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/evsim/internal/control"
	"github.com/san-kum/evsim/internal/dynamo"
)

// Cruise controller gains and output limits (m/s²).
const (
	cruiseKp     = 0.5
	cruiseKi     = 0.05
	cruiseKd     = 0.0
	cruiseMaxAcc = 1.5
)

// Segment is one leg of a drive cycle. A positive TargetSpeed (km/h) makes it
// a cruise segment held by a PID controller; otherwise Accel is commanded.
type Segment struct {
	Duration    float64 `yaml:"duration" json:"duration"`
	Accel       float64 `yaml:"accel,omitempty" json:"accel,omitempty"`
	TargetSpeed float64 `yaml:"target_speed,omitempty" json:"target_speed,omitempty"`
}

func (s Segment) Validate() error {
	if !(s.Duration > 0) || math.IsInf(s.Duration, 0) {
		return fmt.Errorf("segment duration must be positive, got %g", s.Duration)
	}
	if math.IsNaN(s.Accel) || math.IsInf(s.Accel, 0) {
		return fmt.Errorf("segment accel must be finite, got %g", s.Accel)
	}
	if s.TargetSpeed < 0 || s.TargetSpeed > dynamo.MaxSpeed || math.IsNaN(s.TargetSpeed) {
		return fmt.Errorf("segment target speed %g outside [0, %g]", s.TargetSpeed, dynamo.MaxSpeed)
	}
	return nil
}

// Cycle turns elapsed time and measured speed into a drive command.
type Cycle struct {
	segments    []Segment
	controllers []control.Controller
	ends        []float64
	current     int
}

func NewCycle(segments []Segment) (*Cycle, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("drive cycle has no segments")
	}

	c := &Cycle{
		segments:    append([]Segment(nil), segments...),
		controllers: make([]control.Controller, len(segments)),
		ends:        make([]float64, len(segments)),
		current:     -1,
	}
	end := 0.0
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		if seg.TargetSpeed > 0 {
			pid := control.NewPID(cruiseKp, cruiseKi, cruiseKd, seg.TargetSpeed)
			pid.SetLimits(-cruiseMaxAcc, cruiseMaxAcc)
			c.controllers[i] = pid
		} else {
			c.controllers[i] = control.NewConstant(seg.Accel)
		}
		end += seg.Duration
		c.ends[i] = end
	}
	return c, nil
}

// Duration is the total length of the cycle in seconds.
func (c *Cycle) Duration() float64 { return c.ends[len(c.ends)-1] }

func (c *Cycle) Segments() []Segment { return append([]Segment(nil), c.segments...) }

// Command returns the acceleration for elapsed time t given the current
// speed in km/h. Past the end of the cycle it is 0.
func (c *Cycle) Command(t, speedKmh float64) float64 {
	idx := sort.SearchFloat64s(c.ends, t)
	if idx < len(c.ends) && c.ends[idx] == t {
		idx++
	}
	if idx >= len(c.segments) {
		return 0
	}
	if idx != c.current {
		if pid, ok := c.controllers[idx].(*control.PID); ok {
			pid.Reset()
		}
		c.current = idx
	}
	return c.controllers[idx].Compute(speedKmh, t)
}

// Reset rewinds the cycle so controllers start fresh.
func (c *Cycle) Reset() { c.current = -1 }

// CyclePresets are the built-in drive cycles.
var CyclePresets = map[string][]Segment{
	"launch": {
		{Duration: 10, Accel: 1.0},
		{Duration: 5},
	},
	"city": {
		{Duration: 8, Accel: 1.0},
		{Duration: 30, TargetSpeed: 50},
		{Duration: 10, Accel: -1.0},
		{Duration: 5},
		{Duration: 8, Accel: 0.8},
		{Duration: 20, TargetSpeed: 40},
		{Duration: 8, Accel: -1.0},
	},
	"highway": {
		{Duration: 15, Accel: 1.0},
		{Duration: 120, TargetSpeed: 100},
		{Duration: 60, TargetSpeed: 120},
		{Duration: 20, Accel: -0.8},
	},
	"brake-test": {
		{Duration: 10, Accel: 1.5},
		{Duration: 10, Accel: -1.5},
	},
}

// PresetCycle builds a named preset cycle.
func PresetCycle(name string) (*Cycle, error) {
	segs, ok := CyclePresets[name]
	if !ok {
		return nil, fmt.Errorf("unknown drive cycle %q", name)
	}
	return NewCycle(segs)
}

// CyclePresetNames returns preset names in sorted order.
func CyclePresetNames() []string {
	names := make([]string, 0, len(CyclePresets))
	for name := range CyclePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

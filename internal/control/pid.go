package control

import (
	"fmt"
	"math"

	"github.com/san-kum/evsim/internal/dynamo"
)

// PID tracks a target speed. Output is clamped to [OutMin, OutMax] and the
// integral only accumulates while the output is unsaturated.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	OutMin   float64
	OutMax   float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		OutMin: math.Inf(-1),
		OutMax: math.Inf(1),
		first:  true,
	}
}

// SetLimits bounds the controller output.
func (p *PID) SetLimits(lo, hi float64) {
	p.OutMin, p.OutMax = lo, hi
}

func (p *PID) Compute(speed float64, t float64) float64 {
	err := p.Target - speed

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.saturate(p.Kp * err)
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.saturate(p.Kp*err + p.Ki*p.integral)
	}

	derivative := (err - p.prevErr) / dt
	candidate := p.integral + err*dt
	u := p.Kp*err + p.Ki*candidate + p.Kd*derivative
	if u >= p.OutMin && u <= p.OutMax {
		p.integral = candidate
	} else {
		u = p.Kp*err + p.Ki*p.integral + p.Kd*derivative
	}

	p.prevErr = err
	p.prevT = t

	return p.saturate(u)
}

func (p *PID) saturate(u float64) float64 {
	return math.Max(p.OutMin, math.Min(p.OutMax, u))
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":     p.Kp,
		"ki":     p.Ki,
		"kd":     p.Kd,
		"target": p.Target,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &dynamo.ParamError{Name: name, Value: value, Min: math.Inf(-1), Max: math.Inf(1)}
	}
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "target":
		if value < 0 || value > dynamo.MaxSpeed {
			return &dynamo.ParamError{Name: name, Value: value, Min: 0, Max: dynamo.MaxSpeed}
		}
		p.Target = value
	default:
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	return nil
}

var (
	_ Controller          = (*PID)(nil)
	_ dynamo.Configurable = (*PID)(nil)
)

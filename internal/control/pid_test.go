package control

import (
	"errors"
	"testing"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDProportionalFirstStep(t *testing.T) {
	pid := NewPID(0.5, 0.1, 0, 50)
	assert.InDelta(t, 25.0, pid.Compute(0, 0), 1e-12)
}

func TestPIDSaturates(t *testing.T) {
	pid := NewPID(0.5, 0.1, 0, 100)
	pid.SetLimits(-1, 1)

	assert.Equal(t, 1.0, pid.Compute(0, 0))
	assert.Equal(t, 1.0, pid.Compute(0, 1))
	assert.Equal(t, -1.0, newLimitedPID(0.5, 0, 0, 0, -1, 1).Compute(100, 0))
}

func newLimitedPID(kp, ki, kd, target, lo, hi float64) *PID {
	p := NewPID(kp, ki, kd, target)
	p.SetLimits(lo, hi)
	return p
}

func TestPIDNoWindupWhileSaturated(t *testing.T) {
	pid := newLimitedPID(0.5, 0.1, 0, 100, -1, 1)
	for i := 0; i < 100; i++ {
		pid.Compute(0, float64(i))
	}
	assert.Zero(t, pid.integral)
}

func TestPIDIntegralRemovesOffset(t *testing.T) {
	pid := newLimitedPID(0.5, 0.2, 0, 10, -5, 5)
	pid.Compute(9, 0)
	u1 := pid.Compute(9, 1)
	u2 := pid.Compute(9, 2)
	assert.Greater(t, u2, u1)
}

func TestPIDReset(t *testing.T) {
	pid := NewPID(1, 1, 0, 10)
	pid.Compute(0, 0)
	pid.Compute(0, 1)
	pid.Reset()
	assert.Zero(t, pid.integral)
	assert.True(t, pid.first)
}

func TestPIDSetParam(t *testing.T) {
	pid := NewPID(1, 0, 0, 10)
	require.NoError(t, pid.SetParam("target", 80))
	assert.Equal(t, 80.0, pid.GetParams()["target"])

	err := pid.SetParam("target", 500)
	assert.True(t, errors.Is(err, dynamo.ErrParameterBounds))
	assert.Equal(t, 80.0, pid.Target)

	err = pid.SetParam("gain", 1)
	assert.True(t, errors.Is(err, dynamo.ErrUnknownParameter))
}

func TestConstant(t *testing.T) {
	c := NewConstant(-0.4)
	assert.Equal(t, -0.4, c.Compute(100, 3))
}

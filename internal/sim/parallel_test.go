package sim

import (
	"context"
	"testing"

	"github.com/san-kum/evsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsembleDriveModes(t *testing.T) {
	variants := DriveModeVariants(physics.DefaultParams())
	require.Len(t, variants, 3)

	e := NewEnsemble(variants, physics.DefaultModels(), []Segment{{Duration: 10, Accel: 1.0}})
	results, err := e.Run(context.Background(), Config{Dt: 0.1, Duration: 10})
	require.NoError(t, err)
	require.Len(t, results, len(variants))

	for i, v := range variants {
		assert.Equal(t, v.Name, results[i].Params.DriveMode)
	}

	eco, sport := results[0], results[2]
	assert.Equal(t, "Eco", eco.Params.DriveMode)
	assert.Equal(t, "Sport", sport.Params.DriveMode)
	assert.Greater(t, sport.State.Speed, eco.State.Speed)
}

func TestEnsembleInvalidVariant(t *testing.T) {
	bad := physics.DefaultParams()
	bad.VehicleMass = 1
	e := NewEnsemble([]Variant{{Name: "ok", Params: physics.DefaultParams()}, {Name: "bad", Params: bad}}, physics.DefaultModels(), nil)

	_, err := e.Run(context.Background(), DefaultConfig())
	assert.ErrorContains(t, err, "variant bad")
}

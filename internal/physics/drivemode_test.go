package physics

import (
	"errors"
	"testing"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriveModeTable(t *testing.T) {
	tests := []struct {
		name        string
		maxAccel    float64
		powerFactor float64
	}{
		{"Eco", 0.5, 0.7},
		{"Normal", 1.0, 1.0},
		{"Sport", 1.5, 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := LookupDriveMode(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.maxAccel, m.MaxAccel)
			assert.Equal(t, tt.powerFactor, m.PowerFactor)
		})
	}

	assert.Equal(t, []string{"Eco", "Normal", "Sport"}, DriveModes())
}

func TestParseDriveMode(t *testing.T) {
	m, err := ParseDriveMode("sport")
	require.NoError(t, err)
	assert.Equal(t, "Sport", m.Name)

	_, err = ParseDriveMode("Ludicrous")
	assert.True(t, errors.Is(err, dynamo.ErrUnknownDriveMode))
}

func TestNextDriveMode(t *testing.T) {
	assert.Equal(t, "Normal", NextDriveMode("Eco"))
	assert.Equal(t, "Eco", NextDriveMode("Sport"))
	assert.Equal(t, "Eco", NextDriveMode("bogus"))
}

func TestDriveModeClamp(t *testing.T) {
	eco, _ := LookupDriveMode("Eco")
	assert.Equal(t, 0.5, eco.Clamp(1.5))
	assert.Equal(t, -0.5, eco.Clamp(-3))
	assert.Equal(t, 0.2, eco.Clamp(0.2))
}

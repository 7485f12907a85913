package physics

import (
	"fmt"
	"strings"

	"github.com/san-kum/evsim/internal/dynamo"
)

// DriveMode constrains the commanded acceleration and scales rated motor power.
type DriveMode struct {
	Name        string
	MaxAccel    float64 // m/s²
	PowerFactor float64
}

const DefaultDriveMode = "Normal"

// Built once, never written: safe for concurrent reads.
var driveModes = [...]DriveMode{
	{Name: "Eco", MaxAccel: 0.5, PowerFactor: 0.7},
	{Name: "Normal", MaxAccel: 1.0, PowerFactor: 1.0},
	{Name: "Sport", MaxAccel: 1.5, PowerFactor: 1.3},
}

// LookupDriveMode finds a mode by its exact name.
func LookupDriveMode(name string) (DriveMode, bool) {
	for _, m := range driveModes {
		if m.Name == name {
			return m, true
		}
	}
	return DriveMode{}, false
}

// ParseDriveMode resolves a user-supplied mode name, ignoring case.
func ParseDriveMode(name string) (DriveMode, error) {
	for _, m := range driveModes {
		if strings.EqualFold(m.Name, strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return DriveMode{}, fmt.Errorf("%w: %q (available: %s)", dynamo.ErrUnknownDriveMode, name, strings.Join(DriveModes(), ", "))
}

// DriveModes lists mode names in table order.
func DriveModes() []string {
	names := make([]string, len(driveModes))
	for i, m := range driveModes {
		names[i] = m.Name
	}
	return names
}

// NextDriveMode returns the mode after name, wrapping around. Unknown names map to the first mode.
func NextDriveMode(name string) string {
	for i, m := range driveModes {
		if m.Name == name {
			return driveModes[(i+1)%len(driveModes)].Name
		}
	}
	return driveModes[0].Name
}

// Clamp limits a commanded acceleration to the mode envelope.
func (m DriveMode) Clamp(accel float64) float64 {
	return clamp(accel, -m.MaxAccel, m.MaxAccel)
}

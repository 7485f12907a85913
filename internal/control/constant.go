package control

// Controller produces a commanded acceleration from the measured speed (km/h).
type Controller interface {
	Compute(speed float64, t float64) float64
}

// Constant always commands the same acceleration.
type Constant struct {
	Accel float64
}

func NewConstant(accel float64) *Constant {
	return &Constant{Accel: accel}
}

func (c *Constant) Compute(speed float64, t float64) float64 {
	return c.Accel
}

// Package control provides command sources for the powertrain.
//
// Controllers implement [Controller]: given the measured road speed and
// the elapsed time they return a commanded acceleration in m/s².
//
//   - [PID]: speed-hold controller for cruise segments
//   - [Constant]: fixed command (zero when coasting)
//
// # Usage
//
//	pid := control.NewPID(0.5, 0.05, 0, 50) // Kp, Ki, Kd, target km/h
//	pid.SetLimits(-1.5, 1.5)
//	accel := pid.Compute(speedKmh, t)
//
// Controllers implementing [dynamo.Configurable] support live tuning.
package control

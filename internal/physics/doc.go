// Package physics implements the EV powertrain model.
//
// [Advance] is a pure function of (state, parameters, command, dt) that
// integrates, in order:
//
//   - vehicle dynamics: commanded force minus aerodynamic drag and rolling resistance
//   - motor model: rpm through the gear ratio, rpm-dependent efficiency, torque
//   - energy: battery draw derated by pack temperature, state of charge
//   - regenerative braking while decelerating below 95% charge
//   - battery thermal balance against a 25 °C ambient
//
// Drive modes ([LookupDriveMode]) cap the commanded acceleration and scale
// rated motor power. [Params] implements [dynamo.Configurable]; every
// numeric field has a declared range in [ParamSpecs].
//
// Every denominator that can approach zero is floored, so Advance never
// produces NaN or Inf.
package physics

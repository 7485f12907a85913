// Package dynamo provides the core value types shared by the powertrain
// simulation packages.
//
//   - [State]: engine state advanced once per tick by the physics engine
//   - [Lifecycle]: Stopped / Running / Paused gate around ticking
//   - [Configurable]: named, range-checked parameter sets
//
// # Errors
//
// All recoverable failures are reported with the sentinel errors in this
// package, wrapped with context. Callers test them with [errors.Is]:
//
//	if err := sim.SetParameter("vehicle_mass", 9000); errors.Is(err, dynamo.ErrParameterBounds) {
//	    // previous value is still in effect
//	}
//
// # Thread Safety
//
// [State] is a plain value and safe to copy between goroutines.
package dynamo

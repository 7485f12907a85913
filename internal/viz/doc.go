// Package viz is the terminal dashboard for a running simulation.
//
// [Model] is a Bubble Tea program that never advances the engine itself: a
// sim.Scheduler ticks the simulator on its own goroutine and the dashboard
// redraws whenever the simulator signals a change.
//
// # Key Bindings
//
//	s       - Start
//	Space   - Pause/Resume
//	x       - Stop
//	r       - Reset to defaults
//	↑/↓     - Drive command ±0.1 m/s²
//	0       - Zero the command
//	m       - Cycle drive mode
//	b       - Toggle regenerative braking
//	Tab     - Select parameter
//	+/-     - Adjust selected parameter
//	1-4     - Toggle voltage/current/speed/temperature plots
//	e       - Export history to CSV
//	?       - Help overlay
//	q       - Quit
package viz

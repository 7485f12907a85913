package sim

import (
	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/history"
	"github.com/san-kum/evsim/internal/physics"
)

// Snapshot is an immutable view of the simulator published after every
// tick and lifecycle change. It is safe to read from any goroutine.
type Snapshot struct {
	Lifecycle dynamo.Lifecycle `json:"lifecycle"`
	State     dynamo.State     `json:"state"`
	Params    physics.Params   `json:"params"`
	Command   float64          `json:"command"`
	Ticks     uint64           `json:"ticks"`
	Resets    uint64           `json:"resets"`

	// Seq numbers publications; observers see it strictly increasing.
	Seq uint64 `json:"-"`

	// History is a frozen copy; never record into it.
	History *history.Buffers `json:"-"`
}

// Observer is notified after each published snapshot, on the goroutine
// that published it. Calls never overlap and arrive in publication order.
// Implementations must return quickly and must not call methods that
// change the simulator.
type Observer interface {
	OnTick(snap *Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(snap *Snapshot)

func (f ObserverFunc) OnTick(snap *Snapshot) { f(snap) }

// Config describes a headless fixed-step run.
type Config struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
}

func DefaultConfig() Config {
	return Config{
		Dt:       1.0 / 60,
		Duration: 60,
	}
}

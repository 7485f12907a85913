package metrics

import (
	"sync"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/sim"
)

// Metric accumulates a scalar over the states of a run.
type Metric interface {
	Name() string
	Observe(s dynamo.State, command float64)
	Value() float64
	Reset()
}

// Collector feeds every ticked snapshot to its metrics. It implements
// sim.Observer and may be read from other goroutines.
type Collector struct {
	mu      sync.Mutex
	metrics []Metric
	resets  uint64
	last    uint64
}

func NewCollector(metrics ...Metric) *Collector {
	return &Collector{metrics: metrics}
}

// Standard returns the metrics reported by the CLI.
func Standard() []Metric {
	return []Metric{
		NewControlEffort(),
		NewEnergyIntensity(),
		NewRegenRecovery(),
		NewThermalHeadroom(40),
	}
}

func (c *Collector) OnTick(snap *sim.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snap.Resets != c.resets {
		for _, m := range c.metrics {
			m.Reset()
		}
		c.resets, c.last = snap.Resets, 0
	}
	// lifecycle and parameter publications repeat the tick count
	if snap.Ticks <= c.last {
		return
	}
	c.last = snap.Ticks
	if snap.Ticks == 0 {
		return
	}
	for _, m := range c.metrics {
		m.Observe(snap.State, snap.Command)
	}
}

// Values returns each metric's current value keyed by name.
func (c *Collector) Values() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

var _ sim.Observer = (*Collector)(nil)

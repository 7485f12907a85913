package metrics

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/history"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/san-kum/evsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	assert.Equal(t, 0.0, m.Value())

	m.Observe(dynamo.State{}, 1.0)
	m.Observe(dynamo.State{}, -0.5)
	assert.InDelta(t, 0.75, m.Value(), 1e-12)

	m.Reset()
	assert.Equal(t, 0.0, m.Value())
}

func TestEnergyIntensity(t *testing.T) {
	m := NewEnergyIntensity()
	m.Observe(dynamo.State{}, 0)
	assert.Equal(t, 0.0, m.Value())

	m.Observe(dynamo.State{EnergyConsumed: 3, Distance: 20}, 0)
	assert.InDelta(t, 15.0, m.Value(), 1e-12)
}

func TestRegenRecovery(t *testing.T) {
	m := NewRegenRecovery()
	m.Observe(dynamo.State{EnergyConsumed: 3, EnergyRecovered: 1}, 0)
	assert.InDelta(t, 0.25, m.Value(), 1e-12)

	m.Reset()
	assert.Equal(t, 0.0, m.Value())
}

func TestThermalHeadroom(t *testing.T) {
	m := NewThermalHeadroom(40)
	assert.Equal(t, 1.0, m.Value())

	for _, temp := range []float64{25, 39, 41, 55} {
		m.Observe(dynamo.State{BatteryTemp: temp}, 0)
	}
	assert.InDelta(t, 0.5, m.Value(), 1e-12)
}

func TestSummarize(t *testing.T) {
	h := history.New(history.Sample{})
	for i := 1; i <= history.Capacity; i++ {
		var s history.Sample
		s[history.Speed] = float64(i)
		h.Record(s)
	}

	sum := Summarize(h, history.Speed)
	assert.Equal(t, history.Speed, sum.Channel)
	assert.Equal(t, 1.0, sum.Min)
	assert.Equal(t, 200.0, sum.Max)
	assert.InDelta(t, 100.5, sum.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(200*201/12.0), sum.StdDev, 1e-9)
	assert.Equal(t, 190.0, sum.P95)
	assert.Equal(t, 200.0, sum.Last)
}

func TestReportCoversEveryChannel(t *testing.T) {
	h := history.New(history.SampleOf(dynamo.DefaultState(400)))
	report := Report(h)
	require.Len(t, report, int(history.NumChannels))

	for i, sum := range report {
		assert.Equal(t, history.Channels()[i], sum.Channel)
		assert.Equal(t, sum.Min, sum.Max)
		assert.Equal(t, 0.0, sum.StdDev)
	}
	assert.Equal(t, 400.0, report[history.Voltage].Mean)
}

func TestCollectorFollowsSimulator(t *testing.T) {
	s, err := sim.New(physics.DefaultParams(), physics.DefaultModels())
	require.NoError(t, err)

	effort := NewControlEffort()
	c := NewCollector(effort)
	s.AddObserver(c)

	s.SetCommand(1.0)
	_, err = s.RunFor(context.Background(), sim.Config{Dt: 0.1, Duration: 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.Values()["control_effort"], 1e-12)

	// lifecycle publications do not count as samples
	require.NoError(t, s.Pause())
	assert.Equal(t, 10, effort.samples)

	require.NoError(t, s.Reset())
	require.NoError(t, s.Start())
	require.True(t, s.Tick(0.1))
	assert.Equal(t, 1, effort.samples)
	assert.Equal(t, 0.0, c.Values()["control_effort"])
}

func TestCollectorKeepsSamplesDuringParameterEdits(t *testing.T) {
	s, err := sim.New(physics.DefaultParams(), physics.DefaultModels())
	require.NoError(t, err)

	effort := NewControlEffort()
	s.AddObserver(NewCollector(effort))
	require.NoError(t, s.Start())
	s.SetCommand(1.0)

	const n = 5000
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.Tick(0.01)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.SetRegenBraking(i%2 == 0)
		}
	}()
	wg.Wait()

	assert.Equal(t, uint64(n), s.Ticks())
	assert.Equal(t, int(s.Ticks()), effort.samples)
}

func TestStandardMetricNames(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Standard() {
		names[m.Name()] = true
	}
	assert.Len(t, names, 4)
	assert.True(t, names["thermal_headroom"])
}

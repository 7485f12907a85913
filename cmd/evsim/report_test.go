package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/san-kum/evsim/internal/history"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/san-kum/evsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannels(t *testing.T) {
	chs, err := parseChannels("speed, SoC")
	require.NoError(t, err)
	assert.Equal(t, []history.Channel{history.Speed, history.SoC}, chs)

	chs, err = parseChannels("none")
	require.NoError(t, err)
	assert.Empty(t, chs)

	_, err = parseChannels("speed,altitude")
	assert.Error(t, err)
}

func TestTraceRecordsEveryTick(t *testing.T) {
	s, err := sim.New(physics.DefaultParams(), physics.DefaultModels())
	require.NoError(t, err)
	tr := newTrace([]history.Channel{history.Speed})
	s.AddObserver(tr)

	s.SetCommand(1.0)
	_, err = s.RunFor(context.Background(), sim.Config{Dt: 0.1, Duration: 30}, nil)
	require.NoError(t, err)

	require.Len(t, tr.series[0], 300)
	assert.Greater(t, tr.series[0][299], tr.series[0][0])

	var buf bytes.Buffer
	tr.plot(&buf)
	assert.Contains(t, buf.String(), "Speed (km/h)")
}

func TestPrintComparison(t *testing.T) {
	variants := sim.DriveModeVariants(physics.DefaultParams())
	results, err := sim.NewEnsemble(variants, physics.DefaultModels(), []sim.Segment{{Duration: 5, Accel: 1}}).
		Run(context.Background(), sim.Config{Dt: 0.1, Duration: 5})
	require.NoError(t, err)

	var buf bytes.Buffer
	printComparison(&buf, variants, results)
	for _, mode := range physics.DriveModes() {
		assert.Contains(t, buf.String(), mode)
	}
}

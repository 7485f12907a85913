package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/evsim/internal/config"
	"github.com/san-kum/evsim/internal/history"
	"github.com/san-kum/evsim/internal/metrics"
	"github.com/san-kum/evsim/internal/sim"
	"github.com/san-kum/evsim/internal/storage"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func printSummary(w io.Writer, snap *sim.Snapshot, values map[string]float64) {
	st := snap.State
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s · %.1f s · %d ticks", snap.Params.DriveMode, st.Time, snap.Ticks)))

	final := newTable("quantity", "value")
	final.Row("speed", fmt.Sprintf("%.2f km/h", st.Speed))
	final.Row("distance", fmt.Sprintf("%.3f km", st.Distance))
	final.Row("state of charge", fmt.Sprintf("%.2f %%", st.SoC))
	final.Row("energy used", fmt.Sprintf("%.3f kWh", st.EnergyConsumed))
	final.Row("energy recovered", fmt.Sprintf("%.3f kWh", st.EnergyRecovered))
	final.Row("battery temp", fmt.Sprintf("%.2f °C", st.BatteryTemp))
	final.Row("efficiency", fmt.Sprintf("%.1f Wh/km", st.Efficiency))

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		final.Row(name, fmt.Sprintf("%.3f", values[name]))
	}
	fmt.Fprintln(w, final)

	stats := newTable("channel (last 200 ticks)", "min", "max", "mean", "std", "p95")
	for _, s := range metrics.Report(snap.History) {
		stats.Row(s.Channel.Label(),
			fmt.Sprintf("%.2f", s.Min), fmt.Sprintf("%.2f", s.Max),
			fmt.Sprintf("%.2f", s.Mean), fmt.Sprintf("%.2f", s.StdDev),
			fmt.Sprintf("%.2f", s.P95))
	}
	fmt.Fprintln(w, stats)
}

func printComparison(w io.Writer, variants []sim.Variant, results []*sim.Snapshot) {
	t := newTable("mode", "speed km/h", "distance km", "SoC %", "energy kWh", "recovered kWh", "temp °C", "Wh/km")
	for i, snap := range results {
		st := snap.State
		t.Row(variants[i].Name,
			fmt.Sprintf("%.2f", st.Speed),
			fmt.Sprintf("%.3f", st.Distance),
			fmt.Sprintf("%.2f", st.SoC),
			fmt.Sprintf("%.3f", st.EnergyConsumed),
			fmt.Sprintf("%.3f", st.EnergyRecovered),
			fmt.Sprintf("%.2f", st.BatteryTemp),
			fmt.Sprintf("%.1f", st.Efficiency))
	}
	fmt.Fprintln(w, t)
}

// parseChannels resolves a comma separated list of channel names.
func parseChannels(list string) ([]history.Channel, error) {
	list = strings.TrimSpace(list)
	if list == "" || list == "none" {
		return nil, nil
	}
	var out []history.Channel
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		found := false
		for _, ch := range history.Channels() {
			if strings.EqualFold(ch.String(), name) {
				out = append(out, ch)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown channel %q", name)
		}
	}
	return out, nil
}

// trace records selected channels for every tick of a headless run, beyond
// the history window.
type trace struct {
	mu       sync.Mutex
	channels []history.Channel
	series   [][]float64
	last     uint64
}

func newTrace(channels []history.Channel) *trace {
	return &trace{channels: channels, series: make([][]float64, len(channels))}
}

func (t *trace) OnTick(snap *sim.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap.Ticks == t.last {
		return
	}
	t.last = snap.Ticks
	sample := history.SampleOf(snap.State)
	for i, ch := range t.channels {
		t.series[i] = append(t.series[i], sample[ch])
	}
}

func (t *trace) plot(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, ch := range t.channels {
		if len(t.series[i]) == 0 {
			continue
		}
		fmt.Fprintln(w, asciigraph.Plot(t.series[i],
			asciigraph.Height(config.DefaultPlotHeight),
			asciigraph.Width(config.DefaultPlotWidth),
			asciigraph.Caption(ch.Label()),
		))
		fmt.Fprintln(w)
	}
}

func plotExport(w io.Writer, exp *storage.Export) {
	fmt.Fprintln(w, titleStyle.Render(exp.Name))
	fmt.Fprintln(w, exp.Header)
	fmt.Fprintln(w)

	columns := []struct {
		label string
		value func(storage.Row) float64
	}{
		{history.Speed.Label(), func(r storage.Row) float64 { return float64(r.Speed) }},
		{history.SoC.Label(), func(r storage.Row) float64 { return float64(r.SoC) }},
		{history.Temperature.Label(), func(r storage.Row) float64 { return float64(r.Temperature) }},
	}
	for _, col := range columns {
		data := make([]float64, len(exp.Rows))
		for i, r := range exp.Rows {
			data[i] = col.value(r)
		}
		if len(data) == 0 {
			continue
		}
		fmt.Fprintln(w, asciigraph.Plot(data,
			asciigraph.Height(config.DefaultPlotHeight),
			asciigraph.Width(config.DefaultPlotWidth),
			asciigraph.Caption(col.label),
		))
		fmt.Fprintln(w)
	}
}

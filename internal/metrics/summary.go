package metrics

import (
	"sort"

	"github.com/san-kum/evsim/internal/history"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one history channel.
type Summary struct {
	Channel history.Channel
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
	P95     float64
	Last    float64
}

// Summarize computes statistics for ch over the whole buffer.
func Summarize(h *history.Buffers, ch history.Channel) Summary {
	values := h.Channel(ch, make([]float64, 0, history.Capacity))
	sum := Summary{Channel: ch}
	if len(values) == 0 {
		return sum
	}
	sum.Last = values[len(values)-1]
	sum.Min = floats.Min(values)
	sum.Max = floats.Max(values)
	sum.Mean, sum.StdDev = stat.MeanStdDev(values, nil)

	sort.Float64s(values)
	sum.P95 = stat.Quantile(0.95, stat.Empirical, values, nil)
	return sum
}

// Report summarizes every channel in display order.
func Report(h *history.Buffers) []Summary {
	channels := history.Channels()
	out := make([]Summary, len(channels))
	for i, ch := range channels {
		out[i] = Summarize(h, ch)
	}
	return out
}

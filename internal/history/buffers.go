// Package history keeps the rolling per-channel record of engine outputs.
//
// [Buffers] holds seven fixed-capacity circular buffers that share one
// write cursor. They are allocated once, always hold exactly [Capacity]
// samples, and are read back oldest first regardless of where the cursor
// sits. Buffers are not safe for concurrent use; hand another goroutine a
// [Buffers.Clone] and never record into it.
package history

import (
	"iter"

	"github.com/san-kum/evsim/internal/dynamo"
)

const Capacity = 200

// Channel identifies one recorded quantity.
type Channel int

const (
	Voltage Channel = iota
	Current
	Speed
	Temperature
	SoC
	Torque
	Efficiency
	NumChannels
)

type channelInfo struct {
	name string
	unit string
}

var channelInfos = [NumChannels]channelInfo{
	Voltage:     {"Voltage", "V"},
	Current:     {"Current", "A"},
	Speed:       {"Speed", "km/h"},
	Temperature: {"Temperature", "°C"},
	SoC:         {"SoC", "%"},
	Torque:      {"Torque", "Nm"},
	Efficiency:  {"Efficiency", "Wh/km"},
}

func (c Channel) String() string {
	if c < 0 || c >= NumChannels {
		return "unknown"
	}
	return channelInfos[c].name
}

func (c Channel) Unit() string {
	if c < 0 || c >= NumChannels {
		return ""
	}
	return channelInfos[c].unit
}

// Label is the display name with unit, e.g. "Speed (km/h)".
func (c Channel) Label() string {
	return c.String() + " (" + c.Unit() + ")"
}

// Channels lists every channel in record order.
func Channels() []Channel {
	chs := make([]Channel, NumChannels)
	for i := range chs {
		chs[i] = Channel(i)
	}
	return chs
}

// Sample is one tick's value for every channel, indexed by Channel.
type Sample [NumChannels]float64

// SampleOf extracts the recorded channels from an engine state.
func SampleOf(s dynamo.State) Sample {
	return Sample{
		Voltage:     s.Voltage,
		Current:     s.Current,
		Speed:       s.Speed,
		Temperature: s.BatteryTemp,
		SoC:         s.SoC,
		Torque:      s.MotorTorque,
		Efficiency:  s.Efficiency,
	}
}

// Buffers is the set of channel ring buffers with a shared cursor.
type Buffers struct {
	data   [NumChannels][Capacity]float64
	cursor int
}

// New allocates buffers with every slot set to fill.
func New(fill Sample) *Buffers {
	b := &Buffers{}
	b.Fill(fill)
	return b
}

// Fill overwrites every slot with s and rewinds the cursor.
func (b *Buffers) Fill(s Sample) {
	for ch := range b.data {
		for i := range b.data[ch] {
			b.data[ch][i] = s[ch]
		}
	}
	b.cursor = 0
}

// Record writes s at the cursor and advances it.
func (b *Buffers) Record(s Sample) {
	for ch := range b.data {
		b.data[ch][b.cursor] = s[ch]
	}
	b.cursor = (b.cursor + 1) % Capacity
}

// Len is always Capacity.
func (b *Buffers) Len() int { return Capacity }

// At returns the i-th oldest sample, 0 <= i < Capacity.
func (b *Buffers) At(i int) Sample {
	idx := (b.cursor + i) % Capacity
	var s Sample
	for ch := range b.data {
		s[ch] = b.data[ch][idx]
	}
	return s
}

// Latest returns the most recently recorded sample.
func (b *Buffers) Latest() Sample {
	return b.At(Capacity - 1)
}

// All yields every sample oldest first. The sequence can be ranged over any
// number of times.
func (b *Buffers) All() iter.Seq2[int, Sample] {
	return func(yield func(int, Sample) bool) {
		for i := 0; i < Capacity; i++ {
			if !yield(i, b.At(i)) {
				return
			}
		}
	}
}

// Channel copies one channel oldest first into dst, reusing its capacity.
func (b *Buffers) Channel(ch Channel, dst []float64) []float64 {
	dst = dst[:0]
	if ch < 0 || ch >= NumChannels {
		return dst
	}
	src := &b.data[ch]
	dst = append(dst, src[b.cursor:]...)
	return append(dst, src[:b.cursor]...)
}

// Clone returns an independent copy in one allocation.
func (b *Buffers) Clone() *Buffers {
	c := *b
	return &c
}

package plugin

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-fourkeq/dsp/core"
	"gonum.org/v1/gonum/floats"
)

// MeterFloorDB is the lowest level PeakMeter reports.
const MeterFloorDB = -120.0

// PeakMeter tracks the absolute output peak per channel. Observe runs on
// the audio thread; Peak, PeakDB and Take may be called from any goroutine.
type PeakMeter struct {
	peaks []atomic.Uint64
}

// NewPeakMeter returns a meter for the given channel count.
func NewPeakMeter(channels int) *PeakMeter {
	return &PeakMeter{peaks: make([]atomic.Uint64, channels)}
}

// Channels returns the number of metered channels.
func (m *PeakMeter) Channels() int { return len(m.peaks) }

// Observe raises each channel's held peak to the block peak.
func (m *PeakMeter) Observe(buf [][]float64) {
	for ch, x := range buf {
		if ch >= len(m.peaks) || len(x) == 0 {
			continue
		}

		peak := math.Max(floats.Max(x), -floats.Min(x))
		slot := &m.peaks[ch]

		for {
			old := slot.Load()
			if peak <= math.Float64frombits(old) {
				break
			}

			if slot.CompareAndSwap(old, math.Float64bits(peak)) {
				break
			}
		}
	}
}

// Peak returns the held linear peak of ch.
func (m *PeakMeter) Peak(ch int) float64 {
	if ch < 0 || ch >= len(m.peaks) {
		return 0
	}

	return math.Float64frombits(m.peaks[ch].Load())
}

// PeakDB returns the held peak of ch in dBFS, never below MeterFloorDB.
func (m *PeakMeter) PeakDB(ch int) float64 {
	return core.FastLinearToDB(m.Peak(ch), MeterFloorDB)
}

// Take returns the held linear peak of ch and clears it.
func (m *PeakMeter) Take(ch int) float64 {
	if ch < 0 || ch >= len(m.peaks) {
		return 0
	}

	return math.Float64frombits(m.peaks[ch].Swap(0))
}

// Reset clears all channels.
func (m *PeakMeter) Reset() {
	for ch := range m.peaks {
		m.peaks[ch].Store(0)
	}
}

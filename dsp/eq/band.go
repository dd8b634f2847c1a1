package eq

import (
	"github.com/cwbudde/algo-fourkeq/dsp/filter/biquad"
	"github.com/cwbudde/algo-fourkeq/dsp/filter/design"
)

type shape int

const (
	shapeHighpass shape = iota
	shapeLowpass
	shapePeak
	shapeLowShelf
	shapeHighShelf
)

// bandDesign holds every input of a coefficient design. Two equal values
// always produce bit-identical coefficients.
type bandDesign struct {
	shape      shape
	freq       float64
	gainDB     float64
	q          float64
	sampleRate float64
}

func (d bandDesign) coefficients() biquad.Coefficients {
	switch d.shape {
	case shapeHighpass:
		return design.Highpass(d.freq, d.q, d.sampleRate)
	case shapeLowpass:
		return design.Lowpass(d.freq, d.q, d.sampleRate)
	case shapePeak:
		return design.Peak(d.freq, d.gainDB, d.q, d.sampleRate)
	case shapeLowShelf:
		return design.LowShelf(d.freq, d.gainDB, d.q, d.sampleRate)
	case shapeHighShelf:
		return design.HighShelf(d.freq, d.gainDB, d.q, d.sampleRate)
	default:
		return biquad.Identity()
	}
}

// FilterBand is one logical filter stage with a biquad section per channel.
// All channels share one coefficient set.
type FilterBand struct {
	sections []*biquad.Section
	coeffs   biquad.Coefficients

	current  bandDesign
	designed bool
}

// NewFilterBand returns an identity band for the given channel count.
func NewFilterBand(channels int) *FilterBand {
	b := &FilterBand{
		sections: make([]*biquad.Section, channels),
		coeffs:   biquad.Identity(),
	}
	for ch := range b.sections {
		b.sections[ch] = biquad.NewSection(b.coeffs)
	}

	return b
}

// SetCoefficients replaces the coefficients of every channel. Filter states
// are kept.
func (b *FilterBand) SetCoefficients(c biquad.Coefficients) {
	b.coeffs = c
	for _, s := range b.sections {
		s.SetCoefficients(c)
	}
}

// Coefficients returns the shared coefficient set.
func (b *FilterBand) Coefficients() biquad.Coefficients { return b.coeffs }

// Channels returns the number of per-channel sections.
func (b *FilterBand) Channels() int { return len(b.sections) }

// ProcessBlock filters buf in place with the section of channel ch.
func (b *FilterBand) ProcessBlock(ch int, buf []float64) {
	b.sections[ch].ProcessBlock(buf)
}

// Reset clears the state of every channel.
func (b *FilterBand) Reset() {
	for _, s := range b.sections {
		s.Reset()
	}
}

// apply redesigns the band when d differs from the last design and reports
// whether the coefficients changed.
func (b *FilterBand) apply(d bandDesign) bool {
	if b.designed && d == b.current {
		return false
	}

	b.current = d
	b.designed = true
	b.SetCoefficients(d.coefficients())

	return true
}

// HighPassFilter is the steep high-pass stage: two cascaded highpass
// sections per channel with Q 0.54 and 1.31.
type HighPassFilter struct {
	stages [2]*FilterBand
}

// NewHighPassFilter returns an identity high-pass filter for the given
// channel count.
func NewHighPassFilter(channels int) *HighPassFilter {
	return &HighPassFilter{
		stages: [2]*FilterBand{NewFilterBand(channels), NewFilterBand(channels)},
	}
}

// Coefficients returns the coefficients of both sections.
func (h *HighPassFilter) Coefficients() [2]biquad.Coefficients {
	return [2]biquad.Coefficients{h.stages[0].Coefficients(), h.stages[1].Coefficients()}
}

// ProcessBlock runs both sections over buf in place.
func (h *HighPassFilter) ProcessBlock(ch int, buf []float64) {
	h.stages[0].ProcessBlock(ch, buf)
	h.stages[1].ProcessBlock(ch, buf)
}

// Reset clears both sections.
func (h *HighPassFilter) Reset() {
	h.stages[0].Reset()
	h.stages[1].Reset()
}

func (h *HighPassFilter) apply(freq, sampleRate float64) bool {
	changed := false
	for i, q := range design.HighpassCascadeQ() {
		if h.stages[i].apply(bandDesign{shape: shapeHighpass, freq: freq, q: q, sampleRate: sampleRate}) {
			changed = true
		}
	}

	return changed
}

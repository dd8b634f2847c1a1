package plugin

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-fourkeq/dsp/core"
	"github.com/cwbudde/algo-fourkeq/dsp/eq"
	"github.com/cwbudde/algo-fourkeq/dsp/oversample"
	"github.com/cwbudde/algo-fourkeq/param"
)

// ErrNotPrepared is returned by operations that need a prepared processor.
var ErrNotPrepared = errors.New("plugin: processor not prepared")

// Processor is the host-facing processing interface.
type Processor interface {
	Prepare(sampleRate float64, maxBlockSize int) error
	ProcessBlock(buf [][]float32)
	Release()
	State() ([]byte, error)
	SetState(data []byte) error
}

// Option configures a FourK processor.
type Option func(*options)

type options struct {
	channels int
	quality  oversample.Quality
}

// WithChannels selects a mono (1) or stereo (2) bus layout.
func WithChannels(channels int) Option {
	return func(o *options) {
		o.channels = channels
	}
}

// WithQuality selects the oversampling filter profile.
func WithQuality(q oversample.Quality) Option {
	return func(o *options) {
		o.quality = q
	}
}

// FourK is the console equalizer processor.
type FourK struct {
	channels int
	params   *param.Store
	engine   *eq.Engine
	meter    *PeakMeter

	scratch [][]float64
	views   [][]float64
}

var _ Processor = (*FourK)(nil)

// New returns an unprepared processor with every parameter at its default.
func New(opts ...Option) (*FourK, error) {
	o := options{channels: eq.MaxChannels, quality: oversample.QualityMax}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	engine, err := eq.New(eq.WithChannels(o.channels), eq.WithOversamplingQuality(o.quality))
	if err != nil {
		return nil, fmt.Errorf("plugin: %w", err)
	}

	store, err := eq.NewStore()
	if err != nil {
		return nil, fmt.Errorf("plugin: %w", err)
	}

	return &FourK{
		channels: o.channels,
		params:   store,
		engine:   engine,
		meter:    NewPeakMeter(o.channels),
	}, nil
}

// Params returns the parameter store. It is safe to use from any goroutine.
func (f *FourK) Params() *param.Store { return f.params }

// Meter returns the output peak meter.
func (f *FourK) Meter() *PeakMeter { return f.meter }

// Channels returns the bus width.
func (f *FourK) Channels() int { return f.channels }

// Prepare allocates all processing buffers.
func (f *FourK) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := f.engine.Prepare(sampleRate, maxBlockSize); err != nil {
		return fmt.Errorf("plugin: %w", err)
	}

	f.scratch = core.NewPlanar(f.channels, maxBlockSize)
	f.views = make([][]float64, f.channels)
	f.engine.Update(eq.ParamsFrom(f.params))
	f.meter.Reset()

	return nil
}

// ProcessBlock reads the current parameters once and processes buf in
// place. Channels beyond the bus width are left untouched. It does not
// allocate.
func (f *FourK) ProcessBlock(buf [][]float32) {
	if !f.engine.Prepared() {
		return
	}

	channels := min(len(buf), f.channels)
	if channels == 0 {
		return
	}

	n := len(buf[0])
	for ch := 1; ch < channels; ch++ {
		n = min(n, len(buf[ch]))
	}

	p := eq.ParamsFrom(f.params)
	block := len(f.scratch[0])

	for start := 0; start < n; start += block {
		end := min(start+block, n)

		for ch := range channels {
			dst := f.scratch[ch][:end-start]
			for i, v := range buf[ch][start:end] {
				dst[i] = float64(v)
			}

			f.views[ch] = dst
		}

		f.engine.Process(f.views[:channels], p)
		f.meter.Observe(f.views[:channels])

		for ch := range channels {
			out := buf[ch][start:end]
			for i, v := range f.views[ch] {
				out[i] = float32(v)
			}
		}
	}
}

// Release frees the processing buffers.
func (f *FourK) Release() {
	f.engine.Release()
	f.scratch = nil
	f.views = nil
}

// Reset clears the filter states without changing parameters.
func (f *FourK) Reset() {
	f.engine.Reset()
	f.meter.Reset()
}

// LatencySamples returns the processing delay rounded to whole samples. It
// reflects the parameters of the last processed block and must not be
// called concurrently with ProcessBlock.
func (f *FourK) LatencySamples() int {
	return int(math.Round(f.engine.Latency()))
}

// MagnitudeDB returns the analytic response at freq for the current
// parameters. It must not be called concurrently with ProcessBlock.
func (f *FourK) MagnitudeDB(freq float64) (float64, error) {
	if !f.engine.Prepared() {
		return 0, ErrNotPrepared
	}

	f.engine.Update(eq.ParamsFrom(f.params))

	return f.engine.MagnitudeDB(freq), nil
}

// State encodes every parameter value as a JSON document.
func (f *FourK) State() ([]byte, error) {
	return f.params.MarshalState()
}

// SetState restores a document produced by State. Unknown parameters
// reject the whole document; parameters missing from it return to their
// defaults.
func (f *FourK) SetState(data []byte) error {
	if err := f.params.UnmarshalState(data); err != nil {
		return fmt.Errorf("plugin: restore state: %w", err)
	}

	return nil
}

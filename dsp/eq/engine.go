package eq

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-fourkeq/dsp/core"
	"github.com/cwbudde/algo-fourkeq/dsp/effects"
	"github.com/cwbudde/algo-fourkeq/dsp/filter/design"
	"github.com/cwbudde/algo-fourkeq/dsp/oversample"
	"github.com/cwbudde/algo-vecmath"
)

// MaxChannels is the largest channel count an Engine processes.
const MaxChannels = 2

var (
	// ErrInvalidSampleRate is returned by Prepare for non-positive or
	// non-finite sample rates.
	ErrInvalidSampleRate = errors.New("eq: invalid sample rate")
	// ErrInvalidBlockSize is returned by Prepare for non-positive block sizes.
	ErrInvalidBlockSize = errors.New("eq: invalid block size")
	// ErrInvalidChannels is returned by New for channel counts outside
	// [1, MaxChannels].
	ErrInvalidChannels = errors.New("eq: invalid channel count")
)

type engineConfig struct {
	channels int
	params   Params
	quality  oversample.Quality
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithChannels sets the number of processed channels (1 or 2).
func WithChannels(channels int) Option {
	return func(cfg *engineConfig) {
		cfg.channels = channels
	}
}

// WithInitialParams sets the parameters the filters are designed with at
// Prepare.
func WithInitialParams(p Params) Option {
	return func(cfg *engineConfig) {
		cfg.params = p
	}
}

// WithOversamplingQuality selects the half-band filter profile.
func WithOversamplingQuality(q oversample.Quality) Option {
	return func(cfg *engineConfig) {
		cfg.quality = q
	}
}

// Engine is the equalizer processor. It is not safe for concurrent use: one
// goroutine (the audio thread) owns it. Parameter changes arrive as Params
// snapshots passed to Process.
type Engine struct {
	opts engineConfig
	cfg  core.ProcessorConfig

	prepared bool
	params   Params
	rate     float64 // design rate, host rate times factor
	outGain  float64

	oversamplers [2]*oversample.Oversampler
	active       Oversampling

	hpf       *HighPassFilter
	lf        *FilterBand
	lm        *FilterBand
	hm        *FilterBand
	hf        *FilterBand
	lpf       *FilterBand
	saturator *effects.Saturator

	chunk [][]float64
}

// New returns an unprepared Engine. The default is stereo with
// DefaultParams and maximum oversampling quality.
func New(opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		channels: MaxChannels,
		params:   DefaultParams(),
		quality:  oversample.QualityMax,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.channels < 1 || cfg.channels > MaxChannels {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, cfg.channels)
	}

	saturator, err := effects.NewSaturator()
	if err != nil {
		return nil, err
	}

	return &Engine{
		opts:      cfg,
		params:    cfg.params.Clamped(),
		outGain:   1,
		saturator: saturator,
	}, nil
}

// Prepare allocates every buffer and filter for the given host sample rate
// and maximum block size. It may be called again to change either; filter
// states are cleared.
func (e *Engine) Prepare(sampleRate float64, blockSize int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	if blockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(sampleRate),
		core.WithBlockSize(blockSize),
		core.WithChannels(e.opts.channels),
	)

	var oversamplers [2]*oversample.Oversampler
	for i, o := range []Oversampling{Oversampling2x, Oversampling4x} {
		os, err := oversample.New(o.Factor(), cfg.Channels, cfg.BlockSize,
			oversample.WithQuality(e.opts.quality))
		if err != nil {
			return fmt.Errorf("eq: prepare %s oversampler: %w", o, err)
		}

		oversamplers[i] = os
	}

	e.cfg = cfg
	e.oversamplers = oversamplers
	e.hpf = NewHighPassFilter(cfg.Channels)
	e.lf = NewFilterBand(cfg.Channels)
	e.lm = NewFilterBand(cfg.Channels)
	e.hm = NewFilterBand(cfg.Channels)
	e.hf = NewFilterBand(cfg.Channels)
	e.lpf = NewFilterBand(cfg.Channels)
	e.chunk = make([][]float64, cfg.Channels)
	e.active = e.params.Oversampling
	e.prepared = true

	e.refresh(e.params)

	return nil
}

// Prepared reports whether Process will run.
func (e *Engine) Prepared() bool { return e.prepared }

// Config returns the prepared sample rate, block size and channel count.
func (e *Engine) Config() core.ProcessorConfig { return e.cfg }

// Params returns the last applied, clamped snapshot.
func (e *Engine) Params() Params { return e.params }

// Process runs one block in place. buf holds one slice per channel; only the
// first Config().Channels channels are processed and the rest are left
// untouched. Blocks longer than the prepared block size are processed in
// chunks, all with the coefficients designed from p at the start of the
// call. An unprepared engine leaves buf unchanged. Process does not
// allocate.
func (e *Engine) Process(buf [][]float64, p Params) {
	if !e.prepared {
		return
	}

	p = p.Clamped()
	if p.Bypass {
		e.params.Bypass = true
		return
	}

	e.selectOversampler(p.Oversampling)
	e.refresh(p)

	channels := min(len(buf), e.cfg.Channels)
	if channels == 0 {
		return
	}

	n := len(buf[0])
	for ch := 1; ch < channels; ch++ {
		n = min(n, len(buf[ch]))
	}

	for start := 0; start < n; start += e.cfg.BlockSize {
		end := min(start+e.cfg.BlockSize, n)
		for ch := range channels {
			e.chunk[ch] = buf[ch][start:end]
		}

		e.processChunk(e.chunk[:channels])
	}
}

func (e *Engine) processChunk(chunk [][]float64) {
	os := e.oversamplers[e.active]

	up := os.ProcessUp(chunk)
	for ch, x := range up {
		e.hpf.ProcessBlock(ch, x)
		e.lf.ProcessBlock(ch, x)
		e.lm.ProcessBlock(ch, x)
		e.hm.ProcessBlock(ch, x)
		e.hf.ProcessBlock(ch, x)
		e.lpf.ProcessBlock(ch, x)

		for i, v := range x {
			x[i] = core.FlushDenormals(v)
		}

		e.saturator.ProcessInPlace(x)
	}

	os.ProcessDown(chunk)

	if e.outGain != 1 {
		for _, x := range chunk {
			vecmath.ScaleBlock(x, x, e.outGain)
		}
	}
}

// Update applies p without processing audio, so MagnitudeDB and Latency
// reflect it.
func (e *Engine) Update(p Params) {
	p = p.Clamped()
	if !e.prepared {
		e.params = p
		return
	}

	e.selectOversampler(p.Oversampling)
	e.refresh(p)
}

// selectOversampler switches to the oversampler for o. The newly selected
// one starts from a cleared state; the EQ filter states carry over.
func (e *Engine) selectOversampler(o Oversampling) {
	if o == e.active {
		return
	}

	e.oversamplers[o].Reset()
	e.active = o
}

// refresh redesigns the bands whose inputs changed and stores p as the
// current snapshot. Designs use the oversampled rate of the active factor.
func (e *Engine) refresh(p Params) {
	rate := e.cfg.SampleRate * float64(p.Oversampling.Factor())
	e.rate = rate

	e.hpf.apply(design.ClampFrequency(p.HPFFreq, rate), rate)
	e.lf.apply(lfDesign(p, rate))
	e.lm.apply(midDesign(p.Type, p.LMFreq, p.LMGain, p.LMQ, rate))
	e.hm.apply(midDesign(p.Type, p.HMFreq, p.HMGain, p.HMQ, rate))
	e.hf.apply(hfDesign(p, rate))
	e.lpf.apply(bandDesign{
		shape:      shapeLowpass,
		freq:       design.ClampFrequency(p.LPFFreq, rate),
		q:          design.LowpassQ,
		sampleRate: rate,
	})

	e.saturator.SetAmountClamped(p.Saturation / 100)

	e.outGain = core.DBToLinear(p.OutputGain)
	e.params = p
}

func lfDesign(p Params, rate float64) bandDesign {
	d := bandDesign{
		shape:      shapeLowShelf,
		freq:       design.ClampFrequency(p.LFFreq, rate),
		gainDB:     p.LFGain,
		q:          design.BandQ,
		sampleRate: rate,
	}
	if p.Type == Black && p.LFBell {
		d.shape = shapePeak
	}

	return d
}

func hfDesign(p Params, rate float64) bandDesign {
	d := bandDesign{
		shape:      shapeHighShelf,
		freq:       design.ClampFrequency(p.HFFreq, rate),
		gainDB:     p.HFGain,
		q:          design.BandQ,
		sampleRate: rate,
	}
	if p.Type == Black && p.HFBell {
		d.shape = shapePeak
	}

	return d
}

func midDesign(t EQType, freq, gainDB, q, rate float64) bandDesign {
	if t == Black {
		q = design.DynamicQ(gainDB, q)
	}

	return bandDesign{
		shape:      shapePeak,
		freq:       design.ClampFrequency(freq, rate),
		gainDB:     gainDB,
		q:          q,
		sampleRate: rate,
	}
}

// Reset clears all filter and oversampler states.
func (e *Engine) Reset() {
	if !e.prepared {
		return
	}

	for _, os := range e.oversamplers {
		os.Reset()
	}

	e.hpf.Reset()
	for _, b := range e.bands() {
		b.Reset()
	}
}

// Release frees the buffers and filters. The engine must be prepared again
// before it processes audio.
func (e *Engine) Release() {
	e.prepared = false
	e.oversamplers = [2]*oversample.Oversampler{}
	e.hpf = nil
	e.lf, e.lm, e.hm, e.hf, e.lpf = nil, nil, nil, nil, nil
	e.chunk = nil
	e.rate = 0
}

// Latency returns the processing delay in host samples for the current
// snapshot. A bypassed or unprepared engine has no latency.
func (e *Engine) Latency() float64 {
	if !e.prepared || e.params.Bypass {
		return 0
	}

	return e.oversamplers[e.active].LatencySamples()
}

// MagnitudeDB returns the analytic response of the current coefficient set
// at freq in dB, including output gain. The oversampling filters are
// treated as flat.
func (e *Engine) MagnitudeDB(freq float64) float64 {
	if !e.prepared || e.params.Bypass {
		return 0
	}

	db := e.params.OutputGain
	for _, c := range e.hpf.Coefficients() {
		db += c.MagnitudeDB(freq, e.rate)
	}

	for _, b := range e.bands() {
		db += b.Coefficients().MagnitudeDB(freq, e.rate)
	}

	return db
}

// bands returns the single-section bands in cascade order.
func (e *Engine) bands() [5]*FilterBand {
	return [5]*FilterBand{e.lf, e.lm, e.hm, e.hf, e.lpf}
}

package oversample

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-fourkeq/dsp/filter/halfband"
)

var (
	// ErrInvalidFactor indicates an oversampling factor other than 2 or 4.
	ErrInvalidFactor = errors.New("oversample: factor must be 2 or 4")
	// ErrInvalidChannels indicates a non-positive channel count.
	ErrInvalidChannels = errors.New("oversample: invalid channel count")
	// ErrInvalidBlockSize indicates a non-positive maximum block size.
	ErrInvalidBlockSize = errors.New("oversample: invalid block size")
)

// Quality selects the half-band filter profile.
type Quality int

const (
	// QualityMax uses narrow transition bands and high stopband attenuation.
	QualityMax Quality = iota
	// QualityStandard trades some attenuation for fewer allpass sections.
	QualityStandard
)

// StageConfig describes the up- and down-sampling filters of one 2x stage.
// Transition widths are relative to the stage's oversampled rate.
type StageConfig struct {
	UpTransition    float64
	UpAttenuation   float64
	DownTransition  float64
	DownAttenuation float64
}

// StageProfile returns the filter settings for the given quality and stage
// index (0 is the stage adjacent to the host rate). Later stages run at a
// higher rate and get proportionally wider transition bands.
func StageProfile(q Quality, stage int) StageConfig {
	scale := float64(int(1) << stage)

	switch q {
	case QualityStandard:
		return StageConfig{
			UpTransition:    0.12 * scale,
			UpAttenuation:   80 - 8*float64(stage),
			DownTransition:  0.15 * scale,
			DownAttenuation: 65 - 8*float64(stage),
		}
	default:
		return StageConfig{
			UpTransition:    0.10 * scale,
			UpAttenuation:   90 - 10*float64(stage),
			DownTransition:  0.12 * scale,
			DownAttenuation: 75 - 10*float64(stage),
		}
	}
}

type config struct {
	quality Quality
	stages  map[int]StageConfig
}

// Option configures an Oversampler.
type Option func(*config)

// WithQuality selects a predefined filter profile.
func WithQuality(q Quality) Option {
	return func(cfg *config) {
		cfg.quality = q
	}
}

// WithStageConfig overrides the filter settings of one stage.
func WithStageConfig(stage int, stageCfg StageConfig) Option {
	return func(cfg *config) {
		if stage >= 0 {
			cfg.stages[stage] = stageCfg
		}
	}
}

func (c config) stage(i int) StageConfig {
	if stageCfg, ok := c.stages[i]; ok {
		return stageCfg
	}

	return StageProfile(c.quality, i)
}

// Oversampler up- and down-samples a fixed number of channels by 2 or 4.
type Oversampler struct {
	factor   int
	channels int
	maxBlock int

	up   [][]*halfband.Upsampler   // [stage][channel]
	down [][]*halfband.Downsampler // [stage][channel]
	bufs [][][]float64             // [stage][channel], stage s runs at 2^(s+1) x

	views  [][]float64
	frames int
	active int
}

// New returns an Oversampler for factor 2 or 4, the given channel count and
// maximum host block size.
func New(factor, channels, maxBlock int, opts ...Option) (*Oversampler, error) {
	var stages int

	switch factor {
	case 2:
		stages = 1
	case 4:
		stages = 2
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}

	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}

	if maxBlock <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, maxBlock)
	}

	cfg := config{quality: QualityMax, stages: map[int]StageConfig{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	o := &Oversampler{
		factor:   factor,
		channels: channels,
		maxBlock: maxBlock,
		up:       make([][]*halfband.Upsampler, stages),
		down:     make([][]*halfband.Downsampler, stages),
		bufs:     make([][][]float64, stages),
		views:    make([][]float64, channels),
	}

	for s := range stages {
		stageCfg := cfg.stage(s)
		o.up[s] = make([]*halfband.Upsampler, channels)
		o.down[s] = make([]*halfband.Downsampler, channels)
		o.bufs[s] = make([][]float64, channels)

		for ch := range channels {
			up, err := halfband.NewUpsampler(stageCfg.UpAttenuation, stageCfg.UpTransition)
			if err != nil {
				return nil, fmt.Errorf("oversample: stage %d upsampler: %w", s, err)
			}

			down, err := halfband.NewDownsampler(stageCfg.DownAttenuation, stageCfg.DownTransition)
			if err != nil {
				return nil, fmt.Errorf("oversample: stage %d downsampler: %w", s, err)
			}

			o.up[s][ch] = up
			o.down[s][ch] = down
			o.bufs[s][ch] = make([]float64, maxBlock<<(s+1))
		}
	}

	return o, nil
}

// Factor returns the oversampling factor.
func (o *Oversampler) Factor() int { return o.factor }

// Channels returns the number of prepared channels.
func (o *Oversampler) Channels() int { return o.channels }

// MaxBlockSize returns the largest host block ProcessUp accepts.
func (o *Oversampler) MaxBlockSize() int { return o.maxBlock }

// ProcessUp upsamples in and returns one oversampled view per channel, each
// Factor() times as long as the host block. Blocks longer than
// MaxBlockSize are truncated and extra channels are ignored. The views stay
// valid until the next ProcessUp.
func (o *Oversampler) ProcessUp(in [][]float64) [][]float64 {
	o.active = min(len(in), o.channels)
	o.frames = 0

	if o.active == 0 {
		return o.views[:0]
	}

	n := len(in[0])
	for ch := 1; ch < o.active; ch++ {
		n = min(n, len(in[ch]))
	}

	n = min(n, o.maxBlock)
	o.frames = n

	last := len(o.bufs) - 1
	for ch := range o.active {
		o.up[0][ch].ProcessBlock(o.bufs[0][ch][:2*n], in[ch][:n])

		for s := 1; s <= last; s++ {
			o.up[s][ch].ProcessBlock(o.bufs[s][ch][:n<<(s+1)], o.bufs[s-1][ch][:n<<s])
		}

		o.views[ch] = o.bufs[last][ch][:n*o.factor]
	}

	return o.views[:o.active]
}

// ProcessDown decimates the oversampled buffers returned by the last
// ProcessUp back into out, which should be the buffers passed to ProcessUp.
func (o *Oversampler) ProcessDown(out [][]float64) {
	n := o.frames
	last := len(o.bufs) - 1

	for ch := range min(o.active, len(out)) {
		for s := last; s >= 1; s-- {
			o.down[s][ch].ProcessBlock(o.bufs[s-1][ch][:n<<s], o.bufs[s][ch][:n<<(s+1)])
		}

		o.down[0][ch].ProcessBlock(out[ch][:n], o.bufs[0][ch][:2*n])
	}
}

// Reset clears all filter states.
func (o *Oversampler) Reset() {
	for s := range o.up {
		for ch := range o.up[s] {
			o.up[s][ch].Reset()
			o.down[s][ch].Reset()
		}
	}
}

// LatencySamples returns the estimated round-trip latency in host samples,
// derived from the DC group delay of every stage.
func (o *Oversampler) LatencySamples() float64 {
	var latency float64

	for s := range o.up {
		// stage s runs at 2^(s+1) times the host rate
		pair := (o.up[s][0].GroupDelay() + o.down[s][0].GroupDelay() - 1) / 2
		latency += pair / float64(int(1)<<s)
	}

	return latency
}

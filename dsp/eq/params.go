package eq

import (
	"math"

	"github.com/cwbudde/algo-fourkeq/dsp/core"
	"github.com/cwbudde/algo-fourkeq/param"
)

// Parameter identifiers.
const (
	IDHPFFreq      = "hpf_freq"
	IDLPFFreq      = "lpf_freq"
	IDLFGain       = "lf_gain"
	IDLFFreq       = "lf_freq"
	IDLFBell       = "lf_bell"
	IDLMGain       = "lm_gain"
	IDLMFreq       = "lm_freq"
	IDLMQ          = "lm_q"
	IDHMGain       = "hm_gain"
	IDHMFreq       = "hm_freq"
	IDHMQ          = "hm_q"
	IDHFGain       = "hf_gain"
	IDHFFreq       = "hf_freq"
	IDHFBell       = "hf_bell"
	IDEQType       = "eq_type"
	IDBypass       = "bypass"
	IDOutputGain   = "output_gain"
	IDSaturation   = "saturation"
	IDOversampling = "oversampling"
)

// Parameter ranges.
const (
	MinHPFFreq, MaxHPFFreq       = 20.0, 500.0
	MinLPFFreq, MaxLPFFreq       = 3000.0, 20000.0
	MinBandGain, MaxBandGain     = -20.0, 20.0
	MinLFFreq, MaxLFFreq         = 20.0, 600.0
	MinLMFreq, MaxLMFreq         = 200.0, 2500.0
	MinHMFreq, MaxHMFreq         = 600.0, 7000.0
	MinHFFreq, MaxHFFreq         = 1500.0, 20000.0
	MinBandQ, MaxBandQ           = 0.5, 5.0
	MinOutputGain, MaxOutputGain = -12.0, 12.0
	MinSaturation, MaxSaturation = 0.0, 100.0
)

// EQType selects the console personality.
type EQType int

const (
	// Brown uses shelving outer bands and fixed-Q mid bands.
	Brown EQType = iota
	// Black adds gain-dependent mid-band Q and switchable bell outer bands.
	Black
)

func (t EQType) String() string {
	if t == Black {
		return "Black"
	}

	return "Brown"
}

// Oversampling selects the oversampling factor.
type Oversampling int

const (
	// Oversampling2x runs the filters and saturation at twice the host rate.
	Oversampling2x Oversampling = iota
	// Oversampling4x runs them at four times the host rate.
	Oversampling4x
)

// Factor returns 2 or 4.
func (o Oversampling) Factor() int {
	if o == Oversampling4x {
		return 4
	}

	return 2
}

func (o Oversampling) String() string {
	if o == Oversampling4x {
		return "4x"
	}

	return "2x"
}

// Params is one snapshot of every engine parameter in plain units.
type Params struct {
	HPFFreq float64 // Hz
	LPFFreq float64 // Hz

	LFGain float64 // dB
	LFFreq float64 // Hz
	LFBell bool

	LMGain float64 // dB
	LMFreq float64 // Hz
	LMQ    float64

	HMGain float64 // dB
	HMFreq float64 // Hz
	HMQ    float64

	HFGain float64 // dB
	HFFreq float64 // Hz
	HFBell bool

	Type         EQType
	Bypass       bool
	OutputGain   float64 // dB
	Saturation   float64 // percent
	Oversampling Oversampling
}

// DefaultParams returns the power-on parameter set.
func DefaultParams() Params {
	return Params{
		HPFFreq:    20,
		LPFFreq:    20000,
		LFFreq:     100,
		LMFreq:     600,
		LMQ:        0.7,
		HMFreq:     2000,
		HMQ:        0.7,
		HFFreq:     8000,
		Saturation: 20,
	}
}

// FlatParams returns a transparent setting: filters at their range limits,
// all gains at 0 dB and no saturation.
func FlatParams() Params {
	p := DefaultParams()
	p.Saturation = 0

	return p
}

// Clamped returns p with every value inside its range. NaN values are
// replaced by the default.
func (p Params) Clamped() Params {
	d := DefaultParams()

	p.HPFFreq = core.ClampFinite(p.HPFFreq, MinHPFFreq, MaxHPFFreq, d.HPFFreq)
	p.LPFFreq = core.ClampFinite(p.LPFFreq, MinLPFFreq, MaxLPFFreq, d.LPFFreq)
	p.LFGain = core.ClampFinite(p.LFGain, MinBandGain, MaxBandGain, d.LFGain)
	p.LFFreq = core.ClampFinite(p.LFFreq, MinLFFreq, MaxLFFreq, d.LFFreq)
	p.LMGain = core.ClampFinite(p.LMGain, MinBandGain, MaxBandGain, d.LMGain)
	p.LMFreq = core.ClampFinite(p.LMFreq, MinLMFreq, MaxLMFreq, d.LMFreq)
	p.LMQ = core.ClampFinite(p.LMQ, MinBandQ, MaxBandQ, d.LMQ)
	p.HMGain = core.ClampFinite(p.HMGain, MinBandGain, MaxBandGain, d.HMGain)
	p.HMFreq = core.ClampFinite(p.HMFreq, MinHMFreq, MaxHMFreq, d.HMFreq)
	p.HMQ = core.ClampFinite(p.HMQ, MinBandQ, MaxBandQ, d.HMQ)
	p.HFGain = core.ClampFinite(p.HFGain, MinBandGain, MaxBandGain, d.HFGain)
	p.HFFreq = core.ClampFinite(p.HFFreq, MinHFFreq, MaxHFFreq, d.HFFreq)
	p.OutputGain = core.ClampFinite(p.OutputGain, MinOutputGain, MaxOutputGain, d.OutputGain)
	p.Saturation = core.ClampFinite(p.Saturation, MinSaturation, MaxSaturation, d.Saturation)

	if p.Type != Black {
		p.Type = Brown
	}

	if p.Oversampling != Oversampling4x {
		p.Oversampling = Oversampling2x
	}

	return p
}

// Layout returns the descriptors of every engine parameter in display
// order. Frequencies use a 0.3 skew so the lower decades get more travel.
func Layout() []param.Descriptor {
	const freqSkew = 0.3

	d := DefaultParams()

	return []param.Descriptor{
		param.FloatParam(IDHPFFreq, "HPF Frequency", "Hz", MinHPFFreq, MaxHPFFreq, d.HPFFreq).WithStep(1).WithSkew(freqSkew),
		param.FloatParam(IDLPFFreq, "LPF Frequency", "Hz", MinLPFFreq, MaxLPFFreq, d.LPFFreq).WithStep(1).WithSkew(freqSkew),

		param.FloatParam(IDLFGain, "LF Gain", "dB", MinBandGain, MaxBandGain, d.LFGain).WithStep(0.1),
		param.FloatParam(IDLFFreq, "LF Frequency", "Hz", MinLFFreq, MaxLFFreq, d.LFFreq).WithStep(1).WithSkew(freqSkew),
		param.BoolParam(IDLFBell, "LF Bell Mode", d.LFBell),

		param.FloatParam(IDLMGain, "LM Gain", "dB", MinBandGain, MaxBandGain, d.LMGain).WithStep(0.1),
		param.FloatParam(IDLMFreq, "LM Frequency", "Hz", MinLMFreq, MaxLMFreq, d.LMFreq).WithStep(1).WithSkew(freqSkew),
		param.FloatParam(IDLMQ, "LM Q", "", MinBandQ, MaxBandQ, d.LMQ).WithStep(0.01),

		param.FloatParam(IDHMGain, "HM Gain", "dB", MinBandGain, MaxBandGain, d.HMGain).WithStep(0.1),
		param.FloatParam(IDHMFreq, "HM Frequency", "Hz", MinHMFreq, MaxHMFreq, d.HMFreq).WithStep(1).WithSkew(freqSkew),
		param.FloatParam(IDHMQ, "HM Q", "", MinBandQ, MaxBandQ, d.HMQ).WithStep(0.01),

		param.FloatParam(IDHFGain, "HF Gain", "dB", MinBandGain, MaxBandGain, d.HFGain).WithStep(0.1),
		param.FloatParam(IDHFFreq, "HF Frequency", "Hz", MinHFFreq, MaxHFFreq, d.HFFreq).WithStep(1).WithSkew(freqSkew),
		param.BoolParam(IDHFBell, "HF Bell Mode", d.HFBell),

		param.ChoiceParam(IDEQType, "EQ Type", int(d.Type), Brown.String(), Black.String()),
		param.BoolParam(IDBypass, "Bypass", d.Bypass),
		param.FloatParam(IDOutputGain, "Output Gain", "dB", MinOutputGain, MaxOutputGain, d.OutputGain).WithStep(0.1),
		param.FloatParam(IDSaturation, "Saturation", "%", MinSaturation, MaxSaturation, d.Saturation).WithStep(1),
		param.ChoiceParam(IDOversampling, "Oversampling", int(d.Oversampling), Oversampling2x.String(), Oversampling4x.String()),
	}
}

// NewStore returns a parameter store holding Layout at its defaults.
func NewStore() (*param.Store, error) {
	return param.NewStore(Layout())
}

// Reader reads a plain parameter value by identifier. Unknown identifiers
// should read as NaN. *param.Store implements Reader.
type Reader interface {
	Load(id string) float64
}

// ParamsFrom reads a snapshot from r. Missing or NaN values take their
// defaults and everything is clamped to range. It does not allocate.
func ParamsFrom(r Reader) Params {
	p := DefaultParams()

	loadFloat(r, IDHPFFreq, &p.HPFFreq)
	loadFloat(r, IDLPFFreq, &p.LPFFreq)
	loadFloat(r, IDLFGain, &p.LFGain)
	loadFloat(r, IDLFFreq, &p.LFFreq)
	loadFloat(r, IDLMGain, &p.LMGain)
	loadFloat(r, IDLMFreq, &p.LMFreq)
	loadFloat(r, IDLMQ, &p.LMQ)
	loadFloat(r, IDHMGain, &p.HMGain)
	loadFloat(r, IDHMFreq, &p.HMFreq)
	loadFloat(r, IDHMQ, &p.HMQ)
	loadFloat(r, IDHFGain, &p.HFGain)
	loadFloat(r, IDHFFreq, &p.HFFreq)
	loadFloat(r, IDOutputGain, &p.OutputGain)
	loadFloat(r, IDSaturation, &p.Saturation)

	loadBool(r, IDLFBell, &p.LFBell)
	loadBool(r, IDHFBell, &p.HFBell)
	loadBool(r, IDBypass, &p.Bypass)

	if v := r.Load(IDEQType); !math.IsNaN(v) && math.Round(v) >= 1 {
		p.Type = Black
	}

	if v := r.Load(IDOversampling); !math.IsNaN(v) && math.Round(v) >= 1 {
		p.Oversampling = Oversampling4x
	}

	return p.Clamped()
}

func loadFloat(r Reader, id string, dst *float64) {
	if v := r.Load(id); !math.IsNaN(v) {
		*dst = v
	}
}

func loadBool(r Reader, id string, dst *bool) {
	if v := r.Load(id); !math.IsNaN(v) {
		*dst = v > 0.5
	}
}

// Values returns p keyed by parameter identifier, in the plain units used
// by Layout.
func (p Params) Values() map[string]float64 {
	return map[string]float64{
		IDHPFFreq:      p.HPFFreq,
		IDLPFFreq:      p.LPFFreq,
		IDLFGain:       p.LFGain,
		IDLFFreq:       p.LFFreq,
		IDLFBell:       boolValue(p.LFBell),
		IDLMGain:       p.LMGain,
		IDLMFreq:       p.LMFreq,
		IDLMQ:          p.LMQ,
		IDHMGain:       p.HMGain,
		IDHMFreq:       p.HMFreq,
		IDHMQ:          p.HMQ,
		IDHFGain:       p.HFGain,
		IDHFFreq:       p.HFFreq,
		IDHFBell:       boolValue(p.HFBell),
		IDEQType:       float64(p.Type),
		IDBypass:       boolValue(p.Bypass),
		IDOutputGain:   p.OutputGain,
		IDSaturation:   p.Saturation,
		IDOversampling: float64(p.Oversampling),
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

package halfband

// allpassChain is a cascade of first-order allpass sections
//
//	y = c*(x - yPrev) + xPrev
//
// each running at the low rate of the polyphase structure.
type allpassChain struct {
	coefs []float64
	x     []float64
	y     []float64
}

func newAllpassChain(coefs []float64) allpassChain {
	return allpassChain{
		coefs: coefs,
		x:     make([]float64, len(coefs)),
		y:     make([]float64, len(coefs)),
	}
}

func (a *allpassChain) process(in float64) float64 {
	for i, c := range a.coefs {
		out := c*(in-a.y[i]) + a.x[i]
		a.x[i] = in
		a.y[i] = out
		in = out
	}

	return in
}

func (a *allpassChain) reset() {
	for i := range a.x {
		a.x[i] = 0
		a.y[i] = 0
	}
}

// polyphase holds the two allpass paths of a half-band filter.
type polyphase struct {
	coefs []float64
	path0 allpassChain
	path1 allpassChain
}

func newPolyphase(coefs []float64) polyphase {
	c0 := make([]float64, 0, (len(coefs)+1)/2)
	c1 := make([]float64, 0, len(coefs)/2)

	for i, c := range coefs {
		if i%2 == 0 {
			c0 = append(c0, c)
		} else {
			c1 = append(c1, c)
		}
	}

	return polyphase{
		coefs: append([]float64(nil), coefs...),
		path0: newAllpassChain(c0),
		path1: newAllpassChain(c1),
	}
}

func (p *polyphase) reset() {
	p.path0.reset()
	p.path1.reset()
}

// Upsampler doubles the sample rate of one channel.
type Upsampler struct {
	polyphase
}

// NewUpsampler designs a half-band interpolator.
func NewUpsampler(attenuationDB, transition float64) (*Upsampler, error) {
	coefs, err := Design(attenuationDB, transition)
	if err != nil {
		return nil, err
	}

	return &Upsampler{polyphase: newPolyphase(coefs)}, nil
}

// ProcessSample returns the two oversampled samples for input x.
func (u *Upsampler) ProcessSample(x float64) (float64, float64) {
	return u.path0.process(x), u.path1.process(x)
}

// ProcessBlock upsamples src into dst. dst must hold 2*len(src) samples.
func (u *Upsampler) ProcessBlock(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[2*len(src)-1]
	for i, x := range src {
		dst[2*i] = u.path0.process(x)
		dst[2*i+1] = u.path1.process(x)
	}
}

// Reset clears the filter state.
func (u *Upsampler) Reset() { u.reset() }

// GroupDelay returns the DC group delay in oversampled-rate samples.
func (u *Upsampler) GroupDelay() float64 { return GroupDelay(u.coefs) }

// Coefficients returns a copy of the allpass coefficients.
func (u *Upsampler) Coefficients() []float64 { return append([]float64(nil), u.coefs...) }

// Downsampler halves the sample rate of one channel.
type Downsampler struct {
	polyphase
}

// NewDownsampler designs a half-band decimator.
func NewDownsampler(attenuationDB, transition float64) (*Downsampler, error) {
	coefs, err := Design(attenuationDB, transition)
	if err != nil {
		return nil, err
	}

	return &Downsampler{polyphase: newPolyphase(coefs)}, nil
}

// ProcessSample consumes one pair of oversampled samples and returns one
// output sample.
func (d *Downsampler) ProcessSample(x0, x1 float64) float64 {
	return 0.5 * (d.path0.process(x1) + d.path1.process(x0))
}

// ProcessBlock downsamples src into dst. src must hold 2*len(dst) samples.
// dst may alias the first half of src.
func (d *Downsampler) ProcessBlock(dst, src []float64) {
	if len(dst) == 0 {
		return
	}

	_ = src[2*len(dst)-1]
	for i := range dst {
		x0, x1 := src[2*i], src[2*i+1]
		dst[i] = 0.5 * (d.path0.process(x1) + d.path1.process(x0))
	}
}

// Reset clears the filter state.
func (d *Downsampler) Reset() { d.reset() }

// GroupDelay returns the DC group delay in oversampled-rate samples.
func (d *Downsampler) GroupDelay() float64 { return GroupDelay(d.coefs) }

// Coefficients returns a copy of the allpass coefficients.
func (d *Downsampler) Coefficients() []float64 { return append([]float64(nil), d.coefs...) }

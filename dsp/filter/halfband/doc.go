// Package halfband implements polyphase IIR half-band filters for 2x
// up- and down-sampling.
//
// The filter is split into two parallel chains of first-order allpass
// sections running at the low rate. [Design] computes the allpass
// coefficients of an elliptic half-band lowpass for a given transition
// width and stopband attenuation. [Upsampler] produces two output samples
// per input sample, [Downsampler] consumes two input samples per output
// sample. Both are allocation-free after construction.
package halfband

// Package oversample runs processing at 2x or 4x the host sample rate.
//
// An [Oversampler] is a cascade of polyphase IIR half-band stages (see
// dsp/filter/halfband), one per doubling. [Oversampler.ProcessUp] returns
// per-channel views into preallocated oversampled buffers; the caller
// processes them in place and then calls [Oversampler.ProcessDown] with the
// same host buffers to decimate back. No allocation happens after [New].
package oversample

// Package biquad provides the second-order IIR section used by every EQ
// stage.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Coefficients are replaced
// wholesale with [Section.SetCoefficients]; the delay state survives the
// replacement and is only cleared by [Section.Reset].
//
// Coefficient design lives in dsp/filter/design.
package biquad
